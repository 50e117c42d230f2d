package service

import (
	"errors"
	"fmt"

	"closer_club_backend/internal/model"
	"closer_club_backend/internal/util"
	"closer_club_backend/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// QuizStore is the slice of the quiz repository the grading engine needs.
type QuizStore interface {
	FindByID(id uint) (*model.Quiz, error)
	FindByLessonID(lessonID uint) (*model.Quiz, error)
	Create(quiz *model.Quiz) error
	Update(quiz *model.Quiz) error
	Delete(id uint) error
	ReplaceQuestions(quizID uint, questions []model.QuizQuestion) error
	CreateCompletedAssignment(a *model.CompletedQuizAssignment) error
	FindCompletedAssignment(userID, lessonID uint) (*model.CompletedQuizAssignment, error)
}

// IncorrectQuestion carries the review data for one wrongly answered
// question of a failing attempt.
type IncorrectQuestion struct {
	QuestionIndex      int      `json:"questionIndex"`
	Title              string   `json:"title"`
	SelectedIndex      int      `json:"selectedIndex"`
	CorrectAnswerIndex int      `json:"correctAnswerIndex"`
	Answers            []string `json:"answers"`
}

// GradeResult is returned for every graded submission, passing or failing.
type GradeResult struct {
	Success            bool                `json:"success"`
	Passed             bool                `json:"passed"`
	Score              int                 `json:"score"`
	TotalQuestions     int                 `json:"totalQuestions"`
	IncorrectQuestions []IncorrectQuestion `json:"incorrectQuestions,omitempty"`
}

type QuizService struct {
	Quizzes QuizStore
}

func NewQuizService(quizzes QuizStore) *QuizService {
	return &QuizService{Quizzes: quizzes}
}

// unansweredIndex never matches a correct-answer index, a submission shorter
// than the question list scores the missing entries as wrong.
const unansweredIndex = -2

// Grade scores a submission against the authoritative quiz and records a
// CompletedQuizAssignment only on a pass. Failing attempts persist nothing
// and return review data for each wrong answer; a student may retry
// indefinitely.
func (s *QuizService) Grade(userID, quizID, lessonID uint, selectedAnswers []int) (*GradeResult, error) {
	quiz, err := s.Quizzes.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	// The quiz must belong to the lesson being completed, a pass must never
	// credit another lesson's progress.
	if quiz.LessonID != lessonID {
		return nil, util.ErrQuizNotFound
	}

	total := len(quiz.Questions)
	if len(selectedAnswers) > total {
		return nil, fmt.Errorf("%w: %d answers for %d questions", util.ErrInvalidSubmission, len(selectedAnswers), total)
	}

	score := 0
	var incorrect []IncorrectQuestion
	for i, q := range quiz.Questions {
		selected := unansweredIndex
		if i < len(selectedAnswers) {
			selected = selectedAnswers[i]
		}
		if selected == q.CorrectAnswerIndex {
			score++
			continue
		}
		incorrect = append(incorrect, IncorrectQuestion{
			QuestionIndex:      i,
			Title:              q.Title,
			SelectedIndex:      selected,
			CorrectAnswerIndex: q.CorrectAnswerIndex,
			Answers:            q.Answers,
		})
	}

	passed := total > 0 && float64(score)/float64(total) >= util.PassThreshold

	result := &GradeResult{
		Success:        true,
		Passed:         passed,
		Score:          score,
		TotalQuestions: total,
	}
	if !passed {
		result.IncorrectQuestions = incorrect
		return result, nil
	}

	// A pass is recorded at most once per user and lesson.
	existing, err := s.Quizzes.FindCompletedAssignment(userID, lessonID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil && existing != nil {
		logger.Log.Debug("Quiz already completed, skipping duplicate record",
			zap.Uint("userID", userID), zap.Uint("lessonID", lessonID))
		return result, nil
	}

	assignment := &model.CompletedQuizAssignment{
		UserID:            userID,
		QuizID:            quizID,
		LessonID:          lessonID,
		SelectedAnswers:   append(model.IntList{}, selectedAnswers...),
		NumberOfQuestions: total,
		NumberCorrect:     score,
	}
	if err := s.Quizzes.CreateCompletedAssignment(assignment); err != nil {
		return nil, err
	}
	return result, nil
}

// GetForStudent returns a lesson's quiz with every correct-answer index
// replaced by the sanitized sentinel so the answer key never leaves the
// server.
func (s *QuizService) GetForStudent(lessonID uint) (*model.Quiz, error) {
	quiz, err := s.Quizzes.FindByLessonID(lessonID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	SanitizeQuiz(quiz)
	return quiz, nil
}

// GetForEditor returns the quiz with the answer key intact.
func (s *QuizService) GetForEditor(quizID uint) (*model.Quiz, error) {
	quiz, err := s.Quizzes.FindByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return quiz, nil
}

// SanitizeQuiz strips the answer key in place.
func SanitizeQuiz(quiz *model.Quiz) {
	for i := range quiz.Questions {
		quiz.Questions[i].CorrectAnswerIndex = util.SanitizedAnswerIndex
	}
}

func (s *QuizService) Create(quiz *model.Quiz) error {
	if err := validateQuestions(quiz.Questions); err != nil {
		return err
	}
	return s.Quizzes.Create(quiz)
}

func (s *QuizService) UpdateQuestions(quizID uint, questions []model.QuizQuestion) error {
	if _, err := s.GetForEditor(quizID); err != nil {
		return err
	}
	if err := validateQuestions(questions); err != nil {
		return err
	}
	return s.Quizzes.ReplaceQuestions(quizID, questions)
}

func (s *QuizService) Delete(quizID uint) error {
	if _, err := s.GetForEditor(quizID); err != nil {
		return err
	}
	return s.Quizzes.Delete(quizID)
}

// validateQuestions enforces the authoring invariants: 2 to 6 answers per
// question and a correct-answer index inside the answer list.
func validateQuestions(questions []model.QuizQuestion) error {
	for i, q := range questions {
		if q.Title == "" {
			return fmt.Errorf("%w: question %d has no title", util.ErrInvalidSubmission, i)
		}
		n := len(q.Answers)
		if n < util.MinAnswersPerQuestion || n > util.MaxAnswersPerQuestion {
			return fmt.Errorf("%w: question %d has %d answers, want %d-%d",
				util.ErrInvalidSubmission, i, n, util.MinAnswersPerQuestion, util.MaxAnswersPerQuestion)
		}
		if q.CorrectAnswerIndex < 0 || q.CorrectAnswerIndex >= n {
			return fmt.Errorf("%w: question %d correct index %d out of range",
				util.ErrInvalidSubmission, i, q.CorrectAnswerIndex)
		}
	}
	return nil
}
