package service

import (
	"testing"

	"closer_club_backend/internal/model"
	"closer_club_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeQuizStore struct {
	quizzes     map[uint]*model.Quiz
	assignments []model.CompletedQuizAssignment
}

func newFakeQuizStore(quizzes ...*model.Quiz) *fakeQuizStore {
	s := &fakeQuizStore{quizzes: map[uint]*model.Quiz{}}
	for _, q := range quizzes {
		s.quizzes[q.ID] = q
	}
	return s
}

func (s *fakeQuizStore) FindByID(id uint) (*model.Quiz, error) {
	q, ok := s.quizzes[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *q
	cp.Questions = append([]model.QuizQuestion(nil), q.Questions...)
	return &cp, nil
}

func (s *fakeQuizStore) FindByLessonID(lessonID uint) (*model.Quiz, error) {
	for _, q := range s.quizzes {
		if q.LessonID == lessonID {
			return s.FindByID(q.ID)
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *fakeQuizStore) Create(quiz *model.Quiz) error {
	quiz.ID = uint(len(s.quizzes) + 1)
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *fakeQuizStore) Update(quiz *model.Quiz) error {
	s.quizzes[quiz.ID] = quiz
	return nil
}

func (s *fakeQuizStore) Delete(id uint) error {
	delete(s.quizzes, id)
	return nil
}

func (s *fakeQuizStore) ReplaceQuestions(quizID uint, questions []model.QuizQuestion) error {
	s.quizzes[quizID].Questions = questions
	return nil
}

func (s *fakeQuizStore) CreateCompletedAssignment(a *model.CompletedQuizAssignment) error {
	s.assignments = append(s.assignments, *a)
	return nil
}

func (s *fakeQuizStore) FindCompletedAssignment(userID, lessonID uint) (*model.CompletedQuizAssignment, error) {
	for i := range s.assignments {
		if s.assignments[i].UserID == userID && s.assignments[i].LessonID == lessonID {
			return &s.assignments[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func question(title string, correct int, answers ...string) model.QuizQuestion {
	return model.QuizQuestion{Title: title, Answers: answers, CorrectAnswerIndex: correct}
}

func threeQuestionQuiz() *model.Quiz {
	return &model.Quiz{
		BaseModel: model.BaseModel{ID: 1},
		LessonID:  10,
		Title:     "Policy Basics",
		Questions: []model.QuizQuestion{
			question("Q1", 1, "a", "b", "c"),
			question("Q2", 0, "a", "b", "c"),
			question("Q3", 1, "a", "b", "c"),
		},
	}
}

func TestGradePassingAttemptPersistsOneAssignment(t *testing.T) {
	store := newFakeQuizStore(threeQuestionQuiz())
	svc := NewQuizService(store)

	result, err := svc.Grade(7, 1, 10, []int{1, 0, 2})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.True(t, result.Passed)
	assert.Equal(t, 2, result.Score)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Empty(t, result.IncorrectQuestions)

	require.Len(t, store.assignments, 1)
	a := store.assignments[0]
	assert.Equal(t, uint(7), a.UserID)
	assert.Equal(t, uint(10), a.LessonID)
	assert.Equal(t, model.IntList{1, 0, 2}, a.SelectedAnswers)
	assert.Equal(t, 3, a.NumberOfQuestions)
	assert.Equal(t, 2, a.NumberCorrect)
}

func TestGradeFailingAttemptPersistsNothing(t *testing.T) {
	store := newFakeQuizStore(threeQuestionQuiz())
	svc := NewQuizService(store)

	result, err := svc.Grade(7, 1, 10, []int{0, 0, 0})
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.False(t, result.Passed)
	assert.Equal(t, 1, result.Score)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.Empty(t, store.assignments)

	require.Len(t, result.IncorrectQuestions, 2)
	first := result.IncorrectQuestions[0]
	assert.Equal(t, 0, first.QuestionIndex)
	assert.Equal(t, "Q1", first.Title)
	assert.Equal(t, 0, first.SelectedIndex)
	assert.Equal(t, 1, first.CorrectAnswerIndex)
	assert.Equal(t, []string{"a", "b", "c"}, first.Answers)
	assert.Equal(t, 2, result.IncorrectQuestions[1].QuestionIndex)
}

func TestGradeThresholdBoundary(t *testing.T) {
	fourQuestions := &model.Quiz{
		BaseModel: model.BaseModel{ID: 2},
		LessonID:  20,
		Questions: []model.QuizQuestion{
			question("Q1", 0, "a", "b"),
			question("Q2", 0, "a", "b"),
			question("Q3", 0, "a", "b"),
			question("Q4", 0, "a", "b"),
		},
	}

	t.Run("half correct passes", func(t *testing.T) {
		svc := NewQuizService(newFakeQuizStore(fourQuestions))
		result, err := svc.Grade(1, 2, 20, []int{0, 0, 1, 1})
		require.NoError(t, err)
		assert.True(t, result.Passed)
		assert.Equal(t, 2, result.Score)
	})

	t.Run("one of four fails", func(t *testing.T) {
		svc := NewQuizService(newFakeQuizStore(fourQuestions))
		result, err := svc.Grade(1, 2, 20, []int{0, 1, 1, 1})
		require.NoError(t, err)
		assert.False(t, result.Passed)
		assert.Equal(t, 1, result.Score)
	})

	t.Run("single question quiz passes on one correct", func(t *testing.T) {
		single := &model.Quiz{
			BaseModel: model.BaseModel{ID: 3},
			LessonID:  30,
			Questions: []model.QuizQuestion{question("Q1", 1, "a", "b")},
		}
		svc := NewQuizService(newFakeQuizStore(single))
		result, err := svc.Grade(1, 3, 30, []int{1})
		require.NoError(t, err)
		assert.True(t, result.Passed)
		assert.Equal(t, 1, result.Score)
	})
}

func TestGradeShortSubmissionScoresMissingAsWrong(t *testing.T) {
	store := newFakeQuizStore(threeQuestionQuiz())
	svc := NewQuizService(store)

	result, err := svc.Grade(7, 1, 10, []int{1})
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.Equal(t, 1, result.Score)
	require.Len(t, result.IncorrectQuestions, 2)
	assert.Equal(t, 1, result.IncorrectQuestions[0].QuestionIndex)
	assert.Equal(t, unansweredIndex, result.IncorrectQuestions[0].SelectedIndex)
}

func TestGradeOversizedSubmissionRejected(t *testing.T) {
	store := newFakeQuizStore(threeQuestionQuiz())
	svc := NewQuizService(store)

	_, err := svc.Grade(7, 1, 10, []int{1, 0, 1, 0})
	require.ErrorIs(t, err, util.ErrInvalidSubmission)
	assert.Empty(t, store.assignments)
}

func TestGradeRejectsQuizFromAnotherLesson(t *testing.T) {
	store := newFakeQuizStore(threeQuestionQuiz())
	svc := NewQuizService(store)

	// Quiz 1 belongs to lesson 10; naming a different lesson must not let a
	// pass there count toward it.
	result, err := svc.Grade(7, 1, 999, []int{1, 0, 1})
	require.ErrorIs(t, err, util.ErrQuizNotFound)
	assert.Nil(t, result)
	assert.Empty(t, store.assignments)
}

func TestGradeUnknownQuiz(t *testing.T) {
	svc := NewQuizService(newFakeQuizStore())
	_, err := svc.Grade(7, 99, 10, []int{0})
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
}

func TestGradeRepeatedPassRecordsOnce(t *testing.T) {
	store := newFakeQuizStore(threeQuestionQuiz())
	svc := NewQuizService(store)

	_, err := svc.Grade(7, 1, 10, []int{1, 0, 1})
	require.NoError(t, err)
	result, err := svc.Grade(7, 1, 10, []int{1, 0, 1})
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.Len(t, store.assignments, 1)
}

func TestGetForStudentSanitizesAnswerKey(t *testing.T) {
	store := newFakeQuizStore(threeQuestionQuiz())
	svc := NewQuizService(store)

	quiz, err := svc.GetForStudent(10)
	require.NoError(t, err)
	for _, q := range quiz.Questions {
		assert.Equal(t, util.SanitizedAnswerIndex, q.CorrectAnswerIndex)
	}

	// The stored quiz keeps its key, grading re-fetches it server-side.
	authoritative, err := svc.GetForEditor(1)
	require.NoError(t, err)
	assert.Equal(t, 1, authoritative.Questions[0].CorrectAnswerIndex)
}

func TestValidateQuestions(t *testing.T) {
	svc := NewQuizService(newFakeQuizStore())

	err := svc.Create(&model.Quiz{Questions: []model.QuizQuestion{
		question("only one answer", 0, "a"),
	}})
	assert.ErrorIs(t, err, util.ErrInvalidSubmission)

	err = svc.Create(&model.Quiz{Questions: []model.QuizQuestion{
		question("index out of range", 2, "a", "b"),
	}})
	assert.ErrorIs(t, err, util.ErrInvalidSubmission)

	err = svc.Create(&model.Quiz{Questions: []model.QuizQuestion{
		question("valid", 1, "a", "b", "c"),
	}})
	assert.NoError(t, err)
}
