package repository

import (
	"closer_club_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.order ASC")
		}).
		First(&quiz, id).Error
	return &quiz, err
}

func (r *QuizRepository) FindByLessonID(lessonID uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.order ASC")
		}).
		Where("lesson_id = ?", lessonID).
		First(&quiz).Error
	return &quiz, err
}

// ReplaceQuestions swaps the question set of a quiz atomically.
func (r *QuizRepository) ReplaceQuestions(quizID uint, questions []model.QuizQuestion) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", quizID).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		for i := range questions {
			questions[i].ID = 0
			questions[i].QuizID = quizID
		}
		if len(questions) == 0 {
			return nil
		}
		return tx.Create(&questions).Error
	})
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

func (r *QuizRepository) Delete(id uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quiz_id = ?", id).Delete(&model.QuizQuestion{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Quiz{}, id).Error
	})
}

func (r *QuizRepository) CreateCompletedAssignment(a *model.CompletedQuizAssignment) error {
	return r.DB.Create(a).Error
}

func (r *QuizRepository) FindCompletedAssignment(userID, lessonID uint) (*model.CompletedQuizAssignment, error) {
	var a model.CompletedQuizAssignment
	err := r.DB.
		Where("user_id = ? AND lesson_id = ?", userID, lessonID).
		First(&a).Error
	return &a, err
}

func (r *QuizRepository) ListCompletedByUser(userID uint) ([]model.CompletedQuizAssignment, error) {
	var list []model.CompletedQuizAssignment
	err := r.DB.Where("user_id = ?", userID).Find(&list).Error
	return list, err
}
