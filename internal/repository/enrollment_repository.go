package repository

import (
	"closer_club_backend/internal/model"

	"gorm.io/gorm"
)

type EnrollmentRepository struct {
	DB *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) *EnrollmentRepository {
	return &EnrollmentRepository{DB: db}
}

func (r *EnrollmentRepository) Create(enrollment *model.Enrollment) error {
	return r.DB.Create(enrollment).Error
}

func (r *EnrollmentRepository) Find(userID, courseID uint) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.DB.
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&enrollment).Error
	return &enrollment, err
}

func (r *EnrollmentRepository) Delete(userID, courseID uint) error {
	return r.DB.
		Where("user_id = ? AND course_id = ?", userID, courseID).
		Delete(&model.Enrollment{}).Error
}

func (r *EnrollmentRepository) ListByUser(userID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}

func (r *EnrollmentRepository) ListByCourse(courseID uint) ([]model.Enrollment, error) {
	var enrollments []model.Enrollment
	err := r.DB.Preload("User").
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&enrollments).Error
	return enrollments, err
}
