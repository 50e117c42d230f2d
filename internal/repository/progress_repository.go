package repository

import (
	"closer_club_backend/internal/model"

	"gorm.io/gorm"
)

type ProgressRepository struct {
	DB *gorm.DB
}

func NewProgressRepository(db *gorm.DB) *ProgressRepository {
	return &ProgressRepository{DB: db}
}

// TotalLessons counts every lesson reachable from a course through its
// modules.
func (r *ProgressRepository) TotalLessons(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ?", courseID).
		Count(&count).Error
	return count, err
}

// CompletedLessons counts lessons of a course the user has a completed quiz
// assignment for.
func (r *ProgressRepository) CompletedLessons(userID, courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.CompletedQuizAssignment{}).
		Joins("JOIN lessons ON lessons.id = completed_quiz_assignments.lesson_id").
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("completed_quiz_assignments.user_id = ? AND course_modules.course_id = ?", userID, courseID).
		Count(&count).Error
	return count, err
}

func (r *ProgressRepository) EnrolledCourses(userID uint) ([]model.Course, error) {
	var courses []model.Course
	err := r.DB.Model(&model.Course{}).
		Joins("JOIN enrollments ON enrollments.course_id = courses.id AND enrollments.deleted_at IS NULL").
		Where("enrollments.user_id = ?", userID).
		Order("enrollments.created_at ASC").
		Find(&courses).Error
	return courses, err
}
