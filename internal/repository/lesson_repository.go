package repository

import (
	"closer_club_backend/internal/model"

	"gorm.io/gorm"
)

type LessonRepository struct {
	DB *gorm.DB
}

func NewLessonRepository(db *gorm.DB) *LessonRepository {
	return &LessonRepository{DB: db}
}

func (r *LessonRepository) Create(lesson *model.Lesson) error {
	return r.DB.Create(lesson).Error
}

func (r *LessonRepository) FindByID(id uint) (*model.Lesson, error) {
	var lesson model.Lesson
	err := r.DB.Preload("Video").First(&lesson, id).Error
	return &lesson, err
}

func (r *LessonRepository) Update(lesson *model.Lesson) error {
	return r.DB.Save(lesson).Error
}

func (r *LessonRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Lesson{}, id).Error
}

// CourseIDForLesson resolves the course a lesson belongs to through its
// module.
func (r *LessonRepository) CourseIDForLesson(lessonID uint) (uint, error) {
	var courseID uint
	err := r.DB.Model(&model.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("lessons.id = ?", lessonID).
		Select("course_modules.course_id").
		Scan(&courseID).Error
	if err != nil {
		return 0, err
	}
	if courseID == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return courseID, nil
}

func (r *LessonRepository) CountByCourse(courseID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Lesson{}).
		Joins("JOIN course_modules ON course_modules.id = lessons.module_id").
		Where("course_modules.course_id = ?", courseID).
		Count(&count).Error
	return count, err
}
