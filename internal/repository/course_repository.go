package repository

import (
	"closer_club_backend/internal/model"

	"gorm.io/gorm"
)

type CourseRepository struct {
	DB *gorm.DB
}

func NewCourseRepository(db *gorm.DB) *CourseRepository {
	return &CourseRepository{DB: db}
}

func (r *CourseRepository) Create(course *model.Course) error {
	return r.DB.Create(course).Error
}

func (r *CourseRepository) FindByID(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.First(&course, id).Error
	return &course, err
}

// FindByIDWithContent loads the course with its modules and lessons in
// display order, quizzes included.
func (r *CourseRepository) FindByIDWithContent(id uint) (*model.Course, error) {
	var course model.Course
	err := r.DB.
		Preload("Modules", func(db *gorm.DB) *gorm.DB {
			return db.Order("course_modules.order ASC")
		}).
		Preload("Modules.Lessons", func(db *gorm.DB) *gorm.DB {
			return db.Order("lessons.order ASC")
		}).
		Preload("Modules.Lessons.Video").
		Preload("Modules.Lessons.Quiz.Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("quiz_questions.order ASC")
		}).
		First(&course, id).Error
	return &course, err
}

func (r *CourseRepository) Update(course *model.Course) error {
	return r.DB.Save(course).Error
}

func (r *CourseRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Course{}, id).Error
}

func (r *CourseRepository) List(publishedOnly bool, offset, limit int) ([]model.Course, int64, error) {
	query := r.DB.Model(&model.Course{})
	if publishedOnly {
		query = query.Where("is_published = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var courses []model.Course
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&courses).Error
	return courses, total, err
}

func (r *CourseRepository) SetPublished(id uint, published bool) error {
	return r.DB.Model(&model.Course{}).
		Where("id = ?", id).
		Update("is_published", published).
		Error
}

func (r *CourseRepository) CreateModule(module *model.CourseModule) error {
	return r.DB.Create(module).Error
}

func (r *CourseRepository) FindModuleByID(id uint) (*model.CourseModule, error) {
	var module model.CourseModule
	err := r.DB.First(&module, id).Error
	return &module, err
}

func (r *CourseRepository) UpdateModule(module *model.CourseModule) error {
	return r.DB.Save(module).Error
}

func (r *CourseRepository) DeleteModule(id uint) error {
	return r.DB.Delete(&model.CourseModule{}, id).Error
}
