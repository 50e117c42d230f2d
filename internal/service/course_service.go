package service

import (
	"errors"

	"closer_club_backend/internal/model"
	"closer_club_backend/internal/repository"
	"closer_club_backend/internal/util"

	"gorm.io/gorm"
)

type CourseService struct {
	CourseRepo *repository.CourseRepository
	LessonRepo *repository.LessonRepository
}

func NewCourseService(courseRepo *repository.CourseRepository, lessonRepo *repository.LessonRepository) *CourseService {
	return &CourseService{CourseRepo: courseRepo, LessonRepo: lessonRepo}
}

func (s *CourseService) Create(course *model.Course) error {
	return s.CourseRepo.Create(course)
}

func (s *CourseService) GetByID(id uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return course, nil
}

// GetContent loads a course tree. Agent-facing reads strip the quiz answer
// key; editors keep it.
func (s *CourseService) GetContent(id uint, sanitize bool) (*model.Course, error) {
	course, err := s.CourseRepo.FindByIDWithContent(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if sanitize {
		for mi := range course.Modules {
			for li := range course.Modules[mi].Lessons {
				if quiz := course.Modules[mi].Lessons[li].Quiz; quiz != nil {
					SanitizeQuiz(quiz)
				}
			}
		}
	}
	return course, nil
}

func (s *CourseService) Update(id uint, title, description, thumbnail string) (*model.Course, error) {
	course, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if title != "" {
		course.Title = title
	}
	if description != "" {
		course.Description = description
	}
	if thumbnail != "" {
		course.Thumbnail = thumbnail
	}
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) Delete(id uint) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	return s.CourseRepo.Delete(id)
}

func (s *CourseService) List(publishedOnly bool, page, limit int) ([]model.Course, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.CourseRepo.List(publishedOnly, (page-1)*limit, limit)
}

func (s *CourseService) SetPublished(id uint, published bool) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	return s.CourseRepo.SetPublished(id, published)
}

func (s *CourseService) AddModule(courseID uint, module *model.CourseModule) error {
	if _, err := s.GetByID(courseID); err != nil {
		return err
	}
	module.CourseID = courseID
	return s.CourseRepo.CreateModule(module)
}

func (s *CourseService) UpdateModule(id uint, title, description string, order *int) (*model.CourseModule, error) {
	module, err := s.CourseRepo.FindModuleByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	if title != "" {
		module.Title = title
	}
	if description != "" {
		module.Description = description
	}
	if order != nil {
		module.Order = *order
	}
	if err := s.CourseRepo.UpdateModule(module); err != nil {
		return nil, err
	}
	return module, nil
}

func (s *CourseService) DeleteModule(id uint) error {
	if _, err := s.CourseRepo.FindModuleByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCourseNotFound
		}
		return err
	}
	return s.CourseRepo.DeleteModule(id)
}

func (s *CourseService) AddLesson(moduleID uint, lesson *model.Lesson) error {
	if _, err := s.CourseRepo.FindModuleByID(moduleID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrCourseNotFound
		}
		return err
	}
	lesson.ModuleID = moduleID
	return s.LessonRepo.Create(lesson)
}

func (s *CourseService) GetLesson(id uint) (*model.Lesson, error) {
	lesson, err := s.LessonRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLessonNotFound
		}
		return nil, err
	}
	return lesson, nil
}

func (s *CourseService) UpdateLesson(id uint, title, description string, order *int, videoID *uint) (*model.Lesson, error) {
	lesson, err := s.GetLesson(id)
	if err != nil {
		return nil, err
	}
	if title != "" {
		lesson.Title = title
	}
	if description != "" {
		lesson.Description = description
	}
	if order != nil {
		lesson.Order = *order
	}
	if videoID != nil {
		lesson.VideoID = videoID
	}
	if err := s.LessonRepo.Update(lesson); err != nil {
		return nil, err
	}
	return lesson, nil
}

func (s *CourseService) DeleteLesson(id uint) error {
	if _, err := s.GetLesson(id); err != nil {
		return err
	}
	return s.LessonRepo.Delete(id)
}
