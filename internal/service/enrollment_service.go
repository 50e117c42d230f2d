package service

import (
	"errors"

	"closer_club_backend/internal/model"
	"closer_club_backend/internal/repository"
	"closer_club_backend/internal/util"

	"gorm.io/gorm"
)

type EnrollmentService struct {
	EnrollmentRepo *repository.EnrollmentRepository
	CourseRepo     *repository.CourseRepository
}

func NewEnrollmentService(enrollmentRepo *repository.EnrollmentRepository, courseRepo *repository.CourseRepository) *EnrollmentService {
	return &EnrollmentService{EnrollmentRepo: enrollmentRepo, CourseRepo: courseRepo}
}

func (s *EnrollmentService) Enroll(userID, courseID uint) (*model.Enrollment, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	_, err := s.EnrollmentRepo.Find(userID, courseID)
	if err == nil {
		return nil, util.ErrAlreadyEnrolled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	enrollment := &model.Enrollment{UserID: userID, CourseID: courseID}
	if err := s.EnrollmentRepo.Create(enrollment); err != nil {
		return nil, err
	}
	return enrollment, nil
}

func (s *EnrollmentService) Unenroll(userID, courseID uint) error {
	if _, err := s.EnrollmentRepo.Find(userID, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrNotEnrolled
		}
		return err
	}
	return s.EnrollmentRepo.Delete(userID, courseID)
}

func (s *EnrollmentService) IsEnrolled(userID, courseID uint) (bool, error) {
	_, err := s.EnrollmentRepo.Find(userID, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *EnrollmentService) ListByUser(userID uint) ([]model.Enrollment, error) {
	return s.EnrollmentRepo.ListByUser(userID)
}

func (s *EnrollmentService) ListByCourse(courseID uint) ([]model.Enrollment, error) {
	if _, err := s.CourseRepo.FindByID(courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}
	return s.EnrollmentRepo.ListByCourse(courseID)
}
