package service

import (
	"math"

	"closer_club_backend/internal/model"
	"closer_club_backend/pkg/logger"

	"go.uber.org/zap"
)

// ProgressStore is the slice of the progress repository the aggregation
// needs.
type ProgressStore interface {
	TotalLessons(courseID uint) (int64, error)
	CompletedLessons(userID, courseID uint) (int64, error)
	EnrolledCourses(userID uint) ([]model.Course, error)
}

type ProgressService struct {
	Progress ProgressStore
}

func NewProgressService(progress ProgressStore) *ProgressService {
	return &ProgressService{Progress: progress}
}

// CourseProgress reports completion for one student in one course. A course
// with no lessons reports 0 percent.
func (s *ProgressService) CourseProgress(userID, courseID uint) (*model.CourseProgress, error) {
	total, err := s.Progress.TotalLessons(courseID)
	if err != nil {
		return nil, err
	}
	completed, err := s.Progress.CompletedLessons(userID, courseID)
	if err != nil {
		return nil, err
	}
	return &model.CourseProgress{
		CourseID:           courseID,
		TotalLessons:       int(total),
		CompletedLessons:   int(completed),
		ProgressPercentage: percentage(completed, total),
	}, nil
}

// StudentSummary reports per-course progress across every enrollment plus
// rolled-up totals. Any query failure yields a zeroed summary with
// Success=false rather than an error, the caller always gets a structurally
// valid response.
func (s *ProgressService) StudentSummary(userID uint) *model.StudentProgressSummary {
	courses, err := s.Progress.EnrolledCourses(userID)
	if err != nil {
		logger.Log.Error("Failed to load enrolled courses for progress summary",
			zap.Uint("userID", userID), zap.Error(err))
		return emptySummary()
	}

	summary := &model.StudentProgressSummary{
		Success:              true,
		Courses:              make([]model.CourseProgress, 0, len(courses)),
		TotalEnrolledCourses: len(courses),
	}

	percentSum := 0
	for _, course := range courses {
		cp, err := s.CourseProgress(userID, course.ID)
		if err != nil {
			logger.Log.Error("Failed to compute course progress",
				zap.Uint("userID", userID), zap.Uint("courseID", course.ID), zap.Error(err))
			return emptySummary()
		}
		cp.CourseTitle = course.Title
		summary.Courses = append(summary.Courses, *cp)
		summary.TotalLessons += cp.TotalLessons
		summary.TotalCompletedLessons += cp.CompletedLessons
		percentSum += cp.ProgressPercentage
	}

	if len(courses) > 0 {
		summary.AverageProgress = int(math.Round(float64(percentSum) / float64(len(courses))))
	}
	return summary
}

func percentage(completed, total int64) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(completed) / float64(total) * 100))
}

func emptySummary() *model.StudentProgressSummary {
	return &model.StudentProgressSummary{
		Success: false,
		Courses: []model.CourseProgress{},
	}
}
