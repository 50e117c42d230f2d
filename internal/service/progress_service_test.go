package service

import (
	"errors"
	"testing"

	"closer_club_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProgressStore struct {
	courses   []model.Course
	total     map[uint]int64
	completed map[uint]int64

	coursesErr error
	totalErr   error
}

func (s *fakeProgressStore) TotalLessons(courseID uint) (int64, error) {
	if s.totalErr != nil {
		return 0, s.totalErr
	}
	return s.total[courseID], nil
}

func (s *fakeProgressStore) CompletedLessons(userID, courseID uint) (int64, error) {
	return s.completed[courseID], nil
}

func (s *fakeProgressStore) EnrolledCourses(userID uint) ([]model.Course, error) {
	if s.coursesErr != nil {
		return nil, s.coursesErr
	}
	return s.courses, nil
}

func TestCourseProgressPercentage(t *testing.T) {
	store := &fakeProgressStore{
		total:     map[uint]int64{1: 10, 2: 0, 3: 3},
		completed: map[uint]int64{1: 10, 2: 0, 3: 2},
	}
	svc := NewProgressService(store)

	t.Run("all lessons completed", func(t *testing.T) {
		cp, err := svc.CourseProgress(7, 1)
		require.NoError(t, err)
		assert.Equal(t, 10, cp.TotalLessons)
		assert.Equal(t, 10, cp.CompletedLessons)
		assert.Equal(t, 100, cp.ProgressPercentage)
	})

	t.Run("empty course reports zero", func(t *testing.T) {
		cp, err := svc.CourseProgress(7, 2)
		require.NoError(t, err)
		assert.Equal(t, 0, cp.ProgressPercentage)
	})

	t.Run("rounds to nearest integer", func(t *testing.T) {
		cp, err := svc.CourseProgress(7, 3)
		require.NoError(t, err)
		assert.Equal(t, 67, cp.ProgressPercentage)
	})
}

func TestStudentSummaryAggregatesAcrossCourses(t *testing.T) {
	store := &fakeProgressStore{
		courses: []model.Course{
			{BaseModel: model.BaseModel{ID: 1}, Title: "Life Insurance 101"},
			{BaseModel: model.BaseModel{ID: 2}, Title: "Closing Techniques"},
		},
		total:     map[uint]int64{1: 4, 2: 10},
		completed: map[uint]int64{1: 4, 2: 5},
	}
	svc := NewProgressService(store)

	summary := svc.StudentSummary(7)
	require.True(t, summary.Success)
	assert.Equal(t, 2, summary.TotalEnrolledCourses)
	assert.Equal(t, 14, summary.TotalLessons)
	assert.Equal(t, 9, summary.TotalCompletedLessons)
	// mean of 100 and 50
	assert.Equal(t, 75, summary.AverageProgress)

	require.Len(t, summary.Courses, 2)
	assert.Equal(t, "Life Insurance 101", summary.Courses[0].CourseTitle)
	assert.Equal(t, 100, summary.Courses[0].ProgressPercentage)
	assert.Equal(t, 50, summary.Courses[1].ProgressPercentage)
}

func TestStudentSummaryNoEnrollments(t *testing.T) {
	svc := NewProgressService(&fakeProgressStore{})
	summary := svc.StudentSummary(7)

	assert.True(t, summary.Success)
	assert.Equal(t, 0, summary.TotalEnrolledCourses)
	assert.Equal(t, 0, summary.AverageProgress)
	assert.Empty(t, summary.Courses)
}

func TestStudentSummaryQueryFailureYieldsZeroedResult(t *testing.T) {
	t.Run("enrollment query fails", func(t *testing.T) {
		svc := NewProgressService(&fakeProgressStore{coursesErr: errors.New("connection refused")})
		summary := svc.StudentSummary(7)
		assert.False(t, summary.Success)
		assert.Empty(t, summary.Courses)
		assert.Equal(t, 0, summary.TotalLessons)
	})

	t.Run("per course query fails", func(t *testing.T) {
		svc := NewProgressService(&fakeProgressStore{
			courses:  []model.Course{{BaseModel: model.BaseModel{ID: 1}}},
			totalErr: errors.New("connection refused"),
		})
		summary := svc.StudentSummary(7)
		assert.False(t, summary.Success)
		assert.Empty(t, summary.Courses)
	})
}
