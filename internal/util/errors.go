package util

import "errors"

var (
	ErrUserNotFound        = errors.New("user not found")
	ErrEmailRegistered     = errors.New("email already registered")
	ErrPermissionDenied    = errors.New("permission denied")
	ErrCourseNotFound      = errors.New("course not found")
	ErrLessonNotFound      = errors.New("lesson not found")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrVideoNotFound       = errors.New("video not found")
	ErrLeadNotFound        = errors.New("lead not found")
	ErrLeadAlreadyCaptured = errors.New("lead already captured")
	ErrNotEnrolled         = errors.New("not enrolled in course")
	ErrAlreadyEnrolled     = errors.New("already enrolled in course")
	ErrCourseNotCompleted  = errors.New("course not fully completed")
	ErrCertificateIssued   = errors.New("certificate already issued")
	ErrInvalidSubmission   = errors.New("invalid quiz submission")
	ErrUnsupportedMedia    = errors.New("unsupported media type")
)
