package controller

import (
	"errors"
	"net/http"

	"closer_club_backend/internal/service"
	"closer_club_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EnrollmentController struct {
	EnrollmentService *service.EnrollmentService
}

func NewEnrollmentController(enrollmentService *service.EnrollmentService) *EnrollmentController {
	return &EnrollmentController{EnrollmentService: enrollmentService}
}

// swagger:model EnrollRequest
type EnrollRequest struct {
	UserID   uint `json:"userId" binding:"required"`
	CourseID uint `json:"courseId" binding:"required"`
}

// Enroll godoc
// @Summary Enroll a user in a course
// @Tags enrollments
// @Accept json
// @Produce json
// @Param body body EnrollRequest true "User and course"
// @Success 201 {object} util.Response{data=model.Enrollment}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "Already enrolled"
// @Security BearerAuth
// @Router /api/enrollments [post]
func (c *EnrollmentController) Enroll(ctx *gin.Context) {
	var req EnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	enrollment, err := c.EnrollmentService.Enroll(req.UserID, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrAlreadyEnrolled):
			util.Error(ctx, http.StatusConflict, "Already enrolled")
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, enrollment)
}

// Unenroll godoc
// @Summary Remove a user from a course
// @Tags enrollments
// @Accept json
// @Produce json
// @Param body body EnrollRequest true "User and course"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/enrollments [delete]
func (c *EnrollmentController) Unenroll(ctx *gin.Context) {
	var req EnrollRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.EnrollmentService.Unenroll(req.UserID, req.CourseID); err != nil {
		if errors.Is(err, util.ErrNotEnrolled) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// MyEnrollments godoc
// @Summary Own enrollments
// @Tags enrollments
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Enrollment}
// @Security BearerAuth
// @Router /api/me/enrollments [get]
func (c *EnrollmentController) MyEnrollments(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	enrollments, err := c.EnrollmentService.ListByUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, enrollments)
}

// CourseRoster godoc
// @Summary Enrolled users of a course
// @Tags enrollments
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response{data=[]model.Enrollment}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/courses/{id}/enrollments [get]
func (c *EnrollmentController) CourseRoster(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	enrollments, err := c.EnrollmentService.ListByCourse(courseID)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, enrollments)
}
