package controller

import (
	"closer_club_backend/internal/service"
	"closer_club_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type ProgressController struct {
	ProgressService *service.ProgressService
}

func NewProgressController(progressService *service.ProgressService) *ProgressController {
	return &ProgressController{ProgressService: progressService}
}

// CourseProgress godoc
// @Summary Own progress within one course
// @Tags progress
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response{data=model.CourseProgress}
// @Security BearerAuth
// @Router /api/courses/{id}/progress [get]
func (c *ProgressController) CourseProgress(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)
	progress, err := c.ProgressService.CourseProgress(claims.UserID, courseID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, progress)
}

// Summary godoc
// @Summary Own progress across all enrolled courses
// @Description Always returns a structurally valid summary; success=false signals a query failure
// @Tags progress
// @Produce json
// @Success 200 {object} util.Response{data=model.StudentProgressSummary}
// @Security BearerAuth
// @Router /api/me/progress [get]
func (c *ProgressController) Summary(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	util.Success(ctx, c.ProgressService.StudentSummary(claims.UserID))
}

// StudentSummary godoc
// @Summary A student's progress, for team leaders
// @Tags progress
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} util.Response{data=model.StudentProgressSummary}
// @Security BearerAuth
// @Router /api/users/{id}/progress [get]
func (c *ProgressController) StudentSummary(ctx *gin.Context) {
	userID, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	util.Success(ctx, c.ProgressService.StudentSummary(userID))
}
