package controller

import (
	"errors"
	"net/http"
	"strconv"

	"closer_club_backend/internal/service"
	"closer_club_backend/internal/upload"
	"closer_club_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type VideoController struct {
	VideoService *service.VideoService
}

func NewVideoController(videoService *service.VideoService) *VideoController {
	return &VideoController{VideoService: videoService}
}

// swagger:model StartUploadRequest
type StartUploadRequest struct {
	// Path is the server-local file to push to the CDN.
	Path     string `json:"path" binding:"required"`
	Title    string `json:"title"`
	Strategy string `json:"strategy" binding:"omitempty,oneof=chunked streaming tus"`
}

// StartUpload godoc
// @Summary Start a resumable video upload
// @Description Registers the video on the CDN and starts the transfer in the background
// @Tags videos
// @Accept json
// @Produce json
// @Param body body StartUploadRequest true "Local path and strategy"
// @Success 202 {object} util.Response{data=service.UploadStarted}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response "Upload already in progress for this file"
// @Security BearerAuth
// @Router /api/videos/uploads [post]
func (c *VideoController) StartUpload(ctx *gin.Context) {
	var req StartUploadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	started, err := c.VideoService.StartUpload(ctx.Request.Context(), req.Path, req.Title, req.Strategy, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, upload.ErrUploadInProgress):
			util.Error(ctx, http.StatusConflict, "Upload already in progress for this file")
		case errors.Is(err, util.ErrUnsupportedMedia):
			util.Error(ctx, http.StatusUnsupportedMediaType, err.Error())
		case errors.Is(err, service.ErrUnknownStrategy):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Accepted(ctx, started)
}

// UploadStatus godoc
// @Summary Progress of an upload
// @Tags videos
// @Produce json
// @Param fileId path string true "File identifier"
// @Success 200 {object} util.Response{data=upload.Progress}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/videos/uploads/{fileId} [get]
func (c *VideoController) UploadStatus(ctx *gin.Context) {
	progress, err := c.VideoService.Status(ctx.Param("fileId"))
	if err != nil {
		if errors.Is(err, upload.ErrUploadNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, progress)
}

// PauseUpload godoc
// @Summary Pause an upload
// @Tags videos
// @Produce json
// @Param fileId path string true "File identifier"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/videos/uploads/{fileId}/pause [post]
func (c *VideoController) PauseUpload(ctx *gin.Context) {
	c.controlUpload(ctx, c.VideoService.Pause)
}

// ResumeUpload godoc
// @Summary Resume a paused upload
// @Tags videos
// @Produce json
// @Param fileId path string true "File identifier"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/videos/uploads/{fileId}/resume [post]
func (c *VideoController) ResumeUpload(ctx *gin.Context) {
	c.controlUpload(ctx, c.VideoService.Resume)
}

// AbortUpload godoc
// @Summary Abort an upload and drop its session
// @Tags videos
// @Produce json
// @Param fileId path string true "File identifier"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/videos/uploads/{fileId}/abort [post]
func (c *VideoController) AbortUpload(ctx *gin.Context) {
	c.controlUpload(ctx, c.VideoService.Abort)
}

func (c *VideoController) controlUpload(ctx *gin.Context, op func(string) error) {
	if err := op(ctx.Param("fileId")); err != nil {
		if errors.Is(err, upload.ErrUploadNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// List godoc
// @Summary List hosted videos
// @Tags videos
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Security BearerAuth
// @Router /api/videos [get]
func (c *VideoController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	videos, total, err := c.VideoService.List(page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: videos, Total: total, Page: page, Limit: limit})
}

// Get godoc
// @Summary Video detail
// @Tags videos
// @Produce json
// @Param id path int true "Video ID"
// @Success 200 {object} util.Response{data=model.Video}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/videos/{id} [get]
func (c *VideoController) Get(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	video, err := c.VideoService.GetByID(id)
	if err != nil {
		if errors.Is(err, util.ErrVideoNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, video)
}

// Delete godoc
// @Summary Delete a video on the CDN and locally
// @Tags videos
// @Produce json
// @Param id path int true "Video ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/videos/{id} [delete]
func (c *VideoController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.VideoService.Delete(ctx.Request.Context(), id); err != nil {
		if errors.Is(err, util.ErrVideoNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
