package controller

import (
	"errors"
	"strconv"

	"closer_club_backend/internal/model"
	"closer_club_backend/internal/service"
	"closer_club_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type CourseController struct {
	CourseService *service.CourseService
	QuizService   *service.QuizService
}

func NewCourseController(courseService *service.CourseService, quizService *service.QuizService) *CourseController {
	return &CourseController{CourseService: courseService, QuizService: quizService}
}

func pathID(ctx *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// swagger:model CourseRequest
type CourseRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Thumbnail   string `json:"thumbnail"`
}

// Create godoc
// @Summary Create a course
// @Tags courses
// @Accept json
// @Produce json
// @Param body body CourseRequest true "Course details"
// @Success 201 {object} util.Response{data=model.Course}
// @Security BearerAuth
// @Router /api/courses [post]
func (c *CourseController) Create(ctx *gin.Context) {
	var req CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	claims := util.GetUserFromContext(ctx)
	course := &model.Course{
		Title:       req.Title,
		Description: req.Description,
		Thumbnail:   req.Thumbnail,
		CreatedBy:   claims.UserID,
	}
	if err := c.CourseService.Create(course); err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, course)
}

// List godoc
// @Summary List courses
// @Description Agents see published courses only, editors see everything
// @Tags courses
// @Produce json
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Security BearerAuth
// @Router /api/courses [get]
func (c *CourseController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))

	claims := util.GetUserFromContext(ctx)
	publishedOnly := claims == nil || claims.Role == model.Agent

	courses, total, err := c.CourseService.List(publishedOnly, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: courses, Total: total, Page: page, Limit: limit})
}

// GetContent godoc
// @Summary Course content tree
// @Description Modules and lessons in order; the quiz answer key is stripped for agents
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/courses/{id} [get]
func (c *CourseController) GetContent(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)
	sanitize := claims == nil || claims.Role == model.Agent

	course, err := c.CourseService.GetContent(id, sanitize)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, course)
}

// Update godoc
// @Summary Update a course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param body body CourseRequest true "Fields to update"
// @Success 200 {object} util.Response{data=model.Course}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/courses/{id} [put]
func (c *CourseController) Update(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req CourseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	course, err := c.CourseService.Update(id, req.Title, req.Description, req.Thumbnail)
	if err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, course)
}

// Delete godoc
// @Summary Delete a course
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/courses/{id} [delete]
func (c *CourseController) Delete(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.CourseService.Delete(id); err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// swagger:model PublishRequest
type PublishRequest struct {
	Published *bool `json:"published" binding:"required"`
}

// SetPublished godoc
// @Summary Publish or unpublish a course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param body body PublishRequest true "Published flag"
// @Success 200 {object} util.Response
// @Security BearerAuth
// @Router /api/courses/{id}/published [put]
func (c *CourseController) SetPublished(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.CourseService.SetPublished(id, *req.Published); err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}

// swagger:model ModuleRequest
type ModuleRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Order       int    `json:"order"`
}

// AddModule godoc
// @Summary Add a module to a course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param body body ModuleRequest true "Module details"
// @Success 201 {object} util.Response{data=model.CourseModule}
// @Security BearerAuth
// @Router /api/courses/{id}/modules [post]
func (c *CourseController) AddModule(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req ModuleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	module := &model.CourseModule{
		Title:       req.Title,
		Description: req.Description,
		Order:       req.Order,
	}
	if err := c.CourseService.AddModule(courseID, module); err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, module)
}

// swagger:model LessonRequest
type LessonRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Order       int    `json:"order"`
	VideoID     *uint  `json:"videoId"`
}

// AddLesson godoc
// @Summary Add a lesson to a module
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Module ID"
// @Param body body LessonRequest true "Lesson details"
// @Success 201 {object} util.Response{data=model.Lesson}
// @Security BearerAuth
// @Router /api/modules/{id}/lessons [post]
func (c *CourseController) AddLesson(ctx *gin.Context) {
	moduleID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson := &model.Lesson{
		Title:       req.Title,
		Description: req.Description,
		Order:       req.Order,
		VideoID:     req.VideoID,
	}
	if err := c.CourseService.AddLesson(moduleID, lesson); err != nil {
		if errors.Is(err, util.ErrCourseNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, lesson)
}

// GetLesson godoc
// @Summary Lesson detail
// @Tags courses
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/lessons/{id} [get]
func (c *CourseController) GetLesson(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	lesson, err := c.CourseService.GetLesson(id)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, lesson)
}

// UpdateLesson godoc
// @Summary Update a lesson
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Lesson ID"
// @Param body body LessonRequest true "Fields to update"
// @Success 200 {object} util.Response{data=model.Lesson}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/lessons/{id} [put]
func (c *CourseController) UpdateLesson(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req LessonRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lesson, err := c.CourseService.UpdateLesson(id, req.Title, req.Description, &req.Order, req.VideoID)
	if err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, lesson)
}

// DeleteLesson godoc
// @Summary Delete a lesson
// @Tags courses
// @Produce json
// @Param id path int true "Lesson ID"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/lessons/{id} [delete]
func (c *CourseController) DeleteLesson(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}
	if err := c.CourseService.DeleteLesson(id); err != nil {
		if errors.Is(err, util.ErrLessonNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, nil)
}
