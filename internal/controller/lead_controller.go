package controller

import (
	"errors"
	"net/http"
	"strconv"

	"closer_club_backend/internal/model"
	"closer_club_backend/internal/service"
	"closer_club_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeadController struct {
	LeadService *service.LeadService
}

func NewLeadController(leadService *service.LeadService) *LeadController {
	return &LeadController{LeadService: leadService}
}

// swagger:model CaptureLeadRequest
type CaptureLeadRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Capture godoc
// @Summary Capture a prospect from the public signup form
// @Tags leads
// @Accept json
// @Produce json
// @Param body body CaptureLeadRequest true "Prospect details"
// @Success 201 {object} util.Response{data=model.Lead}
// @Failure 409 {object} util.Response "Already captured"
// @Router /api/leads [post]
func (c *LeadController) Capture(ctx *gin.Context) {
	var req CaptureLeadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lead, err := c.LeadService.Capture(req.Name, req.Email, req.Phone, req.Message)
	if err != nil {
		if errors.Is(err, util.ErrLeadAlreadyCaptured) {
			util.Error(ctx, http.StatusConflict, "Already captured")
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, gin.H{"publicId": lead.PublicID})
}

// List godoc
// @Summary List leads
// @Tags leads
// @Produce json
// @Param status query string false "Filter by status"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Security BearerAuth
// @Router /api/leads [get]
func (c *LeadController) List(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "20"))
	status := model.LeadStatus(ctx.Query("status"))

	leads, total, err := c.LeadService.List(status, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{List: leads, Total: total, Page: page, Limit: limit})
}

// swagger:model UpdateLeadStatusRequest
type UpdateLeadStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=new contacted converted rejected"`
}

// UpdateStatus godoc
// @Summary Move a lead through the pipeline
// @Tags leads
// @Accept json
// @Produce json
// @Param id path int true "Lead ID"
// @Param body body UpdateLeadStatusRequest true "New status"
// @Success 200 {object} util.Response{data=model.Lead}
// @Failure 404 {object} util.Response
// @Security BearerAuth
// @Router /api/leads/{id}/status [put]
func (c *LeadController) UpdateStatus(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req UpdateLeadStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	lead, err := c.LeadService.UpdateStatus(id, model.LeadStatus(req.Status))
	if err != nil {
		if errors.Is(err, util.ErrLeadNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, lead)
}

// swagger:model PromoteLeadRequest
type PromoteLeadRequest struct {
	Password string `json:"password" binding:"required,min=8"`
	CourseID uint   `json:"courseId"`
}

// Promote godoc
// @Summary Convert a lead into an agent account
// @Description Creates the user, optional starter enrollment and marks the lead converted in one transaction
// @Tags leads
// @Accept json
// @Produce json
// @Param id path int true "Lead ID"
// @Param body body PromoteLeadRequest true "Initial password and optional starter course"
// @Success 201 {object} util.Response{data=model.User}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "Already converted or email taken"
// @Security BearerAuth
// @Router /api/leads/{id}/promote [post]
func (c *LeadController) Promote(ctx *gin.Context) {
	id, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	var req PromoteLeadRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	user, err := c.LeadService.Promote(id, req.Password, req.CourseID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrLeadNotFound):
			util.NotFound(ctx)
		case errors.Is(err, util.ErrLeadAlreadyCaptured), errors.Is(err, util.ErrEmailRegistered):
			util.Error(ctx, http.StatusConflict, err.Error())
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, user)
}
