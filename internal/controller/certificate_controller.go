package controller

import (
	"errors"
	"net/http"

	"closer_club_backend/internal/service"
	"closer_club_backend/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CertificateController struct {
	CertificateService *service.CertificateService
}

func NewCertificateController(certificateService *service.CertificateService) *CertificateController {
	return &CertificateController{CertificateService: certificateService}
}

// Issue godoc
// @Summary Request a certificate for a completed course
// @Tags certificates
// @Produce json
// @Param id path int true "Course ID"
// @Success 201 {object} util.Response{data=model.Certificate}
// @Failure 409 {object} util.Response "Already issued"
// @Failure 422 {object} util.Response "Course not fully completed"
// @Security BearerAuth
// @Router /api/courses/{id}/certificate [post]
func (c *CertificateController) Issue(ctx *gin.Context) {
	courseID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	claims := util.GetUserFromContext(ctx)
	cert, err := c.CertificateService.Issue(ctx.Request.Context(), claims.UserID, courseID)
	if err != nil {
		switch {
		case errors.Is(err, util.ErrCertificateIssued):
			util.Error(ctx, http.StatusConflict, "Certificate already issued")
		case errors.Is(err, util.ErrCourseNotCompleted):
			util.Error(ctx, http.StatusUnprocessableEntity, "Course not fully completed")
		case errors.Is(err, util.ErrCourseNotFound):
			util.NotFound(ctx)
		default:
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Created(ctx, cert)
}

// Mine godoc
// @Summary Own certificates
// @Tags certificates
// @Produce json
// @Success 200 {object} util.Response{data=[]model.Certificate}
// @Security BearerAuth
// @Router /api/me/certificates [get]
func (c *CertificateController) Mine(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	certs, err := c.CertificateService.ListByUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, certs)
}

// Verify godoc
// @Summary Public certificate verification
// @Tags certificates
// @Produce json
// @Param publicId path string true "Certificate public ID"
// @Success 200 {object} util.Response{data=model.Certificate}
// @Failure 404 {object} util.Response
// @Router /api/certificates/{publicId} [get]
func (c *CertificateController) Verify(ctx *gin.Context) {
	cert, err := c.CertificateService.GetByPublicID(ctx.Param("publicId"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(ctx)
		} else {
			util.LogInternalError(ctx, err)
		}
		return
	}
	util.Success(ctx, cert)
}
