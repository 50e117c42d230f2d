package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"closer_club_backend/internal/config"
	"closer_club_backend/internal/model"
	"closer_club_backend/internal/repository"
	"closer_club_backend/internal/util"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type CertificateService struct {
	CertRepo   *repository.CertificateRepository
	UserRepo   *repository.UserRepository
	CourseRepo *repository.CourseRepository
	Progress   *ProgressService
	Storage    *StorageService

	generator *resty.Client
}

func NewCertificateService(
	certRepo *repository.CertificateRepository,
	userRepo *repository.UserRepository,
	courseRepo *repository.CourseRepository,
	progress *ProgressService,
	storage *StorageService,
	cfg *config.CertificateConfig,
) *CertificateService {
	client := resty.New().
		SetBaseURL(cfg.GeneratorURL).
		SetHeader("Authorization", "Bearer "+cfg.APIKey).
		SetTimeout(60 * time.Second)
	return &CertificateService{
		CertRepo:   certRepo,
		UserRepo:   userRepo,
		CourseRepo: courseRepo,
		Progress:   progress,
		Storage:    storage,
		generator:  client,
	}
}

// Issue generates a certificate for a fully completed course. At most one
// certificate exists per user and course.
func (s *CertificateService) Issue(ctx context.Context, userID, courseID uint) (*model.Certificate, error) {
	if _, err := s.CertRepo.Find(userID, courseID); err == nil {
		return nil, util.ErrCertificateIssued
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	progress, err := s.Progress.CourseProgress(userID, courseID)
	if err != nil {
		return nil, err
	}
	if progress.TotalLessons == 0 || progress.ProgressPercentage < 100 {
		return nil, util.ErrCourseNotCompleted
	}

	user, err := s.UserRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	publicID := uuid.NewString()
	image, err := s.renderImage(ctx, user.Name, course.Title, publicID)
	if err != nil {
		return nil, err
	}

	filename := fmt.Sprintf("certificates/%s.png", publicID)
	imageURL, err := s.Storage.Upload(ctx, filename, bytes.NewReader(image), int64(len(image)), "image/png")
	if err != nil {
		return nil, err
	}

	cert := &model.Certificate{
		PublicID: publicID,
		UserID:   userID,
		CourseID: courseID,
		ImageURL: imageURL,
	}
	if err := s.CertRepo.Create(cert); err != nil {
		return nil, err
	}
	return cert, nil
}

// renderImage calls the remote certificate-image generator and returns the
// PNG bytes.
func (s *CertificateService) renderImage(ctx context.Context, studentName, courseTitle, publicID string) ([]byte, error) {
	resp, err := s.generator.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"studentName":   studentName,
			"courseTitle":   courseTitle,
			"certificateId": publicID,
			"issuedAt":      time.Now().Format(util.DateFormat),
		}).
		Post("/generate")
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("certificate generator: status %d", resp.StatusCode())
	}
	return resp.Body(), nil
}

func (s *CertificateService) GetByPublicID(publicID string) (*model.Certificate, error) {
	return s.CertRepo.FindByPublicID(publicID)
}

func (s *CertificateService) ListByUser(userID uint) ([]model.Certificate, error) {
	return s.CertRepo.ListByUser(userID)
}
