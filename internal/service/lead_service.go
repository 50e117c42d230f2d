package service

import (
	"errors"
	"time"

	"closer_club_backend/internal/config"
	"closer_club_backend/internal/model"
	"closer_club_backend/internal/repository"
	"closer_club_backend/internal/util"
	"closer_club_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type LeadService struct {
	LeadRepo *repository.LeadRepository
	UserRepo *repository.UserRepository
	DB       *gorm.DB
	Mail     config.MailConfig
}

func NewLeadService(leadRepo *repository.LeadRepository, userRepo *repository.UserRepository, db *gorm.DB, mailCfg config.MailConfig) *LeadService {
	return &LeadService{LeadRepo: leadRepo, UserRepo: userRepo, DB: db, Mail: mailCfg}
}

// Capture records a prospect from the public signup form. Duplicate emails
// are rejected so one prospect appears once in the pipeline.
func (s *LeadService) Capture(name, email, phone, message string) (*model.Lead, error) {
	_, err := s.LeadRepo.FindByEmail(email)
	if err == nil {
		return nil, util.ErrLeadAlreadyCaptured
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	lead := &model.Lead{
		PublicID: uuid.NewString(),
		Name:     name,
		Email:    email,
		Phone:    phone,
		Message:  message,
		Status:   model.LeadNew,
	}
	if err := s.LeadRepo.Create(lead); err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *LeadService) GetByID(id uint) (*model.Lead, error) {
	lead, err := s.LeadRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrLeadNotFound
		}
		return nil, err
	}
	return lead, nil
}

func (s *LeadService) List(status model.LeadStatus, page, limit int) ([]model.Lead, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.LeadRepo.List(status, (page-1)*limit, limit)
}

func (s *LeadService) UpdateStatus(id uint, status model.LeadStatus) (*model.Lead, error) {
	lead, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	lead.Status = status
	if err := s.LeadRepo.Update(lead); err != nil {
		return nil, err
	}
	return lead, nil
}

// Promote converts a lead into an agent account, optionally enrolling it in
// a starter course. User creation, enrollment and lead conversion commit
// together or not at all; the welcome email is best-effort afterwards.
func (s *LeadService) Promote(leadID uint, password string, courseID uint) (*model.User, error) {
	lead, err := s.GetByID(leadID)
	if err != nil {
		return nil, err
	}
	if lead.Status == model.LeadConverted {
		return nil, util.ErrLeadAlreadyCaptured
	}

	if _, err := s.UserRepo.FindByEmail(lead.Email); err == nil {
		return nil, util.ErrEmailRegistered
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:     lead.Name,
		Email:    lead.Email,
		Phone:    lead.Phone,
		Password: string(hashed),
		Role:     model.Agent,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		if courseID != 0 {
			enrollment := &model.Enrollment{UserID: user.ID, CourseID: courseID}
			if err := tx.Create(enrollment).Error; err != nil {
				return err
			}
		}
		now := time.Now()
		lead.Status = model.LeadConverted
		lead.ConvertedAt = &now
		return tx.Save(lead).Error
	})
	if err != nil {
		return nil, err
	}

	s.sendWelcomeEmail(user)
	return user, nil
}

func (s *LeadService) sendWelcomeEmail(user *model.User) {
	if s.Mail.SendgridKey == "" {
		return
	}

	from := mail.NewEmail(s.Mail.FromName, s.Mail.FromEmail)
	to := mail.NewEmail(user.Name, user.Email)
	subject := "Welcome to Closer Club"
	body := "Hi " + user.Name + ",\n\nYour agent account is ready. Log in to start your training.\n"
	message := mail.NewSingleEmail(from, subject, to, body, "")

	client := sendgrid.NewSendClient(s.Mail.SendgridKey)
	resp, err := client.Send(message)
	if err != nil {
		logger.Log.Warn("Welcome email failed", zap.String("email", user.Email), zap.Error(err))
		return
	}
	if resp.StatusCode >= 400 {
		logger.Log.Warn("Welcome email rejected",
			zap.String("email", user.Email), zap.Int("status", resp.StatusCode))
	}
}
