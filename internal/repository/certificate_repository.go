package repository

import (
	"closer_club_backend/internal/model"

	"gorm.io/gorm"
)

type CertificateRepository struct {
	DB *gorm.DB
}

func NewCertificateRepository(db *gorm.DB) *CertificateRepository {
	return &CertificateRepository{DB: db}
}

func (r *CertificateRepository) Create(cert *model.Certificate) error {
	return r.DB.Create(cert).Error
}

func (r *CertificateRepository) Find(userID, courseID uint) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.
		Where("user_id = ? AND course_id = ?", userID, courseID).
		First(&cert).Error
	return &cert, err
}

func (r *CertificateRepository) FindByPublicID(publicID string) (*model.Certificate, error) {
	var cert model.Certificate
	err := r.DB.Preload("User").Preload("Course").
		Where("public_id = ?", publicID).
		First(&cert).Error
	return &cert, err
}

func (r *CertificateRepository) ListByUser(userID uint) ([]model.Certificate, error) {
	var certs []model.Certificate
	err := r.DB.Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&certs).Error
	return certs, err
}
