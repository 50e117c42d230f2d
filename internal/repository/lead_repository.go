package repository

import (
	"closer_club_backend/internal/model"

	"gorm.io/gorm"
)

type LeadRepository struct {
	DB *gorm.DB
}

func NewLeadRepository(db *gorm.DB) *LeadRepository {
	return &LeadRepository{DB: db}
}

func (r *LeadRepository) Create(lead *model.Lead) error {
	return r.DB.Create(lead).Error
}

func (r *LeadRepository) FindByID(id uint) (*model.Lead, error) {
	var lead model.Lead
	err := r.DB.First(&lead, id).Error
	return &lead, err
}

func (r *LeadRepository) FindByEmail(email string) (*model.Lead, error) {
	var lead model.Lead
	err := r.DB.Where("email = ?", email).First(&lead).Error
	return &lead, err
}

func (r *LeadRepository) Update(lead *model.Lead) error {
	return r.DB.Save(lead).Error
}

func (r *LeadRepository) List(status model.LeadStatus, offset, limit int) ([]model.Lead, int64, error) {
	query := r.DB.Model(&model.Lead{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var leads []model.Lead
	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&leads).Error
	return leads, total, err
}
