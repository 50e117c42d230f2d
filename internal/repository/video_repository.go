package repository

import (
	"closer_club_backend/internal/model"

	"gorm.io/gorm"
)

type VideoRepository struct {
	DB *gorm.DB
}

func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{DB: db}
}

func (r *VideoRepository) Create(video *model.Video) error {
	return r.DB.Create(video).Error
}

func (r *VideoRepository) FindByID(id uint) (*model.Video, error) {
	var video model.Video
	err := r.DB.First(&video, id).Error
	return &video, err
}

func (r *VideoRepository) FindByCDNVideoID(cdnID string) (*model.Video, error) {
	var video model.Video
	err := r.DB.Where("cdn_video_id = ?", cdnID).First(&video).Error
	return &video, err
}

func (r *VideoRepository) Update(video *model.Video) error {
	return r.DB.Save(video).Error
}

func (r *VideoRepository) Delete(id uint) error {
	return r.DB.Delete(&model.Video{}, id).Error
}

func (r *VideoRepository) List(offset, limit int) ([]model.Video, int64, error) {
	var total int64
	if err := r.DB.Model(&model.Video{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var videos []model.Video
	err := r.DB.Order("created_at DESC").Offset(offset).Limit(limit).Find(&videos).Error
	return videos, total, err
}
