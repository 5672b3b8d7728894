package services

import (
	"context"
	"errors"
	"fmt"

	"hotel-sync/models"

	"gorm.io/gorm"
)

type RoomTypeService struct {
	DB *gorm.DB
}

func NewRoomTypeService(db *gorm.DB) *RoomTypeService {
	return &RoomTypeService{DB: db}
}

func (s *RoomTypeService) GetAll(ctx context.Context) ([]models.RoomType, error) {
	var types []models.RoomType
	err := s.DB.WithContext(ctx).Order("id").Find(&types).Error
	return types, err
}

func (s *RoomTypeService) GetByID(ctx context.Context, id uint) (models.RoomType, error) {
	var rt models.RoomType
	err := s.DB.WithContext(ctx).First(&rt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return rt, fmt.Errorf("%w: room type %d", ErrNotFound, id)
	}
	return rt, err
}
