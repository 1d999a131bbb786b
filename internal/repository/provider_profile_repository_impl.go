package repository

import (
	"errors"

	"telemed-appointments/internal/domain/entity"
	domainRepo "telemed-appointments/internal/domain/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type providerProfileRepository struct{}

func NewProviderProfileRepository() domainRepo.ProviderProfileRepository {
	return &providerProfileRepository{}
}

func (r *providerProfileRepository) Create(db *gorm.DB, profile *entity.ProviderProfile) error {
	return db.Create(profile).Error
}

func (r *providerProfileRepository) FindByUserID(db *gorm.DB, userID uuid.UUID) (*entity.ProviderProfile, error) {
	var profile entity.ProviderProfile
	err := db.Preload("User").Where("user_id = ?", userID).First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &profile, nil
}

func (r *providerProfileRepository) FindAll(db *gorm.DB) ([]entity.ProviderProfile, error) {
	var profiles []entity.ProviderProfile
	err := db.Preload("User").Find(&profiles).Error
	if err != nil {
		return nil, err
	}
	return profiles, nil
}

func (r *providerProfileRepository) Update(db *gorm.DB, profile *entity.ProviderProfile) error {
	return db.Save(profile).Error
}
