package usecase

import (
	"context"
	"errors"

	"telemed-appointments/internal/converter"
	"telemed-appointments/internal/delivery/dto"
	"telemed-appointments/internal/delivery/http/middleware"
	"telemed-appointments/internal/domain/entity"
	"telemed-appointments/internal/domain/repository"
	"telemed-appointments/internal/service"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var ErrProviderNotFound = errors.New("provider not found")

type ProviderProfileUsecase interface {
	GetProvider(ctx context.Context, providerID uuid.UUID) (*dto.ProviderProfileResponse, error)
	GetDirectory(ctx context.Context) (*dto.ProviderListResponse, error)
	GetAllProviders(ctx context.Context) (*dto.ProviderListResponse, error)
	UpdateSelfProfile(ctx context.Context, req *dto.UpdateProviderProfileRequest) (*dto.ProviderProfileResponse, error)
	ApproveProvider(ctx context.Context, providerID uuid.UUID, req *dto.ApproveProviderRequest) (*dto.ProviderProfileResponse, error)
}

type providerProfileUsecase struct {
	db                  *gorm.DB
	log                 *logrus.Logger
	providerProfileRepo repository.ProviderProfileRepository
	auditService        service.AuditService
}

func NewProviderProfileUsecase(
	db *gorm.DB,
	log *logrus.Logger,
	providerProfileRepo repository.ProviderProfileRepository,
	auditService service.AuditService,
) ProviderProfileUsecase {
	return &providerProfileUsecase{
		db:                  db,
		log:                 log,
		providerProfileRepo: providerProfileRepo,
		auditService:        auditService,
	}
}

func (u *providerProfileUsecase) GetProvider(ctx context.Context, providerID uuid.UUID) (*dto.ProviderProfileResponse, error) {
	profile, err := u.providerProfileRepo.FindByUserID(u.db.WithContext(ctx), providerID)
	if err != nil {
		u.log.Warnf("Failed to find provider profile: %+v", err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrProviderNotFound
	}

	return converter.ProviderProfileToResponse(profile), nil
}

// GetDirectory lists bookable providers only: approved profiles with an
// active account. This is the patient-facing view.
func (u *providerProfileUsecase) GetDirectory(ctx context.Context) (*dto.ProviderListResponse, error) {
	profiles, err := u.providerProfileRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find provider profiles: %+v", err)
		return nil, err
	}

	bookable := make([]entity.ProviderProfile, 0, len(profiles))
	for _, profile := range profiles {
		if profile.IsBookable() {
			bookable = append(bookable, profile)
		}
	}

	providers := converter.ProviderProfilesToResponses(bookable)

	return &dto.ProviderListResponse{
		Providers: providers,
		Total:     len(providers),
	}, nil
}

// GetAllProviders lists every provider regardless of approval, for admins
func (u *providerProfileUsecase) GetAllProviders(ctx context.Context) (*dto.ProviderListResponse, error) {
	profiles, err := u.providerProfileRepo.FindAll(u.db.WithContext(ctx))
	if err != nil {
		u.log.Warnf("Failed to find provider profiles: %+v", err)
		return nil, err
	}

	providers := converter.ProviderProfilesToResponses(profiles)

	return &dto.ProviderListResponse{
		Providers: providers,
		Total:     len(providers),
	}, nil
}

func (u *providerProfileUsecase) UpdateSelfProfile(ctx context.Context, req *dto.UpdateProviderProfileRequest) (*dto.ProviderProfileResponse, error) {
	userID, ok := middleware.GetUserIDFromContext(ctx)
	if !ok {
		return nil, errors.New("user not found in context")
	}

	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	profile, err := u.providerProfileRepo.FindByUserID(tx, userID)
	if err != nil {
		u.log.Warnf("Failed to find provider profile: %+v", err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrProviderNotFound
	}

	// Capture old value for audit
	oldValue := converter.ProviderProfileToResponse(profile)

	updated := false
	if req.Specialization != "" {
		profile.Specialization = req.Specialization
		updated = true
	}
	if req.Biography != "" {
		profile.Biography = req.Biography
		updated = true
	}
	if req.ConsultationFee > 0 {
		profile.ConsultationFee = req.ConsultationFee
		updated = true
	}
	if req.ConsultationFeeCurrency != "" {
		profile.ConsultationFeeCurr = req.ConsultationFeeCurrency
		updated = true
	}

	if !updated {
		return converter.ProviderProfileToResponse(profile), nil
	}

	if err := u.providerProfileRepo.Update(tx, profile); err != nil {
		u.log.Warnf("Failed to update provider profile: %+v", err)
		return nil, err
	}

	newValue := converter.ProviderProfileToResponse(profile)
	if err := u.auditService.LogUpdate(ctx, tx, &userID, entity.AuditActionProviderUpdate, "provider_profile", userID.String(), oldValue, newValue); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	return converter.ProviderProfileToResponse(profile), nil
}

// ApproveProvider sets or revokes a provider's approval. Admin only,
// enforced at the router.
func (u *providerProfileUsecase) ApproveProvider(ctx context.Context, providerID uuid.UUID, req *dto.ApproveProviderRequest) (*dto.ProviderProfileResponse, error) {
	tx := u.db.WithContext(ctx).Begin()
	defer tx.Rollback()

	profile, err := u.providerProfileRepo.FindByUserID(tx, providerID)
	if err != nil {
		u.log.Warnf("Failed to find provider profile: %+v", err)
		return nil, err
	}
	if profile == nil {
		return nil, ErrProviderNotFound
	}

	oldValue := converter.ProviderProfileToResponse(profile)

	profile.IsApproved = req.Approved
	if err := u.providerProfileRepo.Update(tx, profile); err != nil {
		u.log.Warnf("Failed to update provider profile: %+v", err)
		return nil, err
	}

	newValue := converter.ProviderProfileToResponse(profile)
	ctxUserID, _ := middleware.GetUserIDFromContext(ctx)
	if err := u.auditService.LogUpdate(ctx, tx, &ctxUserID, entity.AuditActionProviderApprove, "provider_profile", providerID.String(), oldValue, newValue); err != nil {
		u.log.Warnf("Failed to create audit log: %+v", err)
	}

	if err := tx.Commit().Error; err != nil {
		u.log.Warnf("Failed commit transaction: %+v", err)
		return nil, err
	}

	u.log.Infof("Provider %s approval set to %t", providerID, req.Approved)
	return converter.ProviderProfileToResponse(profile), nil
}
