package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"restaurant_pos_backend/internal/models"
	"restaurant_pos_backend/internal/repositories"
	"restaurant_pos_backend/pkg/utils"
)

const defaultRestaurantName = "Restaurant POS"

var settingKeyPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,99}$`)

// SettingService manages the key/value application settings, among them the
// header and footer printed on receipts.
type SettingService interface {
	GetSettings(ctx context.Context) ([]models.ApplicationSetting, error)
	GetSetting(ctx context.Context, key string) (*models.ApplicationSetting, error)
	UpsertSetting(ctx context.Context, key string, req models.UpsertSettingRequest) (*models.ApplicationSetting, error)
	DeleteSetting(ctx context.Context, key string) error
	ReceiptHeader(ctx context.Context) models.ReceiptHeader
}

type settingService struct {
	uow         repositories.UnitOfWork
	settingRepo repositories.SettingRepository
}

// NewSettingService creates a new instance of SettingService.
func NewSettingService(uow repositories.UnitOfWork, sr repositories.SettingRepository) SettingService {
	return &settingService{uow: uow, settingRepo: sr}
}

func (s *settingService) GetSettings(ctx context.Context) ([]models.ApplicationSetting, error) {
	settings, err := s.settingRepo.GetSettings(ctx)
	if err != nil {
		return nil, internalError("listing settings", err)
	}
	return settings, nil
}

func (s *settingService) GetSetting(ctx context.Context, key string) (*models.ApplicationSetting, error) {
	setting, err := s.settingRepo.GetSetting(ctx, key)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: setting %s", ErrNotFound, key)
		}
		return nil, internalError("getting setting", err)
	}
	return setting, nil
}

func (s *settingService) UpsertSetting(ctx context.Context, key string, req models.UpsertSettingRequest) (*models.ApplicationSetting, error) {
	if !settingKeyPattern.MatchString(key) {
		return nil, newValidationError(map[string]string{"setting_key": "must be lower_snake_case"})
	}
	setting := &models.ApplicationSetting{SettingKey: key, SettingValue: req.SettingValue, Description: req.Description}
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.settingRepo.UpsertSetting(ctx, exec, setting)
	})
	if err != nil {
		return nil, internalError("saving setting", err)
	}
	utils.LogInfo("Setting saved", map[string]interface{}{"setting_key": key})
	return setting, nil
}

func (s *settingService) DeleteSetting(ctx context.Context, key string) error {
	err := s.uow.Do(ctx, func(exec repositories.SQLExecutor) error {
		return s.settingRepo.DeleteSetting(ctx, exec, key)
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: setting %s", ErrNotFound, key)
		}
		return internalError("deleting setting", err)
	}
	return nil
}

// ReceiptHeader reads the receipt settings. Missing settings fall back to
// defaults so a receipt can always be printed.
func (s *settingService) ReceiptHeader(ctx context.Context) models.ReceiptHeader {
	header := models.ReceiptHeader{RestaurantName: defaultRestaurantName}
	settings, err := s.settingRepo.GetSettings(ctx)
	if err != nil {
		utils.LogWarn(err, "Failed to load receipt settings, using defaults")
		return header
	}
	for _, setting := range settings {
		value := utils.DerefString(setting.SettingValue)
		if utils.IsEmpty(value) {
			continue
		}
		switch setting.SettingKey {
		case models.SettingRestaurantName:
			header.RestaurantName = value
		case models.SettingRestaurantAddress:
			header.RestaurantAddress = value
		case models.SettingReceiptFooter:
			header.Footer = value
		}
	}
	return header
}
