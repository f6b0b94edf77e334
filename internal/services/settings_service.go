package services

import (
	"context"
	"fmt"
	"strings"

	"ledger/internal/core"
	"ledger/internal/storage"
)

type SettingsService struct {
	storage *storage.SQLiteRepository
}

func NewSettingsService(storage *storage.SQLiteRepository) *SettingsService {
	return &SettingsService{storage: storage}
}

func (s *SettingsService) GetSettings(ctx context.Context, userID int64) (core.Setting, error) {
	return s.storage.GetSetting(ctx, userID)
}

func (s *SettingsService) UpdateCurrency(ctx context.Context, userID int64, currency string) (core.Setting, error) {
	code, err := NormalizeCurrency(currency)
	if err != nil {
		return core.Setting{}, err
	}
	set, err := s.storage.UpsertCurrency(ctx, userID, code)
	if err != nil {
		return core.Setting{}, fmt.Errorf("update currency: %w", err)
	}
	return set, nil
}

// NormalizeCurrency accepts three ASCII letters and returns them upper-cased.
func NormalizeCurrency(code string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 3 {
		return "", core.ErrInvalidCurrency
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", core.ErrInvalidCurrency
		}
	}
	return code, nil
}
