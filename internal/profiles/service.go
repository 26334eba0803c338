package profiles

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stadiumcard/stadiumcard-backend/pkg/db/models"
	pkgerrors "github.com/stadiumcard/stadiumcard-backend/pkg/errors"
)

var (
	// whitespacePattern also matches U+3000, the full-width space common in
	// Japanese input.
	whitespacePattern = regexp.MustCompile(`[\s\x{3000}]+`)
	katakanaPattern   = regexp.MustCompile(`^[\x{30A0}-\x{30FF}]+$`)
)

// Service manages the profile fields this backend owns. Account identity
// lives with the auth provider; only marketplace fields are mutable here.
type Service interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
	UpdateRealNameKana(ctx context.Context, userID uuid.UUID, kana string) (string, error)
}

type service struct {
	repo Repository
}

// NewService wires a profile service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("profiles repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Get(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	profile, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "profile not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load profile")
	}
	return profile, nil
}

// UpdateRealNameKana normalizes and stores the seller's legal name in
// katakana. The stored value is what bank transfers are addressed to, so
// validation is strict: katakana only, no whitespace.
func (s *service) UpdateRealNameKana(ctx context.Context, userID uuid.UUID, kana string) (string, error) {
	if userID == uuid.Nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}

	normalized := NormalizeKana(kana)
	if normalized == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "real name kana is required")
	}
	if !katakanaPattern.MatchString(normalized) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "real name kana must be katakana only")
	}

	if err := s.repo.UpdateRealNameKana(ctx, userID, normalized); err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update real name kana")
	}
	return normalized, nil
}

// NormalizeKana strips all whitespace, including full-width spaces, from a
// kana name.
func NormalizeKana(raw string) string {
	return whitespacePattern.ReplaceAllString(raw, "")
}
