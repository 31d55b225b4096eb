package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

// ProfileService управляет публичными профилями пользователей.
type ProfileService struct {
	repo *repository.UserRepository
}

// ProfileInput содержит данные для обновления профиля.
type ProfileInput struct {
	DisplayName     string
	Bio             *string
	HourlyRate      *int64
	ExperienceLevel string
	Skills          []string
	Location        *string
	AvatarURI       *string
	Website         *string
}

func NewProfileService(repo *repository.UserRepository) *ProfileService {
	return &ProfileService{repo: repo}
}

// GetProfile возвращает профиль пользователя.
func (s *ProfileService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return s.repo.GetProfile(ctx, userID)
}

// UpdateProfile обновляет профиль пользователя.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, in ProfileInput) (*models.Profile, error) {
	if err := validation.ValidateLength("имя", in.DisplayName, 2, 100); err != nil {
		return nil, fmt.Errorf("profile service: %w", err)
	}
	if in.Bio != nil {
		if err := validation.ValidateLength("о себе", *in.Bio, 0, validation.MaxBioLength); err != nil {
			return nil, fmt.Errorf("profile service: %w", err)
		}
	}
	if err := validation.ValidateSkills(in.Skills); err != nil {
		return nil, fmt.Errorf("profile service: %w", err)
	}

	experienceLevel := in.ExperienceLevel
	if experienceLevel == "" {
		experienceLevel = "junior"
	}

	profile := &models.Profile{
		UserID:          userID,
		DisplayName:     in.DisplayName,
		Bio:             in.Bio,
		HourlyRate:      in.HourlyRate,
		ExperienceLevel: experienceLevel,
		Skills:          in.Skills,
		Location:        in.Location,
		AvatarURI:       in.AvatarURI,
		Website:         in.Website,
	}
	if err := s.repo.UpsertProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
