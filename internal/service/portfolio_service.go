package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignatzorin/freelance-escrow/internal/models"
	"github.com/ignatzorin/freelance-escrow/internal/repository"
	"github.com/ignatzorin/freelance-escrow/internal/validation"
)

// PortfolioService управляет портфолио фрилансеров.
type PortfolioService struct {
	repo *repository.PortfolioRepository
}

// PortfolioInput содержит данные работы портфолио.
type PortfolioInput struct {
	Title       string
	Description string
	URI         *string
	Skills      []string
}

func NewPortfolioService(repo *repository.PortfolioRepository) *PortfolioService {
	return &PortfolioService{repo: repo}
}

// Create добавляет работу в портфолио пользователя.
func (s *PortfolioService) Create(ctx context.Context, userID uuid.UUID, in PortfolioInput) (*models.PortfolioItem, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	item := &models.PortfolioItem{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		URI:         in.URI,
		Skills:      in.Skills,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// List возвращает портфолио пользователя.
func (s *PortfolioService) List(ctx context.Context, userID uuid.UUID) ([]models.PortfolioItem, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Update обновляет работу. Доступно только владельцу.
func (s *PortfolioService) Update(ctx context.Context, itemID, userID uuid.UUID, in PortfolioInput) (*models.PortfolioItem, error) {
	if err := s.validate(in); err != nil {
		return nil, err
	}

	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, ErrNotParticipant
	}

	item.Title = in.Title
	item.Description = in.Description
	item.URI = in.URI
	item.Skills = in.Skills
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete удаляет работу. Доступно только владельцу.
func (s *PortfolioService) Delete(ctx context.Context, itemID, userID uuid.UUID) error {
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		return ErrNotParticipant
	}
	return s.repo.Delete(ctx, itemID)
}

func (s *PortfolioService) validate(in PortfolioInput) error {
	if err := validation.ValidateLength("название", in.Title, 1, validation.MaxPortfolioTitleLength); err != nil {
		return fmt.Errorf("portfolio service: %w", err)
	}
	if err := validation.ValidateLength("описание", in.Description, 0, validation.MaxPortfolioDescLength); err != nil {
		return fmt.Errorf("portfolio service: %w", err)
	}
	if err := validation.ValidateSkills(in.Skills); err != nil {
		return fmt.Errorf("portfolio service: %w", err)
	}
	return nil
}
