package category

import (
	"context"
	"errors"
	"strings"

	"aquashop/internal/domain"
	"aquashop/internal/repository/category"
)

type Service struct {
	repo category.Repository
}

func New(repo category.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx)
}

// Upsert creates or updates a category by key.
func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	c.Key = strings.TrimSpace(c.Key)
	if c.Key == "" {
		return nil, errors.New("category key required")
	}
	if strings.TrimSpace(c.Name) == "" {
		c.Name = c.Key
	}
	return s.repo.Upsert(ctx, c)
}
