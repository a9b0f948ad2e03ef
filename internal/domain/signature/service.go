package signature

import (
	"context"
	"errors"
	"fmt"

	"github.com/madjik/clinic/internal/platform/db"
)

type Service struct {
	tx   Transactor
	repo Repository
}

func NewService(tx Transactor, repo Repository) *Service {
	return &Service{tx: tx, repo: repo}
}

// Get returns the stored info, or an all-empty Info when none has been saved.
func (s *Service) Get(ctx context.Context) (*Info, error) {
	info, err := s.repo.Get(ctx)
	if errors.Is(err, db.ErrNotFound) {
		return &Info{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get signature: %w", err)
	}
	return info, nil
}

// Update replaces the stored info atomically.
func (s *Service) Update(ctx context.Context, info Info) error {
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Upsert(ctx, info)
	})
	if err != nil {
		return fmt.Errorf("update signature: %w", err)
	}
	return nil
}
