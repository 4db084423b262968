// audit/service.go
package audit

import (
	"context"
	"time"
)

type Service interface {
	LogAction(ctx context.Context, record Record) error
	QueryActions(ctx context.Context, from, to time.Time, userID string) ([]Record, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) LogAction(ctx context.Context, record Record) error {
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	return s.repo.Append(ctx, record)
}

func (s *service) QueryActions(ctx context.Context, from, to time.Time, userID string) ([]Record, error) {
	return s.repo.Query(ctx, from, to, userID)
}
