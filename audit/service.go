// audit/service.go
package audit

import (
	"context"
	"time"
)

type Service interface {
	LogOperation(ctx context.Context, record Record) error
	QueryOperations(ctx context.Context, from, to time.Time, operator, operationType string) ([]Record, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) LogOperation(ctx context.Context, record Record) error {
	return s.repo.LogOperation(ctx, record)
}

func (s *service) QueryOperations(ctx context.Context, from, to time.Time, operator, operationType string) ([]Record, error) {
	return s.repo.QueryOperations(ctx, from, to, operator, operationType)
}
