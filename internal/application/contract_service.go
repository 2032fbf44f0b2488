package application

import (
	"context"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/offer-marketplace/internal/domain/repository"
)

type ContractStepService struct {
	Repo repo.ContractStepRepository
}

func (s *ContractStepService) List(ctx context.Context) ([]entity.ContractStep, error) {
	steps, err := s.Repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if steps == nil {
		steps = []entity.ContractStep{}
	}
	return steps, nil
}
