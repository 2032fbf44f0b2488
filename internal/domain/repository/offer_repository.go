package repository

import (
	"context"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
)

// OfferRepository persists offers.
type OfferRepository interface {
	Create(ctx context.Context, o *entity.Offer) error
	GetByID(ctx context.Context, id string) (*entity.Offer, error)
	List(ctx context.Context, f entity.OfferFilter) ([]entity.Offer, error)
	Update(ctx context.Context, o *entity.Offer) error
	Delete(ctx context.Context, id string) error
	CountByAuthor(ctx context.Context, authorID string) (int64, error)
}

// ContractStepRepository reads the contract workflow steps.
type ContractStepRepository interface {
	List(ctx context.Context) ([]entity.ContractStep, error)
}
