package postgres

import (
	"context"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
	"github.com/oksasatya/offer-marketplace/internal/domain/repository"
)

type ContractStepRepository struct {
	db DBTX
}

func NewContractStepRepository(db DBTX) *ContractStepRepository {
	return &ContractStepRepository{db: db}
}

func (r *ContractStepRepository) List(ctx context.Context) ([]entity.ContractStep, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, title, description, position, created_at
		FROM contract_steps
		ORDER BY position, title
	`)
	if err != nil {
		return nil, mapErr("list contract steps", err)
	}
	defer rows.Close()

	var out []entity.ContractStep
	for rows.Next() {
		var s entity.ContractStep
		if err := rows.Scan(&s.ID, &s.Title, &s.Description, &s.Position, &s.CreatedAt); err != nil {
			return nil, mapErr("scan contract step", err)
		}
		out = append(out, s)
	}
	return out, mapErr("list contract steps", rows.Err())
}

var _ repository.ContractStepRepository = (*ContractStepRepository)(nil)
