package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
)

// DefaultContractStep is the record inserted by cmd/seed.
var DefaultContractStep = entity.ContractStep{
	Title:       "Proposal",
	Description: "The provider sends a proposal describing scope, price and delivery date.",
	Position:    1,
}

// SeedContractStep upserts step by title and returns its id.
func SeedContractStep(ctx context.Context, db *sql.DB, step entity.ContractStep) (string, error) {
	var id string
	err := db.QueryRowContext(ctx, `
		INSERT INTO contract_steps (title, description, position)
		VALUES ($1, $2, $3)
		ON CONFLICT (title) DO UPDATE SET description = EXCLUDED.description, position = EXCLUDED.position
		RETURNING id
	`, step.Title, step.Description, step.Position).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("seed contract step: %w", err)
	}
	return id, nil
}
