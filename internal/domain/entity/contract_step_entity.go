package entity

import "time"

// ContractStep is one stage of the contract workflow between a client and a provider,
// e.g. proposal, agreement, delivery. Steps are ordered by Position.
type ContractStep struct {
	ID          string
	Title       string
	Description string
	Position    int
	CreatedAt   time.Time
}
