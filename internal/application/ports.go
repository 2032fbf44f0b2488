package application

import (
	"context"
	"errors"
	"io"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("email already registered")
	ErrOfferNotFound      = errors.New("offer not found")
	ErrForbidden          = errors.New("forbidden")
	ErrStorageUnavailable = errors.New("image storage not configured")
	ErrEmptyAdText        = errors.New("ad text is empty")
	ErrAdTextTooLong      = errors.New("ad text is too long")
	ErrAIUnavailable      = errors.New("ad improvement not configured")
)

// Notifier pushes realtime notifications to a user.
type Notifier interface {
	Notify(ctx context.Context, userID string, n entity.Notification) error
}

// JobPublisher enqueues background jobs (email).
type JobPublisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// OfferIndex keeps a searchable copy of offers.
type OfferIndex interface {
	Index(ctx context.Context, o entity.Offer) error
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, q string, size int) ([]entity.Offer, error)
}

// ImageStore uploads binary objects and returns their public URL.
type ImageStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

// AdImprover rewrites ad copy.
type AdImprover interface {
	Improve(ctx context.Context, text string) (string, error)
}

var errEmptyCompletion = errors.New("model returned no text")
