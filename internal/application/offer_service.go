package application

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/offer-marketplace/internal/domain/repository"
	"github.com/oksasatya/offer-marketplace/pkg/helpers"
	"github.com/oksasatya/offer-marketplace/pkg/mailer"
	mailtpl "github.com/oksasatya/offer-marketplace/pkg/mailer/templates"
)

const providerCacheTTL = 5 * time.Minute

func ProviderKey(userID string) string {
	return "user:provider:" + userID
}

// providerGenKey is bumped on every invalidation so an in-flight count can tell it raced one.
func providerGenKey(userID string) string {
	return "user:provider:gen:" + userID
}

type OfferService struct {
	Offers   repo.OfferRepository
	Users    repo.UserRepository
	Redis    *redis.Client
	Logger   *logrus.Logger
	Index    OfferIndex
	Images   ImageStore
	Notifier Notifier
	Mail     Mail
}

type OfferInput struct {
	Title       string
	Description string
	Price       float64
	Category    string
}

func (s *OfferService) warn(err error, msg string, fields logrus.Fields) {
	if s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithFields(fields).Warn(msg)
}

func (s *OfferService) Create(ctx context.Context, authorID string, in OfferInput) (*entity.Offer, error) {
	o := &entity.Offer{
		AuthorID:    authorID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Category:    strings.TrimSpace(in.Category),
	}
	if err := s.Offers.Create(ctx, o); err != nil {
		return nil, err
	}
	s.invalidateProvider(ctx, authorID)
	s.index(ctx, *o)
	s.published(ctx, o)
	return o, nil
}

func (s *OfferService) Get(ctx context.Context, id string) (*entity.Offer, error) {
	o, err := s.Offers.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	return o, nil
}

func (s *OfferService) List(ctx context.Context, f entity.OfferFilter) ([]entity.Offer, error) {
	return s.Offers.List(ctx, f)
}

// owned loads the offer and checks that userID wrote it.
func (s *OfferService) owned(ctx context.Context, userID, offerID string) (*entity.Offer, error) {
	o, err := s.Get(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if o.AuthorID != userID {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *OfferService) Update(ctx context.Context, userID, offerID string, patch entity.OfferPatch) (*entity.Offer, error) {
	o, err := s.owned(ctx, userID, offerID)
	if err != nil {
		return nil, err
	}
	patch.Apply(o)
	if err := s.Offers.Update(ctx, o); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	s.index(ctx, *o)
	return o, nil
}

func (s *OfferService) Delete(ctx context.Context, userID, offerID string) error {
	if _, err := s.owned(ctx, userID, offerID); err != nil {
		return err
	}
	if err := s.Offers.Delete(ctx, offerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrOfferNotFound
		}
		return err
	}
	s.invalidateProvider(ctx, userID)
	if s.Index != nil {
		if err := s.Index.Delete(ctx, offerID); err != nil {
			s.warn(err, "offer unindex failed", logrus.Fields{"offer_id": offerID})
		}
	}
	return nil
}

// UploadImage stores the image and points the offer at its public URL.
func (s *OfferService) UploadImage(ctx context.Context, userID, offerID, filename, contentType string, r io.Reader) (*entity.Offer, error) {
	if s.Images == nil {
		return nil, ErrStorageUnavailable
	}
	o, err := s.owned(ctx, userID, offerID)
	if err != nil {
		return nil, err
	}
	url, err := s.Images.Upload(ctx, helpers.OfferImagePath(o.ID, filename), contentType, r)
	if err != nil {
		return nil, err
	}
	o.Image = url
	if err := s.Offers.Update(ctx, o); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrOfferNotFound
		}
		return nil, err
	}
	s.index(ctx, *o)
	return o, nil
}

// Search goes to Elasticsearch when configured and falls back to a plain listing otherwise.
func (s *OfferService) Search(ctx context.Context, q string, size int) ([]entity.Offer, error) {
	if size <= 0 || size > 100 {
		size = 20
	}
	q = strings.TrimSpace(q)
	if s.Index == nil || q == "" {
		return s.Offers.List(ctx, entity.OfferFilter{Limit: size})
	}
	return s.Index.Search(ctx, q, size)
}

// CanBeProvider reports whether the user has authored at least one offer.
// Results are cached unless an invalidation ran while the count was in flight.
func (s *OfferService) CanBeProvider(ctx context.Context, userID string) (bool, error) {
	if s.Redis == nil {
		return s.hasOffers(ctx, userID)
	}
	key := ProviderKey(userID)
	var cached bool
	hit, err := helpers.RedisGetJSON(ctx, s.Redis, key, &cached)
	if err != nil {
		s.warn(err, "provider cache read failed", logrus.Fields{"key": key})
	} else if hit {
		return cached, nil
	}

	var (
		ok       bool
		counted  bool
		countErr error
	)
	err = s.Redis.Watch(ctx, func(tx *redis.Tx) error {
		ok, countErr = s.hasOffers(ctx, userID)
		counted = true
		if countErr != nil {
			return nil
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			return helpers.RedisSetJSON(ctx, pipe, key, ok, providerCacheTTL)
		})
		return err
	}, providerGenKey(userID))
	if !counted {
		s.warn(err, "provider cache unavailable", logrus.Fields{"key": key})
		return s.hasOffers(ctx, userID)
	}
	if countErr != nil {
		return false, countErr
	}
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		s.warn(err, "provider cache write failed", logrus.Fields{"key": key})
	}
	return ok, nil
}

func (s *OfferService) hasOffers(ctx context.Context, userID string) (bool, error) {
	n, err := s.Offers.CountByAuthor(ctx, userID)
	if err != nil {
		return false, err
	}
	return n >= 1, nil
}

func (s *OfferService) invalidateProvider(ctx context.Context, userID string) {
	if s.Redis == nil {
		return
	}
	gen := providerGenKey(userID)
	_, err := s.Redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, gen)
		pipe.Expire(ctx, gen, 2*providerCacheTTL)
		pipe.Del(ctx, ProviderKey(userID))
		return nil
	})
	if err != nil {
		s.warn(err, "provider cache invalidation failed", logrus.Fields{"user_id": userID})
	}
}

func (s *OfferService) index(ctx context.Context, o entity.Offer) {
	if s.Index == nil {
		return
	}
	if err := s.Index.Index(ctx, o); err != nil {
		s.warn(err, "offer index failed", logrus.Fields{"offer_id": o.ID})
	}
}

func (s *OfferService) published(ctx context.Context, o *entity.Offer) {
	if s.Notifier != nil {
		n := entity.Notification{
			Type:      entity.NotificationOfferPublished,
			Data:      map[string]any{"offerId": o.ID, "title": o.Title},
			CreatedAt: time.Now().UTC(),
		}
		if err := s.Notifier.Notify(ctx, o.AuthorID, n); err != nil {
			s.warn(err, "offer notification failed", logrus.Fields{"offer_id": o.ID})
		}
	}
	if !s.Mail.Enabled || s.Users == nil {
		return
	}
	u, err := s.Users.GetByID(ctx, o.AuthorID)
	if err != nil {
		s.warn(err, "offer author lookup failed", logrus.Fields{"offer_id": o.ID})
		return
	}
	s.Mail.send(ctx, s.Logger, mailer.EmailJob{
		To:       u.Email,
		Template: mailtpl.OfferPublished,
		Data:     mailtpl.NewData(s.Mail.Brand, u.Name, u.Email, mailtpl.WithTime(o.CreatedAt), mailtpl.WithOffer(o.ID, o.Title)),
	})
}
