package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/offer-marketplace/internal/domain/repository"
	"github.com/oksasatya/offer-marketplace/pkg/helpers"
	"github.com/oksasatya/offer-marketplace/pkg/mailer"
	mailtpl "github.com/oksasatya/offer-marketplace/pkg/mailer/templates"
)

const defaultSessionTTL = 24 * time.Hour

// Mail controls the email side effects of the services.
type Mail struct {
	Enabled   bool
	Publisher JobPublisher
	Brand     mailtpl.Brand
}

func (m Mail) send(ctx context.Context, logger *logrus.Logger, job mailer.EmailJob) {
	if !m.Enabled || m.Publisher == nil {
		return
	}
	if err := m.Publisher.PublishJSON(ctx, job); err != nil && logger != nil {
		logger.WithError(err).WithField("template", job.Template).Warn("failed to publish email job")
	}
}

type UserService struct {
	Repo     repo.UserRepository
	JWT      *helpers.JWTManager
	Redis    *redis.Client
	Logger   *logrus.Logger
	Notifier Notifier
	Mail     Mail
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func SessionKey(userID string) string {
	return "user:session:" + userID
}

// sessionTTL keeps the session hash alive for as long as the refresh token is valid.
func (s *UserService) sessionTTL() time.Duration {
	if s.JWT != nil && s.JWT.RefreshTTL > 0 {
		return s.JWT.RefreshTTL
	}
	return defaultSessionTTL
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func NewUserService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, notifier Notifier, mail Mail) *UserService {
	return &UserService{
		Repo:     r,
		JWT:      jwt,
		Redis:    rdb,
		Logger:   logger,
		Notifier: notifier,
		Mail:     mail,
	}
}

type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	u := &entity.User{
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Password: hash,
		Name:     strings.TrimSpace(in.Name),
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	pair, err := s.tokens(u.ID, sid)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("generate tokens failed")
		}
		return TokenPair{}, err
	}

	if s.Redis != nil {
		fields := map[string]any{
			"user_id":    u.ID,
			"email":      u.Email,
			"name":       u.Name,
			"sid":        sid,
			"created_at": nowRFC3339(),
		}
		key := SessionKey(u.ID)
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, fields)
		pipe.Expire(ctx, key, s.sessionTTL())
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			// without the session hash the Auth middleware would reject the new tokens
			return TokenPair{}, rErr
		}
	}
	return pair, nil
}

func (s *UserService) tokens(userID, sid string) (TokenPair, error) {
	access, aexp, err := s.JWT.GenerateAccessToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(userID, sid)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh validates the refresh token against the current session and rotates both tokens.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, string, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, "", ErrInvalidCredentials
	}
	key := SessionKey(u.ID)
	if s.Redis != nil {
		sid, rErr := s.Redis.HGet(ctx, key, "sid").Result()
		if rErr != nil || sid != claims.SessionID {
			return TokenPair{}, "", ErrInvalidCredentials
		}
	}
	sid := uuid.NewString()
	pair, err := s.tokens(u.ID, sid)
	if err != nil {
		return TokenPair{}, "", err
	}
	if s.Redis != nil {
		pipe := s.Redis.Pipeline()
		pipe.HSet(ctx, key, map[string]any{
			"sid":        sid,
			"updated_at": nowRFC3339(),
		})
		pipe.Expire(ctx, key, s.sessionTTL())
		if _, rErr := pipe.Exec(ctx); rErr != nil {
			return TokenPair{}, "", rErr
		}
	}
	return pair, u.ID, nil
}

// Logout drops the session so outstanding tokens stop working.
func (s *UserService) Logout(ctx context.Context, userID string) error {
	if s.Redis == nil || userID == "" {
		return nil
	}
	return helpers.RedisDel(ctx, s.Redis, SessionKey(userID))
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile writes the present patch fields verbatim. Cache, realtime and email side effects
// are best effort and never fail the update.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, patch entity.ProfilePatch) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	changed := patch.Apply(u)
	if err := s.Repo.UpdateProfile(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if s.Redis != nil {
		key := SessionKey(u.ID)
		// HSET on a missing key would create a session without expiry
		if n, eErr := s.Redis.Exists(ctx, key).Result(); eErr == nil && n > 0 {
			if hErr := s.Redis.HSet(ctx, key, "name", u.Name, "updated_at", nowRFC3339()).Err(); hErr != nil && s.Logger != nil {
				s.Logger.WithError(hErr).WithField("key", key).Warn("session refresh failed")
			}
		}
	}

	if len(changed) > 0 {
		if s.Notifier != nil {
			n := entity.Notification{
				Type:      entity.NotificationProfileUpdated,
				Data:      map[string]any{"changed": changed},
				CreatedAt: time.Now().UTC(),
			}
			if nErr := s.Notifier.Notify(ctx, u.ID, n); nErr != nil && s.Logger != nil {
				s.Logger.WithError(nErr).WithField("user_id", u.ID).Warn("profile notification failed")
			}
		}
		s.Mail.send(ctx, s.Logger, mailer.EmailJob{
			To:       u.Email,
			Template: mailtpl.ProfileUpdated,
			Data:     mailtpl.NewData(s.Mail.Brand, u.Name, u.Email, mailtpl.WithTime(time.Now()), mailtpl.WithChanges(changed)),
		})
	}
	return u, nil
}
