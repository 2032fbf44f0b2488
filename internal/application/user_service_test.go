package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
	"github.com/oksasatya/offer-marketplace/pkg/helpers"
	"github.com/oksasatya/offer-marketplace/pkg/mailer"
	mailtpl "github.com/oksasatya/offer-marketplace/pkg/mailer/templates"
)

func strp(s string) *string { return &s }

func newTestUserService(users *memUsers) (*UserService, *recordingNotifier, *recordingPublisher) {
	n := &recordingNotifier{}
	p := &recordingPublisher{}
	jwt := helpers.NewJWTManager("access", "refresh", time.Minute, time.Hour)
	svc := NewUserService(users, jwt, nil, nil, n, Mail{Enabled: true, Publisher: p, Brand: mailtpl.Brand{AppName: "Market"}})
	return svc, n, p
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestUserService(newMemUsers())
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Email: " Ana@Example.com ", Password: "secret123", Name: "Ana"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.NotEqual(t, "secret123", u.Password)

	_, err = svc.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "x", Name: "Other"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, pair, err := svc.Login(ctx, "ANA@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.NotEmpty(t, pair.AccessToken)

	claims, err := svc.JWT.ParseAccessToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.UserID)
	assert.NotEmpty(t, claims.SessionID)

	_, _, err = svc.Login(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRefreshRotatesSession(t *testing.T) {
	svc, _, _ := newTestUserService(newMemUsers())
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.c", Password: "secret123", Name: "A"})
	require.NoError(t, err)
	_, pair, err := svc.Login(ctx, "a@b.c", "secret123")
	require.NoError(t, err)

	next, uid, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, uid)

	oldClaims, _ := svc.JWT.ParseRefreshToken(pair.RefreshToken)
	newClaims, err := svc.JWT.ParseRefreshToken(next.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, oldClaims.SessionID, newClaims.SessionID)

	_, _, err = svc.Refresh(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestUpdateProfile_AppliesOnlyPresentFields(t *testing.T) {
	users := newMemUsers(&entity.User{ID: "u1", Email: "a@b.c", Name: "Ana", Company: "Acme", JobTitle: "Dev", Bio: "old"})
	svc, notifier, pub := newTestUserService(users)

	u, err := svc.UpdateProfile(context.Background(), "u1", entity.ProfilePatch{
		Company:  strp(""),
		JobTitle: strp("CTO"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "", u.Company)
	assert.Equal(t, "CTO", u.JobTitle)
	assert.Equal(t, "old", u.Bio)

	stored, _ := users.GetByID(context.Background(), "u1")
	assert.Equal(t, "CTO", stored.JobTitle)

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, "u1", notifier.sent[0].UserID)
	assert.Equal(t, entity.NotificationProfileUpdated, notifier.sent[0].N.Type)

	require.Len(t, pub.jobs, 1)
	job := pub.jobs[0].(mailer.EmailJob)
	assert.Equal(t, mailtpl.ProfileUpdated, job.Template)
	assert.Equal(t, "a@b.c", job.To)
}

func TestUpdateProfile_NoChangesSkipsSideEffects(t *testing.T) {
	users := newMemUsers(&entity.User{ID: "u1", Email: "a@b.c", Name: "Ana"})
	svc, notifier, pub := newTestUserService(users)

	_, err := svc.UpdateProfile(context.Background(), "u1", entity.ProfilePatch{Name: strp("Ana")})
	require.NoError(t, err)
	assert.Empty(t, notifier.sent)
	assert.Empty(t, pub.jobs)
}

func TestUpdateProfile_StoreFailureIsReturned(t *testing.T) {
	users := newMemUsers(&entity.User{ID: "u1", Email: "a@b.c"})
	users.updateErr = errors.New("conn reset")
	svc, notifier, _ := newTestUserService(users)

	_, err := svc.UpdateProfile(context.Background(), "u1", entity.ProfilePatch{Bio: strp("x")})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
	assert.Empty(t, notifier.sent)
}

func TestUpdateProfile_SideEffectFailuresDoNotFail(t *testing.T) {
	users := newMemUsers(&entity.User{ID: "u1", Email: "a@b.c"})
	svc, notifier, pub := newTestUserService(users)
	notifier.err = errors.New("hub down")
	pub.err = errors.New("broker down")

	u, err := svc.UpdateProfile(context.Background(), "u1", entity.ProfilePatch{Bio: strp("new")})
	require.NoError(t, err)
	assert.Equal(t, "new", u.Bio)
}

func TestUpdateProfile_UnknownUser(t *testing.T) {
	svc, _, _ := newTestUserService(newMemUsers())
	_, err := svc.UpdateProfile(context.Background(), "ghost", entity.ProfilePatch{Bio: strp("x")})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestMailDisabledPublishesNothing(t *testing.T) {
	users := newMemUsers(&entity.User{ID: "u1", Email: "a@b.c"})
	svc, _, pub := newTestUserService(users)
	svc.Mail.Enabled = false

	_, err := svc.UpdateProfile(context.Background(), "u1", entity.ProfilePatch{Bio: strp("x")})
	require.NoError(t, err)
	assert.Empty(t, pub.jobs)
}

func TestGetProfile_DistinguishesMissingFromFailure(t *testing.T) {
	users := newMemUsers(&entity.User{ID: "u1", Name: "Ana"})
	svc, _, _ := newTestUserService(users)
	ctx := context.Background()

	u, err := svc.GetProfile(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)

	_, err = svc.GetProfile(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)

	users.getErr = errors.New("connection refused")
	_, err = svc.GetProfile(ctx, "u1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
}
