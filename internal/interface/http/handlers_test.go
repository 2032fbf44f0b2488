package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/offer-marketplace/internal/application"
	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/offer-marketplace/internal/domain/repository"
	"github.com/oksasatya/offer-marketplace/internal/interface/middleware"
	"github.com/oksasatya/offer-marketplace/internal/realtime"
	"github.com/oksasatya/offer-marketplace/pkg/helpers"
	"github.com/oksasatya/offer-marketplace/pkg/validation"
)

// ---- fakes ----

type fakeUsers struct {
	mu        sync.Mutex
	byID      map[string]entity.User
	getErr    error
	updateErr error
}

func (f *fakeUsers) Create(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	f.byID[u.ID] = *u
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *entity.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.byID[u.ID] = *u
	return nil
}

type fakeOffers struct {
	mu   sync.Mutex
	byID map[string]entity.Offer
}

func (f *fakeOffers) Create(_ context.Context, o *entity.Offer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o.ID = uuid.NewString()
	o.CreatedAt = time.Now()
	f.byID[o.ID] = *o
	return nil
}

func (f *fakeOffers) GetByID(_ context.Context, id string) (*entity.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	return &o, nil
}

func (f *fakeOffers) List(_ context.Context, flt entity.OfferFilter) ([]entity.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []entity.Offer
	for _, o := range f.byID {
		if flt.Category == "" || o.Category == flt.Category {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeOffers) Update(_ context.Context, o *entity.Offer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[o.ID] = *o
	return nil
}

func (f *fakeOffers) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeOffers) CountByAuthor(_ context.Context, authorID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, o := range f.byID {
		if o.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

type fakeSteps struct{ err error }

func (f fakeSteps) List(context.Context) ([]entity.ContractStep, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []entity.ContractStep{{ID: "s1", Title: "Proposal", Position: 1}}, nil
}

type fakeImages struct{}

func (fakeImages) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	_, err := io.Copy(io.Discard, r)
	return "https://storage.test/" + objectPath, err
}

type improver func(ctx context.Context, text string) (string, error)

func (f improver) Improve(ctx context.Context, text string) (string, error) { return f(ctx, text) }

// ---- setup ----

type testEnv struct {
	router *gin.Engine
	jwt    *helpers.JWTManager
	users  *fakeUsers
	offers *fakeOffers
	adcopy *application.AdCopyService
	hub    *realtime.Hub
	checks *[]Check
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	jwt := helpers.NewJWTManager("a-secret", "r-secret", time.Minute, time.Hour)
	users := &fakeUsers{byID: map[string]entity.User{
		"u1": {ID: "u1", Email: "ana@example.com", Name: "Ana", Company: "Acme", JobTitle: "Dev", Bio: "hello"},
	}}
	offers := &fakeOffers{byID: map[string]entity.Offer{}}
	hub := realtime.NewHub(realtime.Options{})

	userSvc := application.NewUserService(users, jwt, nil, nil, hub, application.Mail{})
	offerSvc := &application.OfferService{Offers: offers, Users: users, Images: fakeImages{}, Notifier: hub}
	adSvc := &application.AdCopyService{}
	stepSvc := &application.ContractStepService{Repo: fakeSteps{}}

	uh := NewUserHandler(userSvc, nil, "", false)
	oh := NewOfferHandler(offerSvc, nil)
	rh := NewRealtimeHandler(hub, nil)
	ah := NewAdCopyHandler(adSvc, nil)
	ch := NewContractStepHandler(stepSvc, nil)
	hh := &HealthHandler{}

	r := gin.New()
	r.GET("/healthz", hh.Live)
	r.GET("/readyz", hh.Ready)
	api := r.Group("/api")
	api.POST("/register", uh.Register)
	api.POST("/login", uh.Login)
	api.POST("/refresh", uh.Refresh)
	api.GET("/offers", oh.List)
	api.GET("/offers/search", oh.Search)
	api.GET("/offers/:id", oh.Get)
	api.GET("/socket-status", rh.Status)
	api.POST("/improve-ad", ah.Improve)
	api.GET("/contract-steps", ch.List)

	auth := api.Group("/")
	auth.Use(middleware.Auth(nil, jwt))
	auth.POST("/logout", uh.Logout)
	auth.GET("/profile", uh.GetProfile)
	auth.PUT("/profile", uh.UpdateProfile)
	auth.GET("/users/can-be-provider", oh.CanBeProvider)
	auth.POST("/offers", oh.Create)
	auth.PUT("/offers/:id", oh.Update)
	auth.DELETE("/offers/:id", oh.Delete)
	auth.POST("/offers/:id/image", oh.UploadImage)

	return &testEnv{router: r, jwt: jwt, users: users, offers: offers, adcopy: adSvc, hub: hub, checks: &hh.Checks}
}

func (e *testEnv) token(t *testing.T, userID string) string {
	t.Helper()
	tok, _, err := e.jwt.GenerateAccessToken(userID, "sid-"+userID)
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: e.token(t, userID)})
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func decodeData[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &out))
	return out
}

// ---- profile ----

func TestUpdateProfile_WithoutSessionIs401(t *testing.T) {
	env := setupRouter(t)
	w := env.do(t, http.MethodPut, "/api/profile", `{"name":"X"}`, "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.False(t, decode(t, w).Success)
	assert.Equal(t, "Ana", env.users.byID["u1"].Name)
}

func TestUpdateProfile_WritesOnlyPresentFields(t *testing.T) {
	env := setupRouter(t)
	w := env.do(t, http.MethodPut, "/api/profile", `{"jobTitle":"CTO","company":""}`, "u1")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got := decodeData[map[string]any](t, w)
	assert.Equal(t, "CTO", got["jobTitle"])
	assert.Equal(t, "", got["company"])
	assert.Equal(t, "Ana", got["name"])
	assert.Equal(t, "hello", got["bio"])

	stored := env.users.byID["u1"]
	assert.Equal(t, "CTO", stored.JobTitle)
	assert.Equal(t, "", stored.Company)
}

func TestUpdateProfile_StoreFailureIs500(t *testing.T) {
	env := setupRouter(t)
	env.users.updateErr = errors.New("connection refused")

	w := env.do(t, http.MethodPut, "/api/profile", `{"bio":"new"}`, "u1")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	env500 := decode(t, w)
	assert.Equal(t, "failed to update profile", env500.Message)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestUpdateProfile_ValidationErrors(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodPut, "/api/profile", `{"name":`+`}`, "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/profile", `{"name":"`+strings.Repeat("x", 121)+`"}`, "u1")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, string(decode(t, w).Error), `"name"`)
}

func TestGetProfile(t *testing.T) {
	env := setupRouter(t)
	w := env.do(t, http.MethodGet, "/api/profile", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ana@example.com", decodeData[map[string]any](t, w)["email"])

	w = env.do(t, http.MethodGet, "/api/profile", "", "ghost")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProfile_StoreFailureIs500(t *testing.T) {
	env := setupRouter(t)
	env.users.getErr = errors.New("connection refused")

	w := env.do(t, http.MethodGet, "/api/profile", "", "u1")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

// ---- auth ----

func TestRegisterLoginRefresh(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodPost, "/api/register", `{"email":"bob@example.com","password":"secret123","name":"Bob"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "secret123")

	w = env.do(t, http.MethodPost, "/api/register", `{"email":"bob@example.com","password":"secret123","name":"Bob"}`, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPost, "/api/login", `{"email":"bob@example.com","password":"wrong-pass"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodPost, "/api/login", `{"email":"bob@example.com","password":"secret123"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	var refresh *http.Cookie
	for _, ck := range w.Result().Cookies() {
		if ck.Name == helpers.RefreshCookie {
			refresh = ck
		}
	}
	require.NotNil(t, refresh)
	assert.True(t, refresh.HttpOnly)

	req := httptest.NewRequest(http.MethodPost, "/api/refresh", nil)
	req.AddCookie(&http.Cookie{Name: helpers.RefreshCookie, Value: refresh.Value})
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/api/refresh", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutClearsCookies(t *testing.T) {
	env := setupRouter(t)
	w := env.do(t, http.MethodPost, "/api/logout", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	for _, ck := range w.Result().Cookies() {
		assert.Equal(t, "", ck.Value)
	}
}

// ---- offers & provider ----

func TestCanBeProvider_TrueIffUserHasOffer(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodGet, "/api/users/can-be-provider", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/users/can-be-provider", "", "u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeData[map[string]bool](t, w)["canBeProvider"])

	w = env.do(t, http.MethodPost, "/api/offers", `{"title":"Logo design","price":50,"category":"design"}`, "u1")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, "/api/users/can-be-provider", "", "u1")
	assert.Equal(t, true, decodeData[map[string]bool](t, w)["canBeProvider"])

	w = env.do(t, http.MethodGet, "/api/users/can-be-provider", "", "someone-else")
	assert.Equal(t, false, decodeData[map[string]bool](t, w)["canBeProvider"])
}

func TestOffers_CRUDAndOwnership(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodPost, "/api/offers", `{"title":"Site","price":-1,"category":"web"}`, "u1")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/offers", `{"title":"Site","description":"landing page","price":300,"category":"web"}`, "u1")
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeData[map[string]any](t, w)
	id := created["id"].(string)
	assert.Equal(t, "u1", created["authorId"])

	w = env.do(t, http.MethodGet, "/api/offers/"+id, "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/offers?category=web", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]map[string]any](t, w), 1)

	w = env.do(t, http.MethodPut, "/api/offers/"+id, `{"price":350}`, "intruder")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = env.do(t, http.MethodPut, "/api/offers/"+id, `{"price":350}`, "u1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 350.0, decodeData[map[string]any](t, w)["price"])

	w = env.do(t, http.MethodDelete, "/api/offers/"+id, "", "u1")
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/offers/"+id, "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestOffers_MalformedIDIs404(t *testing.T) {
	env := setupRouter(t)

	for _, tc := range []struct{ method, path, body, user string }{
		{http.MethodGet, "/api/offers/abc", "", ""},
		{http.MethodPut, "/api/offers/abc", `{"price":1}`, "u1"},
		{http.MethodDelete, "/api/offers/abc", "", "u1"},
	} {
		w := env.do(t, tc.method, tc.path, tc.body, tc.user)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.method)
		assert.Equal(t, "offer not found", decode(t, w).Message)
	}
}

func TestOffers_ListMetaAndUnknownAuthor(t *testing.T) {
	env := setupRouter(t)
	oid := uuid.NewString()
	env.offers.byID[oid] = entity.Offer{ID: oid, AuthorID: "u1", Title: "Logo"}

	w := env.do(t, http.MethodGet, "/api/offers?limit=5000&offset=-2", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Meta map[string]float64 `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, float64(entity.MaxOfferLimit), page.Meta["limit"])
	assert.Equal(t, 0.0, page.Meta["offset"])
	assert.Equal(t, 1.0, page.Meta["count"])

	w = env.do(t, http.MethodGet, "/api/offers?author=abc", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decodeData[[]map[string]any](t, w))
}

func TestOffers_SearchWithoutIndexLists(t *testing.T) {
	env := setupRouter(t)
	env.offers.byID["o1"] = entity.Offer{ID: "o1", AuthorID: "u1", Title: "Logo"}

	w := env.do(t, http.MethodGet, "/api/offers/search?q=logo", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeData[[]map[string]any](t, w), 1)
}

func multipartImage(t *testing.T, filename, contentType string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="image"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, mw.Close())
	return body, mw.FormDataContentType()
}

func TestOffers_UploadImage(t *testing.T) {
	env := setupRouter(t)
	oid := uuid.NewString()
	env.offers.byID[oid] = entity.Offer{ID: oid, AuthorID: "u1", Title: "Logo"}

	send := func(filename, contentType string) *httptest.ResponseRecorder {
		body, ct := multipartImage(t, filename, contentType)
		req := httptest.NewRequest(http.MethodPost, "/api/offers/"+oid+"/image", body)
		req.Header.Set("Content-Type", ct)
		req.AddCookie(&http.Cookie{Name: helpers.AccessCookie, Value: env.token(t, "u1")})
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		return w
	}

	w := send("notes.txt", "text/plain")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = send("logo.png", "image/png")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	img := decodeData[map[string]any](t, w)["image"].(string)
	assert.True(t, strings.HasPrefix(img, "https://storage.test/offers/"+oid+"/"))
	assert.Equal(t, img, env.offers.byID[oid].Image)
}

// ---- realtime ----

func TestSocketStatus(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodGet, "/api/socket-status", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, false, decodeData[map[string]any](t, w)["initialized"])

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = env.hub.Run(ctx) }()
	require.Eventually(t, env.hub.Running, time.Second, 5*time.Millisecond)

	w = env.do(t, http.MethodGet, "/api/socket-status", "", "")
	got := decodeData[map[string]any](t, w)
	assert.Equal(t, true, got["initialized"])
	assert.Equal(t, 0.0, got["connections"])
}

func TestSocketStatus_NilHub(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/s", NewRealtimeHandler(nil, nil).Status)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/s", nil))
	assert.Equal(t, false, decodeData[map[string]any](t, w)["initialized"])
}

// ---- ad copy ----

func TestImproveAd(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodPost, "/api/improve-ad", `{"text":"bike"}`, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	env.adcopy.Improver = improver(func(_ context.Context, text string) (string, error) {
		return "Great " + text, nil
	})

	w = env.do(t, http.MethodPost, "/api/improve-ad", `{"text":"   "}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/improve-ad", `{"text":"`+strings.Repeat("a", 5001)+`"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPost, "/api/improve-ad", `{"text":"bike"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Great bike", decodeData[map[string]string](t, w)["improvedText"])

	env.adcopy.Improver = improver(func(context.Context, string) (string, error) {
		return "", errors.New("upstream 429")
	})
	w = env.do(t, http.MethodPost, "/api/improve-ad", `{"text":"bike"}`, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to improve ad", decode(t, w).Message)
}

// ---- contract steps & health ----

func TestContractSteps(t *testing.T) {
	env := setupRouter(t)
	w := env.do(t, http.MethodGet, "/api/contract-steps", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	steps := decodeData[[]map[string]any](t, w)
	require.Len(t, steps, 1)
	assert.Equal(t, "Proposal", steps[0]["title"])
}

func TestHealth(t *testing.T) {
	env := setupRouter(t)

	w := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	*env.checks = []Check{
		{Name: "postgres", Fn: func(context.Context) error { return nil }},
		{Name: "redis", Fn: func(context.Context) error { return errors.New("dial tcp: refused") }},
	}
	w = env.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":"down"`)
	assert.Contains(t, w.Body.String(), `"postgres":"up"`)
}
