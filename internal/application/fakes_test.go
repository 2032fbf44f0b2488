package application

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
	repo "github.com/oksasatya/offer-marketplace/internal/domain/repository"
)

type memUsers struct {
	mu        sync.Mutex
	byID      map[string]*entity.User
	getErr    error
	updateErr error
}

func newMemUsers(users ...*entity.User) *memUsers {
	m := &memUsers{byID: map[string]*entity.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return repo.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	u.CreatedAt, u.UpdatedAt = time.Now(), time.Now()
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repo.ErrNotFound
}

func (m *memUsers) UpdateProfile(_ context.Context, u *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, ok := m.byID[u.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *u
	m.byID[u.ID] = &cp
	return nil
}

type memOffers struct {
	mu       sync.Mutex
	byID     map[string]*entity.Offer
	countErr error
	counts   int
	onCount  func()
}

func newMemOffers() *memOffers { return &memOffers{byID: map[string]*entity.Offer{}} }

func (m *memOffers) Create(_ context.Context, o *entity.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o.ID = uuid.NewString()
	o.CreatedAt, o.UpdatedAt = time.Now(), time.Now()
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *memOffers) GetByID(_ context.Context, id string) (*entity.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOffers) List(_ context.Context, f entity.OfferFilter) ([]entity.Offer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []entity.Offer{}
	for _, o := range m.byID {
		if f.AuthorID != "" && o.AuthorID != f.AuthorID {
			continue
		}
		out = append(out, *o)
	}
	return out, nil
}

func (m *memOffers) Update(_ context.Context, o *entity.Offer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[o.ID]; !ok {
		return repo.ErrNotFound
	}
	cp := *o
	m.byID[o.ID] = &cp
	return nil
}

func (m *memOffers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repo.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memOffers) CountByAuthor(_ context.Context, authorID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts++
	if m.onCount != nil {
		m.onCount()
	}
	if m.countErr != nil {
		return 0, m.countErr
	}
	var n int64
	for _, o := range m.byID {
		if o.AuthorID == authorID {
			n++
		}
	}
	return n, nil
}

type sentNotification struct {
	UserID string
	N      entity.Notification
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
	err  error
}

func (r *recordingNotifier) Notify(_ context.Context, userID string, n entity.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{UserID: userID, N: n})
	return r.err
}

type recordingPublisher struct {
	mu   sync.Mutex
	jobs []any
	err  error
}

func (r *recordingPublisher) PublishJSON(_ context.Context, body any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, body)
	return r.err
}

type fakeIndex struct {
	indexed []string
	deleted []string
	result  []entity.Offer
	err     error
	lastQ   string
}

func (f *fakeIndex) Index(_ context.Context, o entity.Offer) error {
	f.indexed = append(f.indexed, o.ID)
	return f.err
}

func (f *fakeIndex) Delete(_ context.Context, id string) error {
	f.deleted = append(f.deleted, id)
	return f.err
}

func (f *fakeIndex) Search(_ context.Context, q string, _ int) ([]entity.Offer, error) {
	f.lastQ = q
	return f.result, f.err
}

type fakeImages struct {
	path     string
	body     string
	onUpload func()
}

func (f *fakeImages) Upload(_ context.Context, objectPath, _ string, r io.Reader) (string, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.path, f.body = objectPath, string(b)
	if f.onUpload != nil {
		f.onUpload()
	}
	return "https://cdn.test/" + objectPath, nil
}

type improverFunc func(ctx context.Context, text string) (string, error)

func (f improverFunc) Improve(ctx context.Context, text string) (string, error) { return f(ctx, text) }
