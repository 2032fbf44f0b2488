package postgres

import (
	"context"
	"time"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
	"github.com/oksasatya/offer-marketplace/internal/domain/repository"
)

const userColumns = `id, email, password_hash, name, company, job_title, bio, avatar_url, is_verified, created_at, updated_at`

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, company, job_title, bio, avatar_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, u.Email, u.Password, u.Name, u.Company, u.JobTitle, u.Bio, u.AvatarURL)

	return mapErr("create user", row.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt))
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg string) (*entity.User, error) {
	u := &entity.User{}
	err := r.db.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.Password, &u.Name, &u.Company, &u.JobTitle, &u.Bio,
		&u.AvatarURL, &u.IsVerified, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr("get user", err)
	}
	return u, nil
}

// UpdateProfile writes the profile columns of u as they are.
func (r *UserRepository) UpdateProfile(ctx context.Context, u *entity.User) error {
	u.UpdatedAt = time.Now().UTC()

	res, err := r.db.Exec(ctx, `
		UPDATE users
		SET name = $1, company = $2, job_title = $3, bio = $4, avatar_url = $5, updated_at = $6
		WHERE id = $7
	`, u.Name, u.Company, u.JobTitle, u.Bio, u.AvatarURL, u.UpdatedAt, u.ID)
	if err != nil {
		return mapErr("update user", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.UserRepository = (*UserRepository)(nil)
