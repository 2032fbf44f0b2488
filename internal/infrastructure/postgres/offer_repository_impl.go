package postgres

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/oksasatya/offer-marketplace/internal/domain/entity"
	"github.com/oksasatya/offer-marketplace/internal/domain/repository"
)

const offerColumns = `id, author_id, title, description, price, category, image, created_at, updated_at`

type OfferRepository struct {
	db DBTX
}

func NewOfferRepository(db DBTX) *OfferRepository {
	return &OfferRepository{db: db}
}

func scanOffer(row pgx.Row) (*entity.Offer, error) {
	o := &entity.Offer{}
	if err := row.Scan(&o.ID, &o.AuthorID, &o.Title, &o.Description, &o.Price,
		&o.Category, &o.Image, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *OfferRepository) Create(ctx context.Context, o *entity.Offer) error {
	row := r.db.QueryRow(ctx, `
		INSERT INTO offers (author_id, title, description, price, category, image)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, o.AuthorID, o.Title, o.Description, o.Price, o.Category, o.Image)

	return mapErr("create offer", row.Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt))
}

func (r *OfferRepository) GetByID(ctx context.Context, id string) (*entity.Offer, error) {
	o, err := scanOffer(r.db.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
	if err != nil {
		return nil, mapErr("get offer", err)
	}
	return o, nil
}

// List returns offers newest first. Limit is clamped to [1, 100], defaulting to 20.
func (r *OfferRepository) List(ctx context.Context, f entity.OfferFilter) ([]entity.Offer, error) {
	f = f.Normalized()
	var (
		where []string
		args  []any
	)
	if f.AuthorID != "" {
		args = append(args, f.AuthorID)
		where = append(where, "author_id = $"+strconv.Itoa(len(args)))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		where = append(where, "category = $"+strconv.Itoa(len(args)))
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + offerColumns + ` FROM offers`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	args = append(args, f.Limit, f.Offset)
	b.WriteString(" ORDER BY created_at DESC, id DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args)))

	rows, err := r.db.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, mapErr("list offers", err)
	}
	defer rows.Close()

	out := make([]entity.Offer, 0, f.Limit)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, mapErr("scan offer", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, mapErr("list offers", err)
	}
	return out, nil
}

func (r *OfferRepository) Update(ctx context.Context, o *entity.Offer) error {
	o.UpdatedAt = time.Now().UTC()

	res, err := r.db.Exec(ctx, `
		UPDATE offers
		SET title = $1, description = $2, price = $3, category = $4, image = $5, updated_at = $6
		WHERE id = $7
	`, o.Title, o.Description, o.Price, o.Category, o.Image, o.UpdatedAt, o.ID)
	if err != nil {
		return mapErr("update offer", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *OfferRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return mapErr("delete offer", err)
	}
	if res.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *OfferRepository) CountByAuthor(ctx context.Context, authorID string) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM offers WHERE author_id = $1`, authorID).Scan(&n); err != nil {
		return 0, mapErr("count offers", err)
	}
	return n, nil
}

var _ repository.OfferRepository = (*OfferRepository)(nil)
