package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"storefront/internal/db"
	"storefront/internal/domain/category"
	"storefront/internal/util"
)

var (
	ErrNotFound      = errors.New("category not found")
	ErrDuplicateSlug = errors.New("category slug already exists")
)

const slugConstraint = "categories_slug_key"

type Repo struct {
	db db.DB
}

func NewRepo(db db.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) List(ctx context.Context) ([]category.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, slug, description, created_at, updated_at
		FROM categories
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	out := []category.Category{}
	for rows.Next() {
		var c category.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repo) Create(ctx context.Context, name, description string) (category.Category, error) {
	var c category.Category
	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (name, slug, description)
		VALUES ($1, $2, $3)
		RETURNING id, name, slug, description, created_at, updated_at
	`, name, util.Slugify(name, "category"), description).Scan(
		&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt,
	)
	if db.IsUniqueViolation(err, slugConstraint) {
		return category.Category{}, ErrDuplicateSlug
	}
	if err != nil {
		return category.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

// Update changes name and/or description. A new name re-derives the slug.
func (r *Repo) Update(ctx context.Context, id string, name, description *string) (category.Category, error) {
	if _, err := uuid.Parse(id); err != nil {
		return category.Category{}, ErrNotFound
	}
	var slug any
	if name != nil {
		slug = util.Slugify(*name, "category")
	}

	var c category.Category
	err := r.db.QueryRow(ctx, `
		UPDATE categories
		SET
		  name = COALESCE($2, name),
		  slug = COALESCE($3, slug),
		  description = COALESCE($4, description),
		  updated_at = now()
		WHERE id = $1
		RETURNING id, name, slug, description, created_at, updated_at
	`, id, name, slug, description).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return category.Category{}, ErrNotFound
	case db.IsUniqueViolation(err, slugConstraint):
		return category.Category{}, ErrDuplicateSlug
	case err != nil:
		return category.Category{}, fmt.Errorf("update category: %w", err)
	}
	return c, nil
}

// Delete removes a category; its products stay, uncategorised.
func (r *Repo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
