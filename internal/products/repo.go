package products

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"storefront/internal/db"
	"storefront/internal/domain/product"
)

var ErrNotFound = errors.New("product not found")

type Repo struct {
	db db.DB
}

func NewRepo(db db.DB) *Repo {
	return &Repo{db: db}
}

func scanProduct(row pgx.Row) (product.Product, error) {
	var p product.Product
	err := row.Scan(
		&p.ID, &p.CategoryID, &p.Category, &p.CategorySlug,
		&p.Name, &p.Description, &p.Price, &p.Image, &p.Images, &p.InStock,
		&p.DiscountPercentage, &p.Rating, &p.NumReviews, &p.BadgeText, &p.BadgeColor,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}

// Search returns one page of products matching f plus the total match count.
func (r *Repo) Search(ctx context.Context, f product.Filter, offset, limit int) (product.Page, error) {
	q := BuildSearch(f, offset, limit)
	offset, limit = ClampPage(offset, limit)

	page := product.Page{Items: []product.Product{}, Offset: offset, Limit: limit}
	if err := r.db.QueryRow(ctx, q.Count, q.CountArgs...).Scan(&page.Total); err != nil {
		return product.Page{}, fmt.Errorf("count products: %w", err)
	}
	if page.Total == 0 || offset >= page.Total {
		return page, nil
	}

	rows, err := r.db.Query(ctx, q.List, q.Args...)
	if err != nil {
		return product.Page{}, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return product.Page{}, fmt.Errorf("scan product: %w", err)
		}
		page.Items = append(page.Items, p)
	}
	return page, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (product.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return product.Product{}, ErrNotFound
	}
	p, err := scanProduct(r.db.QueryRow(ctx, selectProduct+" WHERE p.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return product.Product{}, ErrNotFound
	}
	if err != nil {
		return product.Product{}, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

type CreateInput struct {
	CategoryID         *string
	Name               string
	Description        string
	Price              decimal.Decimal
	Images             []string
	InStock            bool
	DiscountPercentage int
	BadgeText          string
	BadgeColor         string
}

// Create inserts a product. The main image is the first gallery image.
func (r *Repo) Create(ctx context.Context, in CreateInput) (product.Product, error) {
	images := in.Images
	if images == nil {
		images = []string{}
	}
	image := ""
	if len(images) > 0 {
		image = images[0]
	}

	var id string
	err := r.db.QueryRow(ctx, `
		INSERT INTO products (category_id, name, description, price, image, images, in_stock,
		                      discount_percentage, badge_text, badge_color)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id
	`, in.CategoryID, in.Name, in.Description, in.Price.String(), image, images, in.InStock,
		in.DiscountPercentage, in.BadgeText, in.BadgeColor).Scan(&id)
	if err != nil {
		return product.Product{}, fmt.Errorf("insert product: %w", err)
	}
	return r.Get(ctx, id)
}

// Patch holds optional product fields; nil leaves the column unchanged.
type Patch struct {
	CategoryID         *string
	Name               *string
	Description        *string
	Price              *decimal.Decimal
	Images             *[]string
	InStock            *bool
	DiscountPercentage *int
	BadgeText          *string
	BadgeColor         *string
}

func (r *Repo) Update(ctx context.Context, id string, p Patch) (product.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return product.Product{}, ErrNotFound
	}

	var price, images, image any
	if p.Price != nil {
		price = p.Price.String()
	}
	if p.Images != nil {
		imgs := *p.Images
		if imgs == nil {
			imgs = []string{}
		}
		images = imgs
		image = ""
		if len(imgs) > 0 {
			image = imgs[0]
		}
	}

	tag, err := r.db.Exec(ctx, `
		UPDATE products
		SET
		  category_id = COALESCE($2, category_id),
		  name = COALESCE($3, name),
		  description = COALESCE($4, description),
		  price = COALESCE($5::numeric, price),
		  images = COALESCE($6::text[], images),
		  image = COALESCE($7, image),
		  in_stock = COALESCE($8, in_stock),
		  discount_percentage = COALESCE($9, discount_percentage),
		  badge_text = COALESCE($10, badge_text),
		  badge_color = COALESCE($11, badge_color),
		  updated_at = now()
		WHERE id = $1
	`, id, p.CategoryID, p.Name, p.Description, price, images, image,
		p.InStock, p.DiscountPercentage, p.BadgeText, p.BadgeColor)
	if err != nil {
		return product.Product{}, fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return product.Product{}, ErrNotFound
	}
	return r.Get(ctx, id)
}

func (r *Repo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
