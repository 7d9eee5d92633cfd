package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/valelectronic/dera-backend/internal/model"
)

type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productCols = "id,name,description,price,category,image,is_featured,stock,created_at,updated_at"

func scanProduct(row interface{ Scan(...any) error }) (model.Product, error) {
	var (
		p     model.Product
		price string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.Image,
		&p.IsFeatured, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return model.Product{}, err
	}
	// DECIMAL columns arrive as strings; parse losslessly.
	p.Price, err = decimal.NewFromString(price)
	return p, err
}

// Create inserts a product and returns its ID.
func (r *ProductRepo) Create(ctx context.Context, p model.Product) (uint64, error) {
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (name, description, price, category, image, is_featured, stock) VALUES (?,?,?,?,?,?,?)",
		p.Name, p.Description, p.Price.StringFixed(2), p.Category, p.Image, p.IsFeatured, p.Stock)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	return uint64(id), err
}

// GetByID fetches one product.
func (r *ProductRepo) GetByID(ctx context.Context, id uint64) (model.Product, error) {
	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productCols+" FROM products WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Product{}, ErrNotFound
	}
	return p, err
}

// List returns every product, newest first.
func (r *ProductRepo) List(ctx context.Context) ([]model.Product, error) {
	return r.queryMany(ctx, "SELECT "+productCols+" FROM products ORDER BY created_at DESC")
}

// ListFeatured returns products flagged for the featured carousel.
func (r *ProductRepo) ListFeatured(ctx context.Context) ([]model.Product, error) {
	return r.queryMany(ctx, "SELECT "+productCols+" FROM products WHERE is_featured=1 ORDER BY created_at DESC")
}

// ListByCategory returns products in a category, newest first.
func (r *ProductRepo) ListByCategory(ctx context.Context, category string) ([]model.Product, error) {
	return r.queryMany(ctx, "SELECT "+productCols+" FROM products WHERE category=? ORDER BY created_at DESC", category)
}

// ToggleFeatured flips the is_featured flag and returns the new product row.
func (r *ProductRepo) ToggleFeatured(ctx context.Context, id uint64) (model.Product, error) {
	res, err := r.DB.ExecContext(ctx, "UPDATE products SET is_featured = NOT is_featured WHERE id=?", id)
	if err != nil {
		return model.Product{}, err
	}
	// NOT always flips the value, so zero affected rows means no such id.
	if n, _ := res.RowsAffected(); n == 0 {
		return model.Product{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Delete removes a product.
func (r *ProductRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of products (analytics).
func (r *ProductRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n)
	return n, err
}

func (r *ProductRepo) queryMany(ctx context.Context, q string, args ...any) ([]model.Product, error) {
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
