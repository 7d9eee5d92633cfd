package repository

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/valelectronic/dera-backend/internal/model"
)

type CartRepo struct{ DB *sql.DB }

func NewCartRepo(db *sql.DB) *CartRepo { return &CartRepo{DB: db} }

// Add puts one unit of a product in the user's cart. If the product is
// already present its quantity is bumped instead; the (user_id,
// product_id) primary key makes the upsert atomic.
func (r *CartRepo) Add(ctx context.Context, userID, productID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO cart_items (user_id, product_id, quantity) VALUES (?,?,1) "+
			"ON DUPLICATE KEY UPDATE quantity = quantity + 1",
		userID, productID)
	return err
}

// SetQuantity updates an existing line's quantity; quantity zero removes
// the line. ErrNotFound is returned when the product is not in the cart.
func (r *CartRepo) SetQuantity(ctx context.Context, userID, productID uint64, quantity int64) error {
	if quantity == 0 {
		res, err := r.DB.ExecContext(ctx,
			"DELETE FROM cart_items WHERE user_id=? AND product_id=?", userID, productID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE cart_items SET quantity=? WHERE user_id=? AND product_id=?",
		quantity, userID, productID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Distinguish "missing line" from "same quantity written twice".
		var exists int
		err := r.DB.QueryRowContext(ctx,
			"SELECT 1 FROM cart_items WHERE user_id=? AND product_id=? LIMIT 1",
			userID, productID).Scan(&exists)
		if err == sql.ErrNoRows {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Remove drops a single product from the cart.
func (r *CartRepo) Remove(ctx context.Context, userID, productID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM cart_items WHERE user_id=? AND product_id=?", userID, productID)
	return err
}

// Clear empties the user's cart.
func (r *CartRepo) Clear(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM cart_items WHERE user_id=?", userID)
	return err
}

// List returns the user's cart lines joined with their product rows.
func (r *CartRepo) List(ctx context.Context, userID uint64) ([]model.CartLine, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT p.id,p.name,p.description,p.price,p.category,p.image,p.is_featured,p.stock,p.created_at,p.updated_at,c.quantity "+
			"FROM cart_items c JOIN products p ON p.id = c.product_id WHERE c.user_id=?",
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.CartLine{}
	for rows.Next() {
		var (
			line  model.CartLine
			price string
		)
		if err := rows.Scan(&line.Product.ID, &line.Product.Name, &line.Product.Description,
			&price, &line.Product.Category, &line.Product.Image, &line.Product.IsFeatured,
			&line.Product.Stock, &line.Product.CreatedAt, &line.Product.UpdatedAt,
			&line.Quantity); err != nil {
			return nil, err
		}
		if line.Product.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		out = append(out, line)
	}
	return out, rows.Err()
}
