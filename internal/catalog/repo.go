package catalog

import (
	"context"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ DB postgres.DBTX }

// List returns every product with its size tiers, ordered by code.
func (r *Repo) List(ctx context.Context) ([]Product, error) {
	rows, err := r.DB.Query(ctx, `SELECT id, code, photo_url, created_at, updated_at FROM products ORDER BY code`)
	if err != nil {
		return nil, postgres.Normalize("list products", err)
	}
	defer rows.Close()

	var out []Product
	index := map[string]int{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, postgres.Normalize("scan product", err)
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Normalize("list products", err)
	}
	rows.Close()

	srows, err := r.DB.Query(ctx, `SELECT id, product_id, size, count, purchase_price, selling_price FROM size_tiers`)
	if err != nil {
		return nil, postgres.Normalize("list sizes", err)
	}
	defer srows.Close()
	for srows.Next() {
		var s SizeTier
		if err := srows.Scan(&s.ID, &s.ProductID, &s.Size, &s.Count, &s.PurchasePrice, &s.SellingPrice); err != nil {
			return nil, postgres.Normalize("scan size", err)
		}
		if i, ok := index[s.ProductID]; ok {
			out[i].Sizes = append(out[i].Sizes, s)
		}
	}
	if err := srows.Err(); err != nil {
		return nil, postgres.Normalize("list sizes", err)
	}
	for i := range out {
		SortSizes(out[i].Sizes)
	}
	return out, nil
}

// FindByCode looks a product up by exact code. Sizes are not loaded.
func (r *Repo) FindByCode(ctx context.Context, code string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `SELECT id, code, photo_url, created_at, updated_at FROM products WHERE code=$1`, code).
		Scan(&p.ID, &p.Code, &p.PhotoURL, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, postgres.Normalize("find product", err)
	}
	return &p, nil
}

// Create inserts p and its sizes in one transaction and assigns ids.
func (r *Repo) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO products(id, code, photo_url, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$4)`, p.ID, p.Code, p.PhotoURL, now); err != nil {
			return err
		}
		return insertSizes(ctx, tx, p.ID, p.Sizes)
	})
	if err != nil {
		return postgres.Normalize("create product "+p.Code, err)
	}
	p.CreatedAt, p.UpdatedAt = now, now
	return nil
}

// Replace updates the photo of p and swaps its whole size list: every existing
// tier row is deleted, then p.Sizes inserted. Both steps share one transaction.
func (r *Repo) Replace(ctx context.Context, p *Product) error {
	now := time.Now().UTC()
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE products SET photo_url=$2, updated_at=$3 WHERE id=$1`, p.ID, p.PhotoURL, now); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM size_tiers WHERE product_id=$1`, p.ID); err != nil {
			return err
		}
		return insertSizes(ctx, tx, p.ID, p.Sizes)
	})
	if err != nil {
		return postgres.Normalize("replace product "+p.Code, err)
	}
	p.UpdatedAt = now
	return nil
}

func insertSizes(ctx context.Context, tx pgx.Tx, productID string, sizes []SizeTier) error {
	for i := range sizes {
		s := &sizes[i]
		s.ID = uuid.NewString()
		s.ProductID = productID
		if _, err := tx.Exec(ctx, `
			INSERT INTO size_tiers(id, product_id, size, count, purchase_price, selling_price)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			s.ID, productID, s.Size, s.Count, s.PurchasePrice, s.SellingPrice,
		); err != nil {
			return err
		}
	}
	return nil
}
