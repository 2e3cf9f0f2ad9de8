package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/ariefcatur/go-backoffice/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Columns selects the optional order columns a statement reads or writes.
type Columns struct {
	TaxRate bool
}

var AllColumns = Columns{TaxRate: true}

type Repo struct{ DB postgres.DBTX }

func (c Columns) names() []string {
	names := []string{
		"id", "order_number", "customer_name", "customer_email", "customer_phone", "customer_address",
		"status", "discount_amount", "tax_amount", "total_amount", "final_amount", "notes",
		"created_at", "updated_at",
	}
	if c.TaxRate {
		names = append(names, "tax_rate")
	}
	return names
}

func (c Columns) values(o *Order) []any {
	args := []any{
		o.ID, o.OrderNumber, o.Name, o.Email, o.Phone, o.Address,
		string(o.Status), o.DiscountAmount, o.TaxAmount, o.TotalAmount, o.FinalAmount, o.Notes,
		o.CreatedAt, o.UpdatedAt,
	}
	if c.TaxRate {
		args = append(args, o.TaxRate)
	}
	return args
}

func (c Columns) targets(o *Order) []any {
	dst := []any{
		&o.ID, &o.OrderNumber, &o.Name, &o.Email, &o.Phone, &o.Address,
		&o.Status, &o.DiscountAmount, &o.TaxAmount, &o.TotalAmount, &o.FinalAmount, &o.Notes,
		&o.CreatedAt, &o.UpdatedAt,
	}
	if c.TaxRate {
		dst = append(dst, &o.TaxRate)
	}
	return dst
}

func placeholders(n, from int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", from+i)
	}
	return strings.Join(ps, ",")
}

// Insert writes o and its items in one transaction. o.ID is assigned when
// empty and kept across retries of the same order.
func (r *Repo) Insert(ctx context.Context, o *Order, cols Columns) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	if o.Status == "" {
		o.Status = StatusPending
	}
	now := time.Now().UTC()
	o.CreatedAt, o.UpdatedAt = now, now

	names := cols.names()
	sql := `INSERT INTO orders(` + strings.Join(names, ", ") + `) VALUES (` + placeholders(len(names), 1) + `)`
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, sql, cols.values(o)...); err != nil {
			return err
		}
		return insertItems(ctx, tx, o.ID, o.Items)
	})
	return postgres.Normalize("insert order "+o.OrderNumber, err)
}

// Update rewrites every header column of o, then replaces its items wholesale.
func (r *Repo) Update(ctx context.Context, o *Order, cols Columns) error {
	o.UpdatedAt = time.Now().UTC()

	names, values := cols.names(), cols.values(o)
	sets := make([]string, 0, len(names))
	args := []any{o.ID}
	for i, n := range names {
		if n == "id" || n == "created_at" {
			continue
		}
		args = append(args, values[i])
		sets = append(sets, fmt.Sprintf("%s=$%d", n, len(args)))
	}
	sql := `UPDATE orders SET ` + strings.Join(sets, ", ") + ` WHERE id=$1`
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("order %s: %w", o.ID, apperr.ErrNotFound)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM order_items WHERE order_id=$1`, o.ID); err != nil {
			return err
		}
		return insertItems(ctx, tx, o.ID, o.Items)
	})
	return postgres.Normalize("update order "+o.OrderNumber, err)
}

// UpdateStatus touches only status and updated_at.
func (r *Repo) UpdateStatus(ctx context.Context, id string, to Status, at time.Time) error {
	tag, err := r.DB.Exec(ctx, `UPDATE orders SET status=$2, updated_at=$3 WHERE id=$1`, id, string(to), at)
	if err != nil {
		return postgres.Normalize("update order status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string, cols Columns) (*Order, error) {
	var o Order
	sql := `SELECT ` + strings.Join(cols.names(), ", ") + ` FROM orders WHERE id=$1`
	if err := r.DB.QueryRow(ctx, sql, id).Scan(cols.targets(&o)...); err != nil {
		return nil, postgres.Normalize("get order "+id, err)
	}
	return &o, nil
}

func (r *Repo) List(ctx context.Context, cols Columns) ([]*Order, error) {
	sql := `SELECT ` + strings.Join(cols.names(), ", ") + ` FROM orders ORDER BY created_at DESC`
	rows, err := r.DB.Query(ctx, sql)
	if err != nil {
		return nil, postgres.Normalize("list orders", err)
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o := &Order{}
		if err := rows.Scan(cols.targets(o)...); err != nil {
			return nil, postgres.Normalize("scan order", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Normalize("list orders", err)
	}
	return out, nil
}

// Items returns the order's lines with the product code joined from the catalog.
func (r *Repo) Items(ctx context.Context, orderID string) ([]LineItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, COALESCE(p.code, ''), i.size, i.quantity,
		       i.total_area, i.unit_price_per_area, i.total_price
		FROM order_items i
		LEFT JOIN products p ON p.id = i.product_id
		WHERE i.order_id=$1
		ORDER BY i.position`, orderID)
	if err != nil {
		return nil, postgres.Normalize("list order items", err)
	}
	defer rows.Close()

	var out []LineItem
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductCode, &it.Size, &it.Quantity,
			&it.TotalArea, &it.UnitPricePerArea, &it.TotalPrice); err != nil {
			return nil, postgres.Normalize("scan order item", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Normalize("list order items", err)
	}
	return out, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, orderID string, items []LineItem) error {
	for i := range items {
		it := &items[i]
		it.ID = uuid.NewString()
		it.OrderID = orderID
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items(id, order_id, position, product_id, size, quantity, total_area, unit_price_per_area, total_price)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			it.ID, orderID, i, it.ProductID, it.Size, it.Quantity, it.TotalArea, it.UnitPricePerArea, it.TotalPrice,
		); err != nil {
			return err
		}
	}
	return nil
}
