package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/ariefcatur/go-backoffice/internal/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repo struct{ DB postgres.DBTX }

const selectInvoice = `
	SELECT id, invoice_number, order_id, customer_name, customer_email, customer_phone, customer_address,
	       status, subtotal, discount_amount, tax_rate, tax_amount, total_amount, issue_date, due_date, notes,
	       created_at, updated_at
	FROM invoices`

func scanTargets(inv *Invoice) []any {
	return []any{
		&inv.ID, &inv.InvoiceNumber, &inv.OrderID, &inv.Name, &inv.Email, &inv.Phone, &inv.Address,
		&inv.Status, &inv.Subtotal, &inv.DiscountAmount, &inv.TaxRate, &inv.TaxAmount, &inv.TotalAmount,
		&inv.IssueDate, &inv.DueDate, &inv.Notes, &inv.CreatedAt, &inv.UpdatedAt,
	}
}

func (r *Repo) Insert(ctx context.Context, inv *Invoice) error {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	inv.CreatedAt, inv.UpdatedAt = now, now
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO invoices(id, invoice_number, order_id, customer_name, customer_email, customer_phone,
			    customer_address, status, subtotal, discount_amount, tax_rate, tax_amount, total_amount,
			    issue_date, due_date, notes, created_at, updated_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$17)`,
			inv.ID, inv.InvoiceNumber, inv.OrderID, inv.Name, inv.Email, inv.Phone,
			inv.Address, string(inv.Status), inv.Subtotal, inv.DiscountAmount, inv.TaxRate, inv.TaxAmount, inv.TotalAmount,
			inv.IssueDate, inv.DueDate, inv.Notes, now,
		); err != nil {
			return err
		}
		return insertItems(ctx, tx, inv.ID, inv.Items)
	})
	return postgres.Normalize("insert invoice "+inv.InvoiceNumber, err)
}

// Update rewrites the header and replaces every line item.
func (r *Repo) Update(ctx context.Context, inv *Invoice) error {
	inv.UpdatedAt = time.Now().UTC()
	err := postgres.InTx(ctx, r.DB, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE invoices SET invoice_number=$2, order_id=$3, customer_name=$4, customer_email=$5,
			    customer_phone=$6, customer_address=$7, status=$8, subtotal=$9, discount_amount=$10,
			    tax_rate=$11, tax_amount=$12, total_amount=$13, issue_date=$14, due_date=$15, notes=$16,
			    updated_at=$17
			WHERE id=$1`,
			inv.ID, inv.InvoiceNumber, inv.OrderID, inv.Name, inv.Email,
			inv.Phone, inv.Address, string(inv.Status), inv.Subtotal, inv.DiscountAmount,
			inv.TaxRate, inv.TaxAmount, inv.TotalAmount, inv.IssueDate, inv.DueDate, inv.Notes,
			inv.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("invoice %s: %w", inv.ID, apperr.ErrNotFound)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM invoice_items WHERE invoice_id=$1`, inv.ID); err != nil {
			return err
		}
		return insertItems(ctx, tx, inv.ID, inv.Items)
	})
	return postgres.Normalize("update invoice "+inv.InvoiceNumber, err)
}

func (r *Repo) UpdateStatus(ctx context.Context, id string, to Status, at time.Time) error {
	tag, err := r.DB.Exec(ctx, `UPDATE invoices SET status=$2, updated_at=$3 WHERE id=$1`, id, string(to), at)
	if err != nil {
		return postgres.Normalize("update invoice status", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("invoice %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (*Invoice, error) {
	var inv Invoice
	if err := r.DB.QueryRow(ctx, selectInvoice+` WHERE id=$1`, id).Scan(scanTargets(&inv)...); err != nil {
		return nil, postgres.Normalize("get invoice "+id, err)
	}
	items, err := r.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return &inv, nil
}

func (r *Repo) List(ctx context.Context) ([]*Invoice, error) {
	rows, err := r.DB.Query(ctx, selectInvoice+` ORDER BY issue_date DESC, created_at DESC`)
	if err != nil {
		return nil, postgres.Normalize("list invoices", err)
	}
	defer rows.Close()

	var out []*Invoice
	for rows.Next() {
		inv := &Invoice{}
		if err := rows.Scan(scanTargets(inv)...); err != nil {
			return nil, postgres.Normalize("scan invoice", err)
		}
		out = append(out, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Normalize("list invoices", err)
	}
	return out, nil
}

func (r *Repo) Items(ctx context.Context, invoiceID string) ([]LineItem, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, invoice_id, product_id, product_code, size, description, quantity, unit_price, total_price
		FROM invoice_items WHERE invoice_id=$1 ORDER BY position`, invoiceID)
	if err != nil {
		return nil, postgres.Normalize("list invoice items", err)
	}
	defer rows.Close()

	var out []LineItem
	for rows.Next() {
		var it LineItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.ProductCode, &it.Size, &it.Description,
			&it.Quantity, &it.UnitPrice, &it.TotalPrice); err != nil {
			return nil, postgres.Normalize("scan invoice item", err)
		}
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.Normalize("list invoice items", err)
	}
	return out, nil
}

func insertItems(ctx context.Context, tx pgx.Tx, invoiceID string, items []LineItem) error {
	for i := range items {
		it := &items[i]
		it.ID = uuid.NewString()
		it.InvoiceID = invoiceID
		if _, err := tx.Exec(ctx, `
			INSERT INTO invoice_items(id, invoice_id, position, product_id, product_code, size, description,
			    quantity, unit_price, total_price)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			it.ID, invoiceID, i, it.ProductID, it.ProductCode, it.Size, it.Description,
			it.Quantity, it.UnitPrice, it.TotalPrice,
		); err != nil {
			return err
		}
	}
	return nil
}
