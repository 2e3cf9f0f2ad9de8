package invoices

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ariefcatur/go-backoffice/internal/apperr"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepoInsertWritesItemsInOrder(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO invoices").WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO invoice_items").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 0, pgxmock.AnyArg(), "A1", "3m", "", 2, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec("INSERT INTO invoice_items").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 1, pgxmock.AnyArg(), "B2", "6m", "", 1, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	r := &Repo{DB: mock}
	inv := &Invoice{InvoiceNumber: "INV-1", Status: StatusDraft, Items: []LineItem{
		{ProductCode: "A1", Size: "3m", Quantity: 2, UnitPrice: decimal.NewFromInt(5)},
		{ProductCode: "B2", Size: "6m", Quantity: 1, UnitPrice: decimal.NewFromInt(7)},
	}}
	require.NoError(t, r.Insert(context.Background(), inv))
	assert.NotEmpty(t, inv.ID)
	assert.Equal(t, inv.ID, inv.Items[1].InvoiceID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoUpdateMissingInvoiceRollsBack(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE invoices SET").WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	r := &Repo{DB: mock}
	err = r.Update(context.Background(), &Invoice{ID: "i-9", InvoiceNumber: "INV-9"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepoUpdateStatusWritesOnlyStatus(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	at := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(`UPDATE invoices SET status=\$2, updated_at=\$3 WHERE id=\$1`).
		WithArgs("i-1", "paid", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	r := &Repo{DB: mock}
	require.NoError(t, r.UpdateStatus(context.Background(), "i-1", StatusPaid, at))
	assert.NoError(t, mock.ExpectationsWereMet())
}
