package repository_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	repository "github.com/honeynil/BrrowMarketplace/internal/repository/postgres"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

var purchaseCols = []string{
	"id", "display_id", "buyer_id", "seller_id", "listing_id", "purchase_type", "amount", "payment_intent_id",
	"payment_status", "stage", "seller_confirmed", "seller_confirmed_at", "meetup_id", "rental_start", "rental_end",
	"delivery_method", "buyer_message", "cancellation_reason", "cancelled_at", "captured_at", "refunded_at",
	"created_at", "updated_at",
}

func purchaseRow(id, stage, payment string, confirmed bool, meetupID any) []driver.Value {
	created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	return []driver.Value{
		id, "BRW-1A2B3C4D", "buyer", "seller", "listing-1", "BUY_NOW", "40.00", "pi_1",
		payment, stage, confirmed, nil, meetupID, nil, nil,
		"pickup", nil, nil, nil, nil, nil,
		created, created,
	}
}

func TestPostgresPurchaseRepository_CreateFromIntent(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresPurchaseRepository(db)
	ctx := context.Background()

	newPurchase := func() *models.Purchase {
		listing := "listing-1"
		return &models.Purchase{
			ID:            "p-1",
			DisplayID:     "BRW-1A2B3C4D",
			BuyerID:       "buyer",
			SellerID:      "seller",
			ListingID:     &listing,
			Type:          models.PurchaseTypeBuyNow,
			Amount:        decimal.NewFromInt(40),
			PaymentStatus: models.PaymentHeld,
			Stage:         models.StagePendingSellerConfirmation,
		}
	}

	t.Run("NilPurchase", func(t *testing.T) {
		err := repo.CreateFromIntent(ctx, nil, "pi_1")
		assert.ErrorIs(t, err, pkgerrors.ErrNilPurchase)
	})

	t.Run("Success", func(t *testing.T) {
		p := newPurchase()
		created := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE payment_intents SET status = 'confirmed'`)).
			WithArgs("p-1", "pi_1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO purchases`)).
			WithArgs("p-1", "BRW-1A2B3C4D", "buyer", "seller", "listing-1", "BUY_NOW", sqlmock.AnyArg(),
				"pi_1", "HELD", "PENDING_SELLER_CONFIRMATION", nil, nil, "pickup", nil).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))
		mock.ExpectCommit()

		err := repo.CreateFromIntent(ctx, p, "pi_1")
		assert.NoError(t, err)
		assert.Equal(t, "pi_1", p.PaymentIntentID)
		assert.Equal(t, models.DeliveryPickup, p.DeliveryMethod)
		assert.Equal(t, created, p.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("AlreadyConfirmed", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE payment_intents`)).
			WithArgs("p-1", "pi_1").
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.CreateFromIntent(ctx, newPurchase(), "pi_1")
		assert.ErrorIs(t, err, pkgerrors.ErrRequestAlreadyProcessed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("InsertFailsRollsBack", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE payment_intents`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO purchases`)).
			WillReturnError(fmt.Errorf("database error"))
		mock.ExpectRollback()

		err := repo.CreateFromIntent(ctx, newPurchase(), "pi_1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database error")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("CommitError", func(t *testing.T) {
		created := time.Now()
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE payment_intents`)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO purchases`)).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))
		mock.ExpectCommit().WillReturnError(fmt.Errorf("commit error"))

		err := repo.CreateFromIntent(ctx, newPurchase(), "pi_1")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to commit transaction")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresPurchaseRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresPurchaseRepository(db)
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM purchases WHERE id = $1`)).
			WithArgs("p-1").
			WillReturnRows(sqlmock.NewRows(purchaseCols).AddRow(purchaseRow("p-1", "MEETUP_SCHEDULED", "HELD", true, "m-1")...))

		p, err := repo.GetByID(ctx, "p-1")
		assert.NoError(t, err)
		assert.Equal(t, models.StageMeetupScheduled, p.Stage)
		assert.Equal(t, models.PaymentHeld, p.PaymentStatus)
		assert.Equal(t, "m-1", *p.MeetupID)
		assert.True(t, p.Amount.Equal(decimal.NewFromInt(40)))
		assert.Nil(t, p.BuyerMessage)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM purchases WHERE id = $1`)).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "missing")
		assert.ErrorIs(t, err, pkgerrors.ErrPurchaseNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresPurchaseRepository_ListByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresPurchaseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM purchases WHERE buyer_id = $1 OR seller_id = $1`)).
		WithArgs("buyer").
		WillReturnRows(sqlmock.NewRows(purchaseCols).
			AddRow(purchaseRow("p-2", "ACCEPTED", "HELD", true, nil)...).
			AddRow(purchaseRow("p-1", "COMPLETED", "CAPTURED", true, "m-1")...))

	purchases, err := repo.ListByUser(context.Background(), "buyer")
	assert.NoError(t, err)
	assert.Len(t, purchases, 2)
	assert.Equal(t, "p-2", purchases[0].ID)
	assert.Nil(t, purchases[0].MeetupID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresPurchaseRepository_Transition(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresPurchaseRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 2, 2, 9, 0, 0, 0, time.UTC)

	t.Run("Accept", func(t *testing.T) {
		u := models.PurchaseUpdate{
			From:              models.StagePendingSellerConfirmation,
			Stage:             models.StageAccepted,
			PaymentStatus:     models.PaymentHeld,
			SellerConfirmedAt: &now,
			UpdatedAt:         now,
		}
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE purchases SET`)).
			WithArgs("ACCEPTED", "HELD", true, now, nil, nil, nil, nil, nil, now, "p-1", "PENDING_SELLER_CONFIRMATION").
			WillReturnRows(sqlmock.NewRows(purchaseCols).AddRow(purchaseRow("p-1", "ACCEPTED", "HELD", true, nil)...))

		p, err := repo.Transition(ctx, "p-1", u)
		assert.NoError(t, err)
		assert.Equal(t, models.StageAccepted, p.Stage)
		assert.True(t, p.SellerConfirmed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("LostRace", func(t *testing.T) {
		u := models.PurchaseUpdate{
			From:          models.StagePendingSellerConfirmation,
			Stage:         models.StageDeclined,
			PaymentStatus: models.PaymentCancelled,
			CancelledAt:   &now,
			UpdatedAt:     now,
		}
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE purchases SET`)).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.Transition(ctx, "p-1", u)
		assert.ErrorIs(t, err, pkgerrors.ErrStaleState)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
