package repository_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/honeynil/BrrowMarketplace/internal/models"
	repository "github.com/honeynil/BrrowMarketplace/internal/repository/postgres"
	pkgerrors "github.com/honeynil/BrrowMarketplace/pkg/errors"
)

var meetupCols = []string{
	"id", "purchase_id", "buyer_id", "seller_id", "location_lat", "location_lng", "location_address",
	"scheduled_time", "status", "buyer_arrived_at", "seller_arrived_at", "verified_at", "notes", "expires_at",
	"created_at", "updated_at",
}

func TestPostgresMeetupRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresMeetupRepository(db)
	ctx := context.Background()

	at := time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC)
	addr := "5th & Main"
	m := &models.Meetup{
		ID:            "m-1",
		PurchaseID:    "p-1",
		BuyerID:       "buyer",
		SellerID:      "seller",
		Location:      &models.MeetupLocation{Latitude: 40.1, Longitude: -73.9, Address: &addr},
		ScheduledTime: &at,
		Status:        models.MeetupScheduled,
	}

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO meetups`)).
		WithArgs("m-1", "p-1", "buyer", "seller", 40.1, -73.9, addr, at, "SCHEDULED", nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(at, at))

	assert.NoError(t, repo.Create(ctx, m))
	assert.Equal(t, at, m.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())

	assert.ErrorIs(t, repo.Create(ctx, &models.Meetup{ID: "m-2"}), pkgerrors.ErrInvalidInput)
}

func TestPostgresMeetupRepository_GetByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresMeetupRepository(db)
	ctx := context.Background()
	at := time.Date(2026, 3, 3, 18, 0, 0, 0, time.UTC)

	t.Run("WithLocation", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM meetups WHERE id = $1`)).
			WithArgs("m-1").
			WillReturnRows(sqlmock.NewRows(meetupCols).AddRow(
				"m-1", "p-1", "buyer", "seller", 40.1, -73.9, nil,
				at, "BUYER_ARRIVED", at, nil, nil, nil, nil, at, at))

		m, err := repo.GetByID(ctx, "m-1")
		assert.NoError(t, err)
		assert.Equal(t, models.MeetupBuyerArrived, m.Status)
		assert.Equal(t, 40.1, m.Location.Latitude)
		assert.Nil(t, m.Location.Address)
		assert.NotNil(t, m.BuyerArrivedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("WithoutLocation", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM meetups WHERE id = $1`)).
			WithArgs("m-2").
			WillReturnRows(sqlmock.NewRows(meetupCols).AddRow(
				"m-2", "p-1", "buyer", "seller", nil, nil, nil,
				at, "SCHEDULED", nil, nil, nil, nil, nil, at, at))

		m, err := repo.GetByID(ctx, "m-2")
		assert.NoError(t, err)
		assert.Nil(t, m.Location)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("NotFound", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`FROM meetups WHERE id = $1`)).
			WithArgs("gone").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(ctx, "gone")
		assert.ErrorIs(t, err, pkgerrors.ErrMeetupNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresMeetupRepository_Update(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresMeetupRepository(db)
	ctx := context.Background()
	now := time.Date(2026, 3, 3, 18, 5, 0, 0, time.UTC)

	m := &models.Meetup{ID: "m-1", Status: models.MeetupCancelled, UpdatedAt: now}

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE meetups SET status = $1`)).
		WithArgs("CANCELLED", nil, nil, nil, now, "m-1", "SCHEDULED").
		WillReturnResult(sqlmock.NewResult(0, 1))
	assert.NoError(t, repo.Update(ctx, m, models.MeetupScheduled))

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE meetups SET status = $1`)).
		WithArgs("CANCELLED", nil, nil, nil, now, "m-1", "SCHEDULED").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Update(ctx, m, models.MeetupScheduled), pkgerrors.ErrStaleState)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresMeetupRepository_ExpireDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()
	repo := repository.NewPostgresMeetupRepository(db)
	now := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`UPDATE meetups SET status = 'EXPIRED'`)).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "purchase_id"}).AddRow("m-1", "p-1").AddRow("m-2", "p-2"))

	expired, err := repo.ExpireDue(context.Background(), now)
	assert.NoError(t, err)
	assert.Equal(t, []models.ExpiredMeetup{{ID: "m-1", PurchaseID: "p-1"}, {ID: "m-2", PurchaseID: "p-2"}}, expired)
	assert.NoError(t, mock.ExpectationsWereMet())
}
