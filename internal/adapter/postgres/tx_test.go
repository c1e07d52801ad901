package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTransactionCommits(t *testing.T) {
	db, mock := newMock(t)
	tm := NewTxManager(db)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM components")).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
		// nested calls join the outer transaction
		return tm.WithinTransaction(ctx, func(ctx context.Context) error {
			return NewComponentRepository(db).DeleteComponent(ctx, id)
		})
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransactionRollsBack(t *testing.T) {
	db, mock := newMock(t)
	tm := NewTxManager(db)
	boom := errors.New("boom")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransactionRollsBackOnPanic(t *testing.T) {
	db, mock := newMock(t)
	tm := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = tm.WithinTransaction(context.Background(), func(ctx context.Context) error {
			panic("unexpected")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransactionBeginFails(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	called := false
	err := NewTxManager(db).WithinTransaction(context.Background(), func(ctx context.Context) error {
		called = true
		return nil
	})
	assert.Error(t, err)
	assert.False(t, called)
}

func TestOdometerRepository(t *testing.T) {
	db, mock := newMock(t)
	repo := NewOdometerRepository(db)
	bikeID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY reading_date DESC")).
		WithArgs(bikeID).
		WillReturnRows(sqlmock.NewRows([]string{"distance"}).AddRow("3100.5"))
	mock.ExpectQuery(regexp.QuoteMeta("reading_date <= $2::date")).
		WithArgs(bikeID, "2025-06-15").
		WillReturnRows(sqlmock.NewRows([]string{"distance"}))

	latest, err := repo.FindLatestDistance(context.Background(), bikeID)
	require.NoError(t, err)
	assert.True(t, latest.Equal(decimal.RequireFromString("3100.5")))

	// late evening in UTC+3 is still the 15th in UTC
	loc := time.FixedZone("UTC+3", 3*60*60)
	at, err := repo.FindDistanceAtOrBefore(context.Background(), bikeID, time.Date(2025, 6, 16, 1, 0, 0, 0, loc))
	require.NoError(t, err)
	assert.Nil(t, at)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestComponentTypeRepository(t *testing.T) {
	db, mock := newMock(t)
	repo := NewComponentTypeRepository(db)
	columns := []string{"key", "name", "unit", "default_lifespan", "default_service_interval"}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE lower(key) = lower($1)")).
		WithArgs("chain").
		WillReturnRows(sqlmock.NewRows(columns).AddRow("chain", "Chain", "km", "3000", "500"))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE lower(key) = lower($1)")).
		WithArgs("saddle").
		WillReturnRows(sqlmock.NewRows(columns))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY lower(name)")).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow("brake_pads", "Brake pads", "km", "2500", "1000").
			AddRow("fork", "Fork", "km", nil, "2000"))

	chain, err := repo.FindTypeByKey(context.Background(), "chain")
	require.NoError(t, err)
	assert.True(t, chain.DefaultLifespan.Equal(decimal.NewFromInt(3000)))
	assert.True(t, chain.DefaultServiceInterval.Equal(decimal.NewFromInt(500)))

	_, err = repo.FindTypeByKey(context.Background(), "saddle")
	assert.Error(t, err)

	types, err := repo.ListTypes(context.Background())
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Nil(t, types[1].DefaultLifespan)
	assert.NoError(t, mock.ExpectationsWereMet())
}
