package categories

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"id", "name", "slug", "description", "created_at", "updated_at"}

func TestCreateDerivesSlug(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO categories").
		WithArgs("Crème & Soins", "creme-soins", "").
		WillReturnRows(pgxmock.NewRows(cols).AddRow("c1", "Crème & Soins", "creme-soins", "", now, now))

	c, err := NewRepo(mock).Create(context.Background(), "Crème & Soins", "")
	require.NoError(t, err)
	assert.Equal(t, "creme-soins", c.Slug)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateDuplicateSlug(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("INSERT INTO categories").
		WithArgs("Makeup", "makeup", "").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: slugConstraint})

	_, err = NewRepo(mock).Create(context.Background(), "Makeup", "")
	assert.ErrorIs(t, err, ErrDuplicateSlug)
}

func TestListOrdersByName(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	now := time.Now()
	mock.ExpectQuery("FROM categories").WillReturnRows(pgxmock.NewRows(cols).
		AddRow("a", "Hair", "hair", "", now, now).
		AddRow("b", "Skincare", "skincare", "Face and body", now, now))

	got, err := NewRepo(mock).List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Face and body", got[1].Description)
}

func TestDeleteUnknown(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	id := "0b8f4f0e-5d1c-4d3b-9a60-1f1f1f1f1f1f"
	mock.ExpectExec("DELETE FROM categories").WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))

	assert.ErrorIs(t, NewRepo(mock).Delete(context.Background(), id), ErrNotFound)
	assert.ErrorIs(t, NewRepo(mock).Delete(context.Background(), "7"), ErrNotFound)
}
