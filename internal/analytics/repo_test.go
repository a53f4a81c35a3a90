package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func TestRecordVisit(t *testing.T) {
	mock := newMock(t)
	mock.ExpectExec("INSERT INTO website_analytics").
		WithArgs("v1", "/products", "https://google.com", "curl/8", "10.0.0.1", "Rabat", "Morocco").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := NewRepo(mock).RecordVisit(context.Background(), Visit{
		VisitorID: "v1", PageURL: "/products", Referrer: "https://google.com",
		UserAgent: "curl/8", IPAddress: "10.0.0.1", City: "Rabat", Country: "Morocco",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOrdersAndReferrers(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery("FROM orders").
		WillReturnRows(pgxmock.NewRows([]string{"total", "status", "shipping_city", "shipping_country", "created_at"}).
			AddRow(decimal.NewFromInt(60), "pending", "Rabat", "Morocco", now))
	mock.ExpectQuery("GROUP BY referrer").
		WillReturnRows(pgxmock.NewRows([]string{"referrer", "count"}).AddRow("", 4).AddRow("https://google.com", 2))

	repo := NewRepo(mock)
	orders, err := repo.Orders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "Rabat", orders[0].City)

	refs, err := repo.Referrers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []ReferrerCount{{Referrer: "", Visits: 4}, {Referrer: "https://google.com", Visits: 2}}, refs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductCounts(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM products").
		WillReturnRows(pgxmock.NewRows([]string{"count", "count"}).AddRow(12, 9))

	total, inStock, err := NewRepo(mock).ProductCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Equal(t, 9, inStock)
}
