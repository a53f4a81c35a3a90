package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/internal/events"
)

var recCols = []string{"id", "event_id", "topic", "key", "payload", "created_at", "sent_at"}

type fakeWriter struct {
	WriteFn func(ctx context.Context, msgs ...kafka.Message) error
	sent    []kafka.Message
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if w.WriteFn != nil {
		if err := w.WriteFn(ctx, msgs...); err != nil {
			return err
		}
	}
	w.sent = append(w.sent, msgs...)
	return nil
}

func TestInsertStoresEnvelope(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ev := events.New(events.OrderPlaced, "ORDER-1", nil)
	mock.ExpectExec("INSERT INTO outbox").
		WithArgs(ev.EventID, "storefront.orders", "ORDER-1", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, Insert(context.Background(), mock, "storefront.orders", ev))
	require.NoError(t, mock.ExpectationsWereMet())
}

func pendingRows() *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(recCols).
		AddRow(int64(1), "e1", "storefront.orders", "ORDER-1", json.RawMessage(`{"type":"order.placed"}`), now, (*time.Time)(nil)).
		AddRow(int64(2), "e2", "storefront.orders", "ORDER-1", json.RawMessage(`{"type":"order.status_changed"}`), now, (*time.Time)(nil))
}

func TestRelayOncePublishesAndMarksSent(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM outbox").WithArgs(DefaultBatch).WillReturnRows(pendingRows())
	mock.ExpectExec("UPDATE outbox SET sent_at").WithArgs(int64(1)).WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec("UPDATE outbox SET sent_at").WithArgs(int64(2)).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	w := &fakeWriter{}
	n, err := NewRelay(mock, w, zap.NewNop(), time.Second).Once(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, w.sent, 2)
	assert.Equal(t, "ORDER-1", string(w.sent[0].Key))
	assert.JSONEq(t, `{"type":"order.placed"}`, string(w.sent[0].Value))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRelayStopsAtFirstFailure(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("FROM outbox").WithArgs(DefaultBatch).WillReturnRows(pendingRows())

	w := &fakeWriter{WriteFn: func(context.Context, ...kafka.Message) error { return errors.New("broker down") }}
	n, err := NewRelay(mock, w, zap.NewNop(), time.Second).Once(context.Background())

	assert.Error(t, err)
	assert.Zero(t, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
