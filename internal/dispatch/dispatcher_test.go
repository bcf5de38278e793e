package dispatch

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pilot-api/internal/domain"
	"pilot-api/internal/observability/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memOutbox struct {
	pending   []domain.OutboxEvent
	delivered []int64
	failed    map[int64]string
}

func newMemOutbox(events ...domain.OutboxEvent) *memOutbox {
	return &memOutbox{pending: events, failed: make(map[int64]string)}
}

func (m *memOutbox) DuePending(ctx context.Context, limit int) ([]domain.OutboxEvent, error) {
	if len(m.pending) > limit {
		return m.pending[:limit], nil
	}
	return m.pending, nil
}

func (m *memOutbox) MarkDelivered(ctx context.Context, eventID int64) error {
	m.delivered = append(m.delivered, eventID)
	for i, e := range m.pending {
		if e.ID == eventID {
			m.pending = append(m.pending[:i], m.pending[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memOutbox) MarkFailed(ctx context.Context, eventID int64, lastError string) error {
	m.failed[eventID] = lastError
	for i := range m.pending {
		if m.pending[i].ID == eventID {
			m.pending[i].Attempts++
			break
		}
	}
	return nil
}

func testEvent(id int64) domain.OutboxEvent {
	ev, _ := domain.NewChangeEvent(domain.ChangeInsert, "leads", map[string]string{"id": "lead-1"}, nil)
	payload, _ := json.Marshal(ev)
	return domain.OutboxEvent{
		ID:        id,
		AccountID: "acct-1",
		Payload:   payload,
	}
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("dispatch-test", "error")
	require.NoError(t, err)
	return log
}

func TestDispatcher_DeliversAndSigns(t *testing.T) {
	const secret = "shared-secret"

	var gotSignature string
	var gotBody []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get(SignatureHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	store := newMemOutbox(testEvent(1))
	d := New(store, newTestLogger(t), Options{
		Endpoint:  ts.URL,
		Secret:    secret,
		Interval:  time.Second,
		BatchSize: 10,
	})

	d.DrainOnce(context.Background())

	require.Equal(t, []int64{1}, store.delivered)
	assert.Empty(t, store.failed)
	assert.True(t, VerifySignature(secret, gotBody, gotSignature), "signature must verify against the body")

	var ev domain.ChangeEvent
	require.NoError(t, json.Unmarshal(gotBody, &ev))
	assert.Equal(t, domain.ChangeInsert, ev.Type)
	assert.Equal(t, "leads", ev.Table)
}

func TestDispatcher_FailureSchedulesRetry(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	store := newMemOutbox(testEvent(7))
	d := New(store, newTestLogger(t), Options{
		Endpoint:  ts.URL,
		Secret:    "s",
		Interval:  time.Second,
		BatchSize: 10,
	})

	d.DrainOnce(context.Background())

	assert.Empty(t, store.delivered)
	assert.Contains(t, store.failed[7], "status 500")
	assert.Equal(t, 1, store.pending[0].Attempts)
}

func TestDispatcher_AbandonsAfterMaxAttempts(t *testing.T) {
	ev := testEvent(3)
	ev.Attempts = 2

	store := newMemOutbox(ev)
	d := New(store, newTestLogger(t), Options{
		Endpoint:    "http://127.0.0.1:1", // never reached
		Secret:      "s",
		Interval:    time.Second,
		BatchSize:   10,
		MaxAttempts: 2,
	})

	d.DrainOnce(context.Background())

	// Retired without a delivery attempt
	assert.Equal(t, []int64{3}, store.delivered)
	assert.Empty(t, store.failed)
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"type":"insert"}`)
	sig := Sign("secret", payload)

	assert.True(t, VerifySignature("secret", payload, sig))
	assert.False(t, VerifySignature("wrong", payload, sig))
	assert.False(t, VerifySignature("secret", []byte("tampered"), sig))
	assert.False(t, VerifySignature("secret", payload, "not-hex!"))
}
