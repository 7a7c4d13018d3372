package transfer_audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ArdaAlp/Binary-Power/internal/events"
	"github.com/ArdaAlp/Binary-Power/internal/logging"
	"github.com/ArdaAlp/Binary-Power/internal/models"
	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap/zaptest"
)

type fakeReader struct {
	msgs chan kafka.Message

	mu        sync.Mutex
	committed []int64
	closed    bool
}

func newFakeReader(msgs ...kafka.Message) *fakeReader {
	r := &fakeReader{msgs: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.msgs <- m
	}
	return r
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.msgs:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	return nil
}

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]int64(nil), r.committed...)
}

type fakeAudit struct {
	mu       sync.Mutex
	records  map[string]*models.AuditRecord
	failures int
}

func (a *fakeAudit) Save(ctx context.Context, in *models.AuditRecord) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.failures > 0 {
		a.failures--
		return errors.New("mongo: server selection timeout")
	}

	if a.records == nil {
		a.records = make(map[string]*models.AuditRecord)
	}
	a.records[in.EventUUID] = in
	return nil
}

func (a *fakeAudit) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.records)
}

func ledgerMessage(t *testing.T, uuid string, offset int64) kafka.Message {
	t.Helper()
	e, err := models.NewOutboxEvent(uuid, models.TransferCommittedEventName, 1, &models.LedgerEventPayload{
		TransferID:    offset + 1,
		FromAccountID: 1,
		ToAccountID:   2,
		Amount:        decimal.RequireFromString("12.34"),
		Balance:       decimal.RequireFromString("87.66"),
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatal(err)
	}

	b, err := events.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}

	return kafka.Message{Value: b, Offset: offset}
}

func testLogger(t *testing.T) *logging.ZapLogger {
	return logging.NewZapLoggerFrom(zaptest.NewLogger(t))
}

func TestProcessMessageStoresRecord(t *testing.T) {
	reader := newFakeReader(ledgerMessage(t, "e-1", 7))
	audit := &fakeAudit{}
	cns := newConsumer(reader, audit, testLogger(t), time.Millisecond)

	if err := cns.processMessage(context.Background()); err != nil {
		t.Fatal(err)
	}

	rec := audit.records["e-1"]
	if rec == nil {
		t.Fatal("record not stored")
	}
	if rec.EventName != models.TransferCommittedEventName || rec.Amount.String() != "12.34" || rec.TransferID != 8 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if got := reader.commits(); len(got) != 1 || got[0] != 7 {
		t.Fatalf("commits=%v want=[7]", got)
	}
}

func TestProcessMessageSkipsMalformed(t *testing.T) {
	reader := newFakeReader(kafka.Message{Value: []byte("garbage"), Offset: 3})
	audit := &fakeAudit{}
	cns := newConsumer(reader, audit, testLogger(t), time.Millisecond)

	if err := cns.processMessage(context.Background()); err != nil {
		t.Fatal(err)
	}

	if audit.count() != 0 {
		t.Fatal("malformed message stored")
	}
	if got := reader.commits(); len(got) != 1 || got[0] != 3 {
		t.Fatalf("commits=%v want=[3]", got)
	}
}

func TestProcessMessageRetriesSave(t *testing.T) {
	reader := newFakeReader(ledgerMessage(t, "e-1", 0))
	audit := &fakeAudit{failures: 2}
	cns := newConsumer(reader, audit, testLogger(t), time.Millisecond)

	if err := cns.processMessage(context.Background()); err != nil {
		t.Fatal(err)
	}

	if audit.count() != 1 || len(reader.commits()) != 1 {
		t.Fatalf("records=%d commits=%v", audit.count(), reader.commits())
	}
}

func TestProcessMessageDoesNotCommitUnsaved(t *testing.T) {
	reader := newFakeReader(ledgerMessage(t, "e-1", 0))
	audit := &fakeAudit{failures: 1 << 30}
	cns := newConsumer(reader, audit, testLogger(t), time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := cns.processMessage(ctx); err == nil {
		t.Fatal("expected save error")
	}
	if got := reader.commits(); len(got) != 0 {
		t.Fatalf("commits=%v want none", got)
	}
}

func TestConsumerStartStop(t *testing.T) {
	reader := newFakeReader(ledgerMessage(t, "e-1", 0), ledgerMessage(t, "e-2", 1))
	audit := &fakeAudit{}
	cns := newConsumer(reader, audit, testLogger(t), time.Millisecond)

	cns.Start()

	deadline := time.After(5 * time.Second)
	for audit.count() < 2 {
		select {
		case <-deadline:
			t.Fatalf("records=%d want=2", audit.count())
		case <-time.After(5 * time.Millisecond):
		}
	}

	if err := cns.Stop(); err != nil {
		t.Fatal(err)
	}
	if !reader.closed {
		t.Fatal("reader not closed")
	}
}
