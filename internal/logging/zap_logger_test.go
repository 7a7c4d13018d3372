package logging

import (
	"context"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestWithContextFieldsAreAttached(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lg := NewZapLoggerFrom(zap.New(core))

	ctx := lg.WithContextFields(context.Background(), zap.String("name", "outbox_daemon"))
	wctx := lg.WithContextFields(ctx, zap.Int("worker_id", 3))

	lg.InfoCtx(wctx, "tick", zap.String("event_uuid", "e-1"))
	lg.DebugCtx(ctx, "parent")

	entries := logs.All()
	if len(entries) != 2 {
		t.Fatalf("entries=%d want=2", len(entries))
	}

	got := entries[0].ContextMap()
	if got["name"] != "outbox_daemon" || got["worker_id"] != int64(3) || got["event_uuid"] != "e-1" {
		t.Fatalf("unexpected fields %+v", got)
	}

	// the parent context must not see fields added by the child
	if _, ok := entries[1].ContextMap()["worker_id"]; ok {
		t.Fatalf("parent context leaked child field: %+v", entries[1].ContextMap())
	}
}

func TestLevelFiltering(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	lg := NewZapLoggerFrom(zap.New(core))

	lg.DebugCtx(context.Background(), "dropped")
	lg.InfoCtx(context.Background(), "dropped")
	lg.WarnCtx(context.Background(), "kept")
	lg.ErrorCtx(context.Background(), "kept")

	if n := logs.FilterMessage("kept").Len(); n != 2 {
		t.Fatalf("kept=%d want=2", n)
	}
	if n := logs.FilterMessage("dropped").Len(); n != 0 {
		t.Fatalf("dropped=%d want=0", n)
	}
}

func TestKafkaErrorLoggerPrintf(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	lg := NewKafkaErrorLogger(NewZapLoggerFrom(zap.New(core)))

	lg.Printf("broker %s unreachable", "127.0.0.1:9092")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("entries=%d want=1", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel || entries[0].Message != "broker 127.0.0.1:9092 unreachable" {
		t.Fatalf("unexpected entry %+v", entries[0])
	}
	if entries[0].ContextMap()["name"] != "kafka" {
		t.Fatalf("missing name field %+v", entries[0].ContextMap())
	}
}
