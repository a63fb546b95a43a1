package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingSyncer struct {
	calls atomic.Int32
	limit atomic.Int32
}

func (c *countingSyncer) ProcessPending(_ context.Context, limit int) (int, error) {
	c.calls.Add(1)
	c.limit.Store(int32(limit))
	return 0, nil
}

func TestDefaultSyncProcessorConfig(t *testing.T) {
	config := DefaultSyncProcessorConfig()
	if config.PollInterval != 30*time.Second {
		t.Errorf("expected PollInterval 30s, got %v", config.PollInterval)
	}
	if config.BatchSize != 20 {
		t.Errorf("expected BatchSize 20, got %d", config.BatchSize)
	}
}

func TestNewSyncProcessor_FillsDefaults(t *testing.T) {
	p := NewSyncProcessor(&countingSyncer{}, SyncProcessorConfig{BatchSize: 5})
	if p.config.PollInterval != 30*time.Second || p.config.BatchSize != 5 {
		t.Errorf("unexpected config %+v", p.config)
	}
}

func TestSyncProcessor_Lifecycle(t *testing.T) {
	syncer := &countingSyncer{}
	p := NewSyncProcessor(syncer, SyncProcessorConfig{PollInterval: 10 * time.Millisecond, BatchSize: 7})
	ctx := context.Background()

	if p.IsRunning() {
		t.Fatal("processor should not be running initially")
	}
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("Stop should not error when not running: %v", err)
	}

	if err := p.Start(ctx); err != nil {
		t.Fatal(err)
	}
	if err := p.Start(ctx); err == nil {
		t.Fatal("expected error when starting an already running processor")
	}

	deadline := time.Now().Add(2 * time.Second)
	for syncer.calls.Load() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if syncer.calls.Load() < 2 {
		t.Fatalf("expected the loop to poll repeatedly, got %d calls", syncer.calls.Load())
	}
	if syncer.limit.Load() != 7 {
		t.Errorf("batch size not passed through: %d", syncer.limit.Load())
	}

	stopCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatal(err)
	}
	if p.IsRunning() {
		t.Fatal("processor should be stopped")
	}
}
