package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

// The shared browser must not be tied to any single call's context, or the
// first call's deferred cancel would kill it for every later job.
func TestRodBrowser_LifecycleOutlivesCallContext(t *testing.T) {
	logger := zerolog.Nop()
	b := NewRodBrowser(time.Second, &logger)

	callCtx, cancel := context.WithCancel(context.Background())
	cancel()

	select {
	case <-b.ctx.Done():
		t.Fatal("browser context done before Close")
	default:
	}

	if callCtx.Err() == nil {
		t.Fatal("call context should be cancelled")
	}

	if err := b.Close(); err != nil {
		t.Fatalf("Close() = %v", err)
	}

	select {
	case <-b.ctx.Done():
	default:
		t.Error("browser context still live after Close")
	}
}
