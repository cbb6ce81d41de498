package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

// restore puts back the timeouts in effect when the test started.
func restore(t *testing.T) {
	saved := Current()
	t.Cleanup(func() { Configure(saved) })
}

func TestConfigure(t *testing.T) {
	restore(t)
	if got := Current(); got != (Config{DefaultPing, DefaultShort, DefaultRender, DefaultReconcile}) {
		t.Errorf("Current() before Configure = %+v, want defaults", got)
	}

	Configure(Config{Short: time.Second, Render: 0})
	if Short() != time.Second {
		t.Errorf("Short() = %v, want 1s", Short())
	}
	if Render() != DefaultRender {
		t.Errorf("Render() = %v, want default %v", Render(), DefaultRender)
	}

	Configure(Config{Short: -time.Second})
	if Short() != time.Second {
		t.Errorf("Short() after negative Configure = %v, want 1s kept", Short())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	restore(t)
	t.Setenv("STRATADASH_TIMEOUT_PING", "750ms")
	t.Setenv("STRATADASH_TIMEOUT_RENDER", "1m")
	t.Setenv("STRATADASH_TIMEOUT_SHORT", "nonsense")
	t.Setenv("STRATADASH_TIMEOUT_RECONCILE", "-5s")

	if n := ConfigureFromEnv(); n != 2 {
		t.Errorf("ConfigureFromEnv() = %d, want 2", n)
	}
	if Ping() != 750*time.Millisecond {
		t.Errorf("Ping() = %v", Ping())
	}
	if Render() != time.Minute {
		t.Errorf("Render() = %v", Render())
	}
	if Short() != DefaultShort || Reconcile() != DefaultReconcile {
		t.Errorf("invalid values applied: short=%v reconcile=%v", Short(), Reconcile())
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.NewNop(), "test")
	<-ctx.Done()
	cancel()
	if ctx.Err() != context.DeadlineExceeded {
		t.Errorf("ctx.Err() = %v, want DeadlineExceeded", ctx.Err())
	}
}
