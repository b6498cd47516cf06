package worker

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_AllowWithinBurst(t *testing.T) {
	l := NewLimiter(1, 3)

	allowed := 0
	for i := 0; i < 5; i++ {
		if l.Allow("https://blockstream.info/api/tx/abc") {
			allowed++
		}
	}

	if allowed != 3 {
		t.Errorf("Expected burst of 3 allowed requests, got %d", allowed)
	}
}

func TestLimiter_HostsAreIndependent(t *testing.T) {
	l := NewLimiter(1, 1)

	if !l.Allow("https://blockstream.info/api/tx/abc") {
		t.Error("Expected first request to blockstream.info to pass")
	}
	if l.Allow("https://blockstream.info/api/tx/def") {
		t.Error("Expected second request to the same host to be throttled")
	}
	if !l.Allow("https://mempool.space/api/tx/abc") {
		t.Error("Expected a different host to have its own budget")
	}
}

func TestLimiter_WaitHonorsContext(t *testing.T) {
	l := NewLimiter(0.01, 1) // one request per 100 seconds

	// First request consumes the burst.
	if err := l.Wait(context.Background(), "https://blockstream.info/api"); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "https://blockstream.info/api"); err == nil {
		t.Error("Expected Wait to fail once the context deadline passed")
	}
}

func TestLimiter_RejectsHostlessURL(t *testing.T) {
	l := NewLimiter(1, 1)

	if err := l.Wait(context.Background(), "not-a-url"); err == nil {
		t.Error("Expected error for URL without a host")
	}
	if l.Allow("/relative/path") {
		t.Error("Expected hostless URL to be rejected")
	}
}
