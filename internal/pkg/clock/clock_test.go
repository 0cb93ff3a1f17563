package clock

import (
	"testing"
	"time"
)

func TestManual_AdvanceAndSet(t *testing.T) {
	c := AtMillis(5000)
	if got := c.Now().UnixMilli(); got != 5000 {
		t.Fatalf("expected 5000, got %d", got)
	}

	c.Advance(6 * time.Minute)
	if got := c.Now().UnixMilli(); got != 5000+360000 {
		t.Fatalf("unexpected time after advance: %d", got)
	}

	c.Set(time.UnixMilli(0))
	if got := c.Now().UnixMilli(); got != 0 {
		t.Fatalf("expected 0 after set, got %d", got)
	}
}
