package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryProgressCache(t *testing.T) {
	c := NewMemoryProgressCache(time.Hour)
	defer c.Close()
	ctx := context.Background()

	if _, ok, _ := c.GetProgress(ctx, "lec"); ok {
		t.Fatalf("empty cache should miss")
	}
	if err := c.SetProgress(ctx, "lec", 0.42); err != nil {
		t.Fatal(err)
	}
	p, ok, err := c.GetProgress(ctx, "lec")
	if err != nil || !ok || p != 0.42 {
		t.Fatalf("got %v, %v, %v", p, ok, err)
	}
	if err := c.ClearProgress(ctx, "lec"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.GetProgress(ctx, "lec"); ok {
		t.Fatalf("cleared entry should miss")
	}
}

func TestMemoryProgressCacheExpiry(t *testing.T) {
	c := NewMemoryProgressCache(10 * time.Millisecond)
	defer c.Close()
	ctx := context.Background()

	_ = c.SetProgress(ctx, "lec", 0.5)
	time.Sleep(30 * time.Millisecond)
	if _, ok, _ := c.GetProgress(ctx, "lec"); ok {
		t.Fatalf("expired entry should miss")
	}
}
