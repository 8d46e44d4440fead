package cache

import (
	"errors"
	"testing"
	"time"
)

// fakeClock lets tests advance time without sleeping.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func testCache(ttl time.Duration) (*Cache[string], *fakeClock) {
	clk := &fakeClock{now: time.Unix(1000, 0)}
	c := NewWithTTL[string](ttl)
	c.now = func() time.Time { return clk.now }
	return c, clk
}

func TestGetOrFetchCachesWithinTTL(t *testing.T) {
	c, clk := testCache(300 * time.Second)

	calls := 0
	fetch := func() (string, error) {
		calls++
		return "value", nil
	}

	v, err := c.GetOrFetch("k", fetch)
	if err != nil || v != "value" {
		t.Fatalf("GetOrFetch = %q, %v", v, err)
	}

	clk.advance(299 * time.Second)
	v, _ = c.GetOrFetch("k", fetch)
	if v != "value" {
		t.Errorf("cached value = %q", v)
	}
	if calls != 1 {
		t.Errorf("fetch calls = %d, want 1", calls)
	}
}

func TestGetOrFetchRefetchesAfterTTL(t *testing.T) {
	c, clk := testCache(300 * time.Second)

	calls := 0
	fetch := func() (string, error) {
		calls++
		return "value", nil
	}

	_, _ = c.GetOrFetch("k", fetch)
	// An entry aged exactly TTL is expired, not borderline fresh.
	clk.advance(300 * time.Second)
	_, _ = c.GetOrFetch("k", fetch)

	if calls != 2 {
		t.Errorf("fetch calls = %d, want 2", calls)
	}
}

func TestFetchErrorNotStored(t *testing.T) {
	c, _ := testCache(300 * time.Second)

	wantErr := errors.New("boom")
	_, err := c.GetOrFetch("k", func() (string, error) { return "", wantErr })
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("failed fetch stored an entry: len = %d", c.Len())
	}

	v, err := c.GetOrFetch("k", func() (string, error) { return "recovered", nil })
	if err != nil || v != "recovered" {
		t.Errorf("recovery fetch = %q, %v", v, err)
	}
}

func TestInvalidateSingleKey(t *testing.T) {
	c, _ := testCache(300 * time.Second)

	_, _ = c.GetOrFetch("a", func() (string, error) { return "1", nil })
	_, _ = c.GetOrFetch("b", func() (string, error) { return "2", nil })

	c.Invalidate("a")

	calls := 0
	_, _ = c.GetOrFetch("a", func() (string, error) { calls++; return "1", nil })
	_, _ = c.GetOrFetch("b", func() (string, error) { calls++; return "2", nil })
	if calls != 1 {
		t.Errorf("fetch calls after single invalidate = %d, want 1", calls)
	}
}

func TestInvalidateAll(t *testing.T) {
	c, _ := testCache(300 * time.Second)

	_, _ = c.GetOrFetch("a", func() (string, error) { return "1", nil })
	_, _ = c.GetOrFetch("b", func() (string, error) { return "2", nil })

	c.InvalidateAll()
	if c.Len() != 0 {
		t.Errorf("len after InvalidateAll = %d", c.Len())
	}
}

func TestLazyEvictionOnAccess(t *testing.T) {
	c, clk := testCache(10 * time.Second)

	_, _ = c.GetOrFetch("stale", func() (string, error) { return "old", nil })
	clk.advance(time.Minute)

	// The expired entry stays resident until its key is touched again.
	if c.Len() != 1 {
		t.Fatalf("len before access = %d, want 1", c.Len())
	}
	v, _ := c.GetOrFetch("stale", func() (string, error) { return "new", nil })
	if v != "new" {
		t.Errorf("value after expiry = %q, want new", v)
	}
}
