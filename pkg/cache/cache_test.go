package cache

import (
	"testing"
	"time"
)

func TestSetAndGet(t *testing.T) {
	c := New()
	c.Set("setze weber auf 0,5", "parsed", time.Second)
	val, ok := c.Get("setze weber auf 0,5")
	if !ok || val != "parsed" {
		t.Fatalf("expected parsed, got %v, exists=%v", val, ok)
	}
}

func TestExpiredEntryIsEvicted(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 50*time.Millisecond)
	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Get("key1"); ok {
		t.Fatalf("expected expired key to return false")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be evicted, len=%d", c.Len())
	}
}

func TestNonPositiveTTLStoresNothing(t *testing.T) {
	c := New()
	c.Set("key1", "value1", 0)
	c.Set("key2", "value2", -time.Second)
	if c.Len() != 0 {
		t.Fatalf("expected nothing stored, len=%d", c.Len())
	}
}

func TestSetOverwrites(t *testing.T) {
	c := New()
	c.Set("key1", "old", time.Second)
	c.Set("key1", "new", time.Second)
	val, ok := c.Get("key1")
	if !ok || val != "new" {
		t.Fatalf("expected new, got %v", val)
	}
}
