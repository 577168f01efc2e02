package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"
	"time"
)

func TestLRUCacheEviction(t *testing.T) {
	c := NewLRUCache[string](3, time.Hour)

	c.Set("key1", "value1")
	c.Set("key2", "value2")
	c.Set("key3", "value3")
	c.Get("key1") // key2 becomes least recently used
	c.Set("key4", "value4")

	if _, found := c.Get("key2"); found {
		t.Error("key2 should have been evicted")
	}
	for _, k := range []string{"key1", "key3", "key4"} {
		if _, found := c.Get(k); !found {
			t.Errorf("%s should still exist", k)
		}
	}
	if c.Size() != 3 {
		t.Errorf("Size() = %d, want 3", c.Size())
	}
}

func TestLRUCacheTTL(t *testing.T) {
	c := NewLRUCache[int](10, 20*time.Millisecond)
	c.Set("a", 1)
	c.Set("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("Get(a) = %v, %v", v, ok)
	}

	time.Sleep(40 * time.Millisecond)

	if _, ok := c.Get("a"); ok {
		t.Error("a should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Errorf("CleanExpired() = %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Errorf("Size() = %d, want 0", c.Size())
	}
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)
	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("kid:%d", i), i)
	}
	c.Set("kiddo:0", 9)

	if n := c.DeletePrefix("kid:"); n != 3 {
		t.Errorf("DeletePrefix() = %d, want 3", n)
	}
	if _, ok := c.Get("kiddo:0"); !ok {
		t.Error("kiddo:0 should survive")
	}
}

func TestLRUCacheStats(t *testing.T) {
	c := NewLRUCache[string](0, time.Hour)
	c.Set("k", "v")
	c.Get("k")
	c.Get("missing")
	c.Set("k2", "v2") // capacity clamps to 1

	s := c.Stats()
	if s.Hits != 1 || s.Misses != 1 || s.Size != 1 {
		t.Errorf("Stats() = %+v", s)
	}
}

func TestManagerCleanOnce(t *testing.T) {
	c := NewLRUCache[int](5, time.Nanosecond)
	c.Set("x", 1)
	time.Sleep(time.Millisecond)

	m := NewManager(nil)
	m.Register("test", c)
	if n := m.CleanOnce(); n != 1 {
		t.Errorf("CleanOnce() = %d, want 1", n)
	}

	m.StartCleanup(time.Millisecond)
	m.Stop()
}

func TestManagerLogStats(t *testing.T) {
	c := NewLRUCache[int](5, time.Hour)
	c.Set("x", 1)
	c.Get("x")
	c.Get("y")

	var buf bytes.Buffer
	m := NewManager(slog.New(slog.NewJSONHandler(&buf, nil)))
	m.Register("overview", c)
	m.LogStats()

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["msg"] != "Cache stats" || line["cache"] != "overview" {
		t.Errorf("unexpected log line %v", line)
	}
	if line["hits"] != float64(1) || line["misses"] != float64(1) || line["size"] != float64(1) {
		t.Errorf("unexpected counters %v", line)
	}
}

func BenchmarkLRUCacheGet(b *testing.B) {
	c := NewLRUCache[int](128, time.Hour)
	for i := 0; i < 128; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		c.Get(fmt.Sprintf("k%d", i%128))
	}
}
