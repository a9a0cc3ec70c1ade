package cache

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/kruthika-chat/kruthika-go/internal/config"
	"github.com/kruthika-chat/kruthika-go/internal/models"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache(maxSize int) (*Cache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	c := NewCache(&config.CacheConfig{Enabled: true, TTL: 24 * time.Hour, MaxSize: maxSize}, nil)
	c.SetClock(clock.Now)
	return c, clock
}

func TestCacheRoundTripIsDeepCopy(t *testing.T) {
	c, _ := newTestCache(10)
	original := models.Reply{ResponseLines: []string{"one", "two"}, NewMood: "happy"}
	c.Set("hello", original, "happy", "morning")

	got, ok := c.Get("hello", "happy", "morning")
	if !ok {
		t.Fatalf("Get() ok = false")
	}
	if !reflect.DeepEqual(got, original) {
		t.Fatalf("Get() = %+v, want %+v", got, original)
	}

	got.ResponseLines[0] = "mutated"
	original.ResponseLines[1] = "also mutated"

	again, _ := c.Get("hello", "happy", "morning")
	if again.ResponseLines[0] != "one" || again.ResponseLines[1] != "two" {
		t.Fatalf("cached value changed through aliasing: %+v", again)
	}
}

func TestCacheKeyIncludesMoodAndTime(t *testing.T) {
	c, _ := newTestCache(10)
	c.Set("hello", models.Reply{ResponseLines: []string{"x"}}, "happy", "morning")

	if _, ok := c.Get("hello", "sad", "morning"); ok {
		t.Fatalf("different mood hit the same slot")
	}
	if _, ok := c.Get("hello", "happy", "night"); ok {
		t.Fatalf("different time of day hit the same slot")
	}
	if GenerateKey("a", "b", "c") != GenerateKey("a", "b", "c") {
		t.Fatalf("GenerateKey is not deterministic")
	}
}

func TestCacheTTL(t *testing.T) {
	c, clock := newTestCache(10)
	c.Set("hello", models.Reply{ResponseLines: []string{"x"}}, "", "")

	clock.Advance(24 * time.Hour)
	if _, ok := c.Get("hello", "", ""); !ok {
		t.Fatalf("entry expired at exactly the TTL")
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("hello", "", ""); ok {
		t.Fatalf("entry returned past its TTL")
	}
	if c.Len() != 0 {
		t.Fatalf("expired entry not purged on Get, Len() = %d", c.Len())
	}
}

func TestCacheCapacityEvictsOldest(t *testing.T) {
	const maxSize = 100
	c, _ := newTestCache(maxSize)
	for i := 0; i <= maxSize; i++ {
		c.Set(fmt.Sprintf("prompt-%d", i), models.Reply{ResponseLines: []string{fmt.Sprint(i)}}, "", "")
	}

	if c.Len() != maxSize {
		t.Fatalf("Len() = %d, want %d", c.Len(), maxSize)
	}
	if _, ok := c.Get("prompt-0", "", ""); ok {
		t.Fatalf("first inserted key still retrievable")
	}
	retrievable := 0
	for i := 0; i <= maxSize; i++ {
		if _, ok := c.Get(fmt.Sprintf("prompt-%d", i), "", ""); ok {
			retrievable++
		}
	}
	if retrievable != maxSize {
		t.Fatalf("retrievable = %d, want %d", retrievable, maxSize)
	}
}

func TestCachePurge(t *testing.T) {
	c, clock := newTestCache(10)
	c.Set("old", models.Reply{ResponseLines: []string{"x"}}, "", "")
	clock.Advance(23 * time.Hour)
	c.Set("new", models.Reply{ResponseLines: []string{"y"}}, "", "")
	clock.Advance(2 * time.Hour)

	if removed := c.Purge(); removed != 1 {
		t.Fatalf("Purge() = %d, want 1", removed)
	}
	if _, ok := c.Get("new", "", ""); !ok {
		t.Fatalf("fresh entry removed by Purge")
	}
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	c := NewCache(&config.CacheConfig{Enabled: false}, nil)
	c.Set("hello", models.Reply{ResponseLines: []string{"x"}}, "", "")
	if _, ok := c.Get("hello", "", ""); ok {
		t.Fatalf("disabled cache returned a hit")
	}
}

func TestStoreHitCount(t *testing.T) {
	s := NewStore[string](2, 0, nil)
	s.Set("a", "1")
	s.Get("a")
	s.Get("a")
	if got := s.Hits("a"); got != 2 {
		t.Fatalf("Hits() = %d, want 2", got)
	}
	s.Set("b", "2")
	s.Set("c", "3")
	if _, ok := s.Get("a"); ok {
		t.Fatalf("oldest entry survived eviction")
	}
}

func TestStoreReadsAndReplacesKeepInsertionOrder(t *testing.T) {
	s := NewStore[string](3, 0, nil)
	s.Set("a", "1")
	s.Set("b", "2")
	s.Set("c", "3")

	s.Get("a")
	s.Set("a", "1b")
	s.Set("d", "4")

	if _, ok := s.Get("a"); ok {
		t.Fatalf("read or replace moved the oldest entry out of eviction order")
	}
	for _, key := range []string{"b", "c", "d"} {
		if _, ok := s.Get(key); !ok {
			t.Fatalf("Get(%q) missing after eviction of the oldest entry", key)
		}
	}
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
}

func TestStoreReplaceRestartsTTL(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	s := NewStore[string](2, time.Hour, nil)
	s.SetClock(clock.Now)

	s.Set("a", "1")
	clock.Advance(50 * time.Minute)
	s.Set("a", "2")
	clock.Advance(50 * time.Minute)

	got, ok := s.Get("a")
	if !ok || got != "2" {
		t.Fatalf("Get() = %q, %v, want \"2\", true", got, ok)
	}
}

func TestGenerateKeySeparatorsDoNotCollide(t *testing.T) {
	cases := [][2][3]string{
		{{"a|b", "c", ""}, {"a", "b|c", ""}},
		{{"hello|happy", "", "morning"}, {"hello", "happy", "morning"}},
		{{"", "", "x"}, {"x", "", ""}},
	}
	for _, tc := range cases {
		a, b := tc[0], tc[1]
		if GenerateKey(a[0], a[1], a[2]) == GenerateKey(b[0], b[1], b[2]) {
			t.Errorf("GenerateKey(%q) == GenerateKey(%q)", a, b)
		}
	}

	c, _ := newTestCache(10)
	c.Set("a|b", models.Reply{ResponseLines: []string{"x"}}, "c", "")
	if _, ok := c.Get("a", "b|c", ""); ok {
		t.Fatalf("different prompt and mood shared a cache slot")
	}
}
