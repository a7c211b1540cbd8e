package cache

import (
	"errors"
	"sync"
	"testing"
)

func TestMemoGetOrCreate(t *testing.T) {
	c := NewMemo[string, int]()
	createCalled := 0

	val, err := c.GetOrCreate("key1", func() (int, error) {
		createCalled++
		return 100, nil
	})
	if err != nil || val != 100 {
		t.Fatalf("GetOrCreate() = %d, %v, want 100, nil", val, err)
	}

	val, _ = c.GetOrCreate("key1", func() (int, error) {
		createCalled++
		return 200, nil
	})
	if val != 100 {
		t.Errorf("expected 100 (cached), got %d", val)
	}
	if createCalled != 1 {
		t.Errorf("expected create called once, got %d", createCalled)
	}

	s := c.Stats()
	if s.Len != 1 || s.Hits != 1 || s.Misses != 1 {
		t.Errorf("Stats() = %+v, want Len 1 Hits 1 Misses 1", s)
	}
	if got := s.HitRate(); got != 0.5 {
		t.Errorf("HitRate() = %v, want 0.5", got)
	}
}

func TestMemoCreateError(t *testing.T) {
	c := NewMemo[string, int]()
	boom := errors.New("boom")

	if _, err := c.GetOrCreate("k", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if c.Len() != 0 {
		t.Errorf("failed create was stored")
	}
	if _, ok := c.Get("k"); ok {
		t.Errorf("Get() found a failed key")
	}
}

func TestMemoDeleteFunc(t *testing.T) {
	c := NewMemo[int, int]()
	for i := 0; i < 10; i++ {
		_, _ = c.GetOrCreate(i, func() (int, error) { return i * i, nil })
	}

	removed := c.DeleteFunc(func(k, _ int) bool { return k%2 == 0 })
	if len(removed) != 5 {
		t.Errorf("removed %d entries, want 5", len(removed))
	}
	if c.Len() != 5 {
		t.Errorf("Len() = %d, want 5", c.Len())
	}
	if _, ok := c.Get(3); !ok {
		t.Error("odd key 3 was removed")
	}

	if n := len(c.Clear()); n != 5 {
		t.Errorf("Clear() returned %d, want 5", n)
	}
	if c.Len() != 0 {
		t.Errorf("Len() after Clear = %d", c.Len())
	}
}

func TestMemoConcurrentCreateOnce(t *testing.T) {
	c := NewMemo[int, int]()
	var mu sync.Mutex
	created := 0

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.GetOrCreate(7, func() (int, error) {
				mu.Lock()
				created++
				mu.Unlock()
				return 7, nil
			})
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("create called %d times, want 1", created)
	}
}
