package cache

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_PutGet(t *testing.T) {
	s := openTemp(t)

	if err := s.Put("https://example.com", []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	data, ok := s.Get("https://example.com", time.Hour)
	if !ok {
		t.Fatal("expected a cache hit")
	}
	if string(data) != `{"ok":true}` {
		t.Errorf("data = %s", data)
	}

	if _, ok := s.Get("https://missing.example.com", time.Hour); ok {
		t.Error("expected a miss for unknown URL")
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	s := openTemp(t)

	if err := s.Put("https://example.com", []byte(`1`)); err != nil {
		t.Fatal(err)
	}

	// Any positive age exceeds a 1ns TTL.
	time.Sleep(2 * time.Millisecond)
	if _, ok := s.Get("https://example.com", time.Nanosecond); ok {
		t.Error("expected expired entry to miss")
	}

	// Zero TTL disables expiry.
	if _, ok := s.Get("https://example.com", 0); !ok {
		t.Error("expected hit with expiry disabled")
	}
}

func TestStore_DeleteAndLen(t *testing.T) {
	s := openTemp(t)

	_ = s.Put("a", []byte(`1`))
	_ = s.Put("b", []byte(`2`))

	if n, _ := s.Len(); n != 2 {
		t.Errorf("Len() = %d, want 2", n)
	}
	if err := s.Delete("a"); err != nil {
		t.Fatal(err)
	}
	if n, _ := s.Len(); n != 1 {
		t.Errorf("Len() = %d, want 1", n)
	}
	if _, ok := s.Get("a", time.Hour); ok {
		t.Error("deleted entry still readable")
	}
}

func TestStore_Overwrite(t *testing.T) {
	s := openTemp(t)

	_ = s.Put("u", []byte(`"old"`))
	_ = s.Put("u", []byte(`"new"`))

	data, ok := s.Get("u", time.Hour)
	if !ok || string(data) != `"new"` {
		t.Errorf("data = %s, ok = %v", data, ok)
	}
}

func TestStore_CloseDuringUse(t *testing.T) {
	s := openTemp(t)
	if err := s.Put("https://example.com", []byte(`"x"`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	// Close must be safe while reads and writes are in flight; late
	// operations degrade to ErrClosed or a miss.
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 50; j++ {
				s.Get("https://example.com", 0)
				_ = s.Put("https://example.com", []byte(`"y"`))
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-start
		_ = s.Close()
	}()

	close(start)
	wg.Wait()

	if _, ok := s.Get("https://example.com", 0); ok {
		t.Error("closed store served a hit")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
}

func TestStore_ClosedOps(t *testing.T) {
	s := openTemp(t)
	s.Close()

	if err := s.Put("u", []byte(`1`)); err != ErrClosed {
		t.Errorf("Put on closed store = %v, want ErrClosed", err)
	}
	if _, ok := s.Get("u", time.Hour); ok {
		t.Error("Get on closed store should miss")
	}
}
