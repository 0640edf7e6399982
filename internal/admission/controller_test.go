package admission

import (
	"errors"
	"sync"
	"testing"

	"clippub/internal/services"
)

func TestTryAcquireSecondCallerGetsBusy(t *testing.T) {
	c := New(true)

	token, err := c.TryAcquire()
	if err != nil {
		t.Fatalf("first TryAcquire: %v", err)
	}
	if _, err := c.TryAcquire(); !errors.Is(err, services.ErrBusy) {
		t.Fatalf("second TryAcquire err = %v, want ErrBusy", err)
	}

	c.Release(token)
	if _, err := c.TryAcquire(); err != nil {
		t.Fatalf("TryAcquire after release: %v", err)
	}
}

func TestConcurrentAcquireAdmitsExactlyOne(t *testing.T) {
	c := New(true)

	const callers = 64
	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0
	busy := 0

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func() {
			defer wg.Done()
			token, err := c.TryAcquire()
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				admitted++
				_ = token
				return
			}
			if errors.Is(err, services.ErrBusy) {
				busy++
			}
		}()
	}
	wg.Wait()

	if admitted != 1 {
		t.Fatalf("admitted = %d, want exactly 1", admitted)
	}
	if busy != callers-1 {
		t.Fatalf("busy = %d, want %d", busy, callers-1)
	}
}

func TestReleaseIsNilSafeAndIdempotentEnough(t *testing.T) {
	c := New(true)
	c.Release(nil)

	token, err := c.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	c.Release(token)
	// Slot must be free again.
	occupied, _ := c.Occupied()
	if occupied {
		t.Fatalf("slot still occupied after release")
	}
}

func TestDisabledGateAdmitsEveryone(t *testing.T) {
	c := New(false)
	for i := 0; i < 3; i++ {
		if _, err := c.TryAcquire(); err != nil {
			t.Fatalf("TryAcquire %d with gating disabled: %v", i, err)
		}
	}
	occupied, _ := c.Occupied()
	if occupied {
		t.Fatalf("disabled gate reports occupied")
	}
}

func TestOccupiedReflectsState(t *testing.T) {
	c := New(true)
	if occupied, _ := c.Occupied(); occupied {
		t.Fatalf("fresh controller occupied")
	}
	token, err := c.TryAcquire()
	if err != nil {
		t.Fatalf("TryAcquire: %v", err)
	}
	occupied, since := c.Occupied()
	if !occupied || since.IsZero() {
		t.Fatalf("Occupied = %v since=%v after acquire", occupied, since)
	}
	c.Release(token)
}
