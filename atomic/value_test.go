package atomic_test

import (
	"sync"
	"testing"

	"github.com/nabbar/x0d/atomic"
)

func TestStoreLoad(t *testing.T) {
	v := atomic.NewValue[int]()
	v.Store(42)
	if v.Load() != 42 {
		t.Fatalf("expected 42, got %d", v.Load())
	}
}

func TestUpdateConcurrent(t *testing.T) {
	v := atomic.NewValueDefault[int](0)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v.Update(func(n int) int { return n + 1 })
		}()
	}
	wg.Wait()

	if v.Load() != 100 {
		t.Fatalf("expected 100, got %d", v.Load())
	}
}
