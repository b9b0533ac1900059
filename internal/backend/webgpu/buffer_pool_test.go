package webgpu

import (
	"errors"
	"testing"
)

type fakeBuffer struct {
	id    int
	size  uint64
	freed bool
}

func newFakePool() (*bufferPool[*fakeBuffer], *[]*fakeBuffer) {
	var created []*fakeBuffer
	pool := newBufferPool(
		func(size, _ uint64) (*fakeBuffer, error) {
			b := &fakeBuffer{id: len(created), size: size}
			created = append(created, b)
			return b, nil
		},
		func(b *fakeBuffer) { b.freed = true },
	)
	return pool, &created
}

func TestBufferPoolAcquireRelease(t *testing.T) {
	pool, created := newFakePool()
	const usage = 0x80

	buf1, capacity, err := pool.Acquire(1024, usage)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if capacity != 1024 {
		t.Errorf("Expected capacity 1024, got %d", capacity)
	}
	stats := pool.Stats()
	if stats.Allocated != 1 || stats.Misses != 1 || stats.Hits != 0 {
		t.Errorf("Unexpected stats after first acquire: %+v", stats)
	}

	pool.Release(buf1, capacity, usage)
	if got := pool.Stats().Pooled; got != 1 {
		t.Errorf("Expected 1 pooled buffer, got %d", got)
	}

	// A smaller request in the same class reuses the buffer.
	buf2, capacity, err := pool.Acquire(512, usage)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if buf2 != buf1 {
		t.Error("Expected the pooled buffer to be reused")
	}
	if capacity != 1024 {
		t.Errorf("Expected reused capacity 1024, got %d", capacity)
	}
	stats = pool.Stats()
	if stats.Hits != 1 || stats.Allocated != 1 || stats.Pooled != 0 {
		t.Errorf("Unexpected stats after reuse: %+v", stats)
	}
	if len(*created) != 1 {
		t.Errorf("Expected 1 created buffer, got %d", len(*created))
	}
}

func TestBufferPoolUsageMustMatch(t *testing.T) {
	pool, _ := newFakePool()

	buf, capacity, _ := pool.Acquire(256, 1)
	pool.Release(buf, capacity, 1)

	other, _, _ := pool.Acquire(256, 2)
	if other == buf {
		t.Error("Buffer with different usage must not be reused")
	}
}

func TestBufferPoolCategories(t *testing.T) {
	tests := []struct {
		size uint64
		want sizeClass
	}{
		{16, smallClass},
		{smallThreshold - 1, smallClass},
		{smallThreshold, mediumClass},
		{mediumThreshold, largeClass},
	}
	for _, tt := range tests {
		if got := categorize(tt.size); got != tt.want {
			t.Errorf("categorize(%d) = %d, want %d", tt.size, got, tt.want)
		}
	}
}

func TestBufferPoolFullClassDestroys(t *testing.T) {
	pool, _ := newFakePool()

	bufs := make([]*fakeBuffer, maxPoolSize+1)
	for i := range bufs {
		bufs[i], _, _ = pool.Acquire(64, 1)
	}
	for _, b := range bufs {
		pool.Release(b, 64, 1)
	}
	if got := pool.Stats().Pooled; got != maxPoolSize {
		t.Errorf("Expected %d pooled buffers, got %d", maxPoolSize, got)
	}
	if !bufs[maxPoolSize].freed {
		t.Error("Overflowing buffer should be destroyed")
	}

	pool.Clear()
	if got := pool.Stats().Pooled; got != 0 {
		t.Errorf("Expected empty pool after Clear, got %d", got)
	}
	for i, b := range bufs {
		if !b.freed {
			t.Errorf("Buffer %d not destroyed by Clear", i)
		}
	}
}

func TestBufferPoolCreateError(t *testing.T) {
	boom := errors.New("out of memory")
	pool := newBufferPool(
		func(uint64, uint64) (*fakeBuffer, error) { return nil, boom },
		func(*fakeBuffer) {},
	)
	if _, _, err := pool.Acquire(64, 1); !errors.Is(err, boom) {
		t.Errorf("Expected create error, got %v", err)
	}
	if got := pool.Stats().Allocated; got != 0 {
		t.Errorf("Failed creates must not count as allocations, got %d", got)
	}
}
