package webgpu

import "sync"

// sizeClass groups pooled buffers by byte size.
type sizeClass int

const (
	smallClass  sizeClass = iota // < 4KB
	mediumClass                  // 4KB-1MB
	largeClass                   // > 1MB
)

const (
	smallThreshold  = 4 * 1024
	mediumThreshold = 1024 * 1024
	maxPoolSize     = 64 // per class
)

type pooledBuffer[B any] struct {
	buffer B
	size   uint64
	usage  uint64
}

// PoolStats reports buffer pool activity.
type PoolStats struct {
	Allocated uint64
	Released  uint64
	Hits      uint64
	Misses    uint64
	Pooled    int
}

// bufferPool reuses device buffers across launches. It is generic over the
// binding's buffer type so both native backends share it; usage flags are
// carried as plain integers.
type bufferPool[B any] struct {
	create  func(size, usage uint64) (B, error)
	destroy func(B)

	mu      sync.Mutex
	classes [3][]pooledBuffer[B]
	stats   PoolStats
}

func newBufferPool[B any](create func(size, usage uint64) (B, error), destroy func(B)) *bufferPool[B] {
	return &bufferPool[B]{create: create, destroy: destroy}
}

// Acquire returns a pooled buffer of at least size bytes with exactly the
// requested usage, or creates one.
func (p *bufferPool[B]) Acquire(size, usage uint64) (B, uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	class := categorize(size)
	pool := p.classes[class]
	for i, pb := range pool {
		if pb.size >= size && pb.usage == usage {
			p.classes[class] = append(pool[:i], pool[i+1:]...)
			p.stats.Hits++
			return pb.buffer, pb.size, nil
		}
	}

	p.stats.Misses++
	buf, err := p.create(size, usage)
	if err != nil {
		var zero B
		return zero, 0, err
	}
	p.stats.Allocated++
	return buf, size, nil
}

// Release returns a buffer to the pool, destroying it if its class is full.
func (p *bufferPool[B]) Release(buf B, size, usage uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Released++
	class := categorize(size)
	if len(p.classes[class]) >= maxPoolSize {
		p.destroy(buf)
		return
	}
	p.classes[class] = append(p.classes[class], pooledBuffer[B]{buffer: buf, size: size, usage: usage})
}

// Clear destroys every pooled buffer.
func (p *bufferPool[B]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for c := range p.classes {
		for _, pb := range p.classes[c] {
			p.destroy(pb.buffer)
		}
		p.classes[c] = p.classes[c][:0]
	}
}

// Stats returns a snapshot of pool counters.
func (p *bufferPool[B]) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := p.stats
	for _, c := range p.classes {
		s.Pooled += len(c)
	}
	return s
}

func categorize(size uint64) sizeClass {
	switch {
	case size < smallThreshold:
		return smallClass
	case size < mediumThreshold:
		return mediumClass
	default:
		return largeClass
	}
}
