package volume

import "sync"

// Allocator selects where a volume's samples live and how Dispose treats them.
type Allocator int

const (
	// Persistent buffers are owned by the volume for its whole life.
	Persistent Allocator = iota
	// Scratch buffers are short lived; Dispose hands them back for reuse by
	// the next scratch volume of the same length.
	Scratch
)

func (a Allocator) String() string {
	switch a {
	case Persistent:
		return "persistent"
	case Scratch:
		return "scratch"
	default:
		return "unknown"
	}
}

func (a Allocator) allocate(length int) []byte {
	if a == Scratch {
		return scratchBuffers.get(length)
	}
	return make([]byte, length)
}

func (a Allocator) release(buf []byte) {
	if a == Scratch {
		scratchBuffers.put(buf)
	}
}

// bufferPool keeps one sync.Pool per buffer length so chunk-sized volumes
// are recycled between mesh generation passes.
type bufferPool struct {
	mu    sync.Mutex
	pools map[int]*sync.Pool
}

var scratchBuffers = &bufferPool{pools: make(map[int]*sync.Pool)}

func (p *bufferPool) pool(length int) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()
	pool, ok := p.pools[length]
	if !ok {
		pool = &sync.Pool{New: func() any {
			buf := make([]byte, length)
			return &buf
		}}
		p.pools[length] = pool
	}
	return pool
}

func (p *bufferPool) get(length int) []byte {
	buf := *p.pool(length).Get().(*[]byte)
	clear(buf)
	return buf
}

func (p *bufferPool) put(buf []byte) {
	if len(buf) == 0 {
		return
	}
	p.pool(len(buf)).Put(&buf)
}
