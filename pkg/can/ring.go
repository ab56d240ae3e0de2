package can

// Gate provides the mutual exclusion used around the ring's count updates.
// On hardware it masks the bus interrupt; in-process deployments back it
// with a mutex. Guarded sections must stay short and bounded, and must not
// be re-entered from the same interrupt source.
type Gate interface {
	Mask()
	Unmask()
}

// NopGate is a Gate for single-context use.
type NopGate struct{}

// Mask implements Gate.
func (NopGate) Mask() {}

// Unmask implements Gate.
func (NopGate) Unmask() {}

// Capacity is the fixed number of frames a Ring holds.
const Capacity = 8

// Ring is a fixed-capacity FIFO of frames shared between one producer and
// one consumer running in different execution contexts. The head index is
// owned by the producer and the tail index by the consumer; only the count
// is shared, and every count access goes through the gate. No allocation
// happens after construction.
type Ring struct {
	gate  Gate
	buf   [Capacity]Frame
	head  int
	tail  int
	count int
}

// NewRing creates an empty ring guarded by gate. A nil gate means
// single-context use.
func NewRing(gate Gate) *Ring {
	if gate == nil {
		gate = NopGate{}
	}
	return &Ring{gate: gate}
}

// Put appends a frame. It returns false, leaving the ring unchanged, when
// the ring is full. Put is safe against a concurrent Get from the other
// context: the count can only shrink between the full check and the insert.
func (r *Ring) Put(f Frame) bool {
	if r.Len() >= Capacity {
		return false
	}
	r.buf[r.head] = f
	r.head = (r.head + 1) % Capacity
	r.gate.Mask()
	r.count++
	r.gate.Unmask()
	return true
}

// PutFront inserts a frame at the read end, so the next Get returns it.
// It moves the tail index and therefore must run in the consumer's context.
func (r *Ring) PutFront(f Frame) bool {
	if r.Len() >= Capacity {
		return false
	}
	r.tail = (r.tail + Capacity - 1) % Capacity
	r.buf[r.tail] = f
	r.gate.Mask()
	r.count++
	r.gate.Unmask()
	return true
}

// Get removes and returns the oldest frame. The second result is false when
// the ring is empty.
func (r *Ring) Get() (Frame, bool) {
	if r.Len() == 0 {
		return Frame{}, false
	}
	f := r.buf[r.tail]
	r.tail = (r.tail + 1) % Capacity
	r.gate.Mask()
	r.count--
	r.gate.Unmask()
	return f, true
}

// Len returns the number of queued frames.
func (r *Ring) Len() int {
	r.gate.Mask()
	n := r.count
	r.gate.Unmask()
	return n
}

// Clear drops all queued frames. It moves both indices, so the caller must
// quiesce the other context first.
func (r *Ring) Clear() {
	r.gate.Mask()
	r.head, r.tail, r.count = 0, 0, 0
	r.gate.Unmask()
}
