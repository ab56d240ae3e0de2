package can

// Transceiver submits frames to the bus hardware. Submit returns ErrBusy
// when the hardware TX queue cannot take the frame right now.
type Transceiver interface {
	Submit(Frame) error
}

// Transport bridges the interrupt-context transceiver with the polling
// loop. Inbound frames flow HandleRx -> rx ring -> Receive; outbound frames
// flow Send -> tx ring -> Flush -> Transceiver. The polling loop is the
// sole caller of Send, Flush and Receive; HandleRx runs in the receive
// interrupt's context.
type Transport struct {
	bus  Transceiver
	gate Gate
	rx   *Ring
	tx   *Ring

	rxDropped uint32
}

// NewTransport creates a transport on top of a transceiver. The gate guards
// both rings and the drop counter.
func NewTransport(bus Transceiver, gate Gate) *Transport {
	if gate == nil {
		gate = NopGate{}
	}
	return &Transport{
		bus:  bus,
		gate: gate,
		rx:   NewRing(gate),
		tx:   NewRing(gate),
	}
}

// Send enqueues a frame for transmission. It returns ErrBufferFull when the
// outbound ring is full; the frame is then lost for this period.
func (t *Transport) Send(f Frame) error {
	if !t.tx.Put(f) {
		return ErrBufferFull
	}
	return nil
}

// Flush submits queued frames to the transceiver in FIFO order. On
// backpressure the just-dequeued frame goes back to the front of the ring,
// preserving order, and the cycle ends; the next Flush retries it.
func (t *Transport) Flush() {
	for {
		f, ok := t.tx.Get()
		if !ok {
			return
		}
		if err := t.bus.Submit(f); err != nil {
			t.tx.PutFront(f)
			return
		}
	}
}

// Receive dequeues the oldest inbound frame.
func (t *Transport) Receive() (Frame, bool) {
	return t.rx.Get()
}

// HandleRx is the receive-interrupt entry point. It normalizes the frame
// (length clamped to 8, unused payload bytes zero-filled) and enqueues it.
// When the inbound ring is full the newest frame is dropped and the drop
// counter advances.
func (t *Transport) HandleRx(f Frame) {
	if f.Len > 8 {
		f.Len = 8
	}
	for i := int(f.Len); i < len(f.Data); i++ {
		f.Data[i] = 0
	}
	if !t.rx.Put(f) {
		t.gate.Mask()
		t.rxDropped++
		t.gate.Unmask()
	}
}

// RxDropped reports the number of inbound frames discarded because the
// inbound ring was full. The counter is monotonic and never reset.
func (t *Transport) RxDropped() uint32 {
	t.gate.Mask()
	n := t.rxDropped
	t.gate.Unmask()
	return n
}

// RxPending returns the number of inbound frames waiting.
func (t *Transport) RxPending() int {
	return t.rx.Len()
}

// TxPending returns the number of frames waiting for transmission.
func (t *Transport) TxPending() int {
	return t.tx.Len()
}

// ClearTx discards all pending transmissions. Frames already accepted by
// the transceiver are still sent.
func (t *Transport) ClearTx() {
	t.tx.Clear()
}

// ClearRx discards all unread inbound frames.
func (t *Transport) ClearRx() {
	t.rx.Clear()
}
