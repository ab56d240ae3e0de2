package sim

import (
	"sync"

	"github.com/golang/glog"
	"github.com/robotalks/brake.go/pkg/can"
)

// Bus is a loopback transceiver. Submitted frames are handed to Output,
// which typically forwards them to a monitoring bridge.
type Bus struct {
	// Output receives every submitted frame. Nil output discards.
	Output func(can.Frame)

	mu   sync.Mutex
	busy bool
}

// SetBusy forces the transceiver to reject submissions, emulating a bus
// with no free mailbox.
func (b *Bus) SetBusy(busy bool) {
	b.mu.Lock()
	b.busy = busy
	b.mu.Unlock()
}

// Submit implements can.Transceiver.
func (b *Bus) Submit(f can.Frame) error {
	b.mu.Lock()
	busy := b.busy
	b.mu.Unlock()
	if busy {
		return can.ErrBusy
	}
	glog.V(4).Infof("tx id=%08x len=%d", f.ID, f.Len)
	if b.Output != nil {
		b.Output(f)
	}
	return nil
}
