package can

import "errors"

var (
	// ErrBufferFull indicates the outbound ring cannot take another frame.
	// The message for that period is lost; callers do not retry.
	ErrBufferFull = errors.New("can: buffer full")
	// ErrBusy indicates the transceiver's hardware TX queue is full.
	// The frame is kept and retried on the next flush cycle.
	ErrBusy = errors.New("can: transceiver busy")
)
