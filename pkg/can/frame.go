package can

// Frame is a classical CAN frame: 11-bit standard or 29-bit extended
// identifier and up to 8 payload bytes. Frames are immutable values,
// created once per send or receive and consumed once.
type Frame struct {
	ID       uint32
	Extended bool
	Len      uint8
	Data     [8]byte
}

// NewFrame builds a frame from an identifier and payload. Payloads longer
// than 8 bytes are truncated; unused data bytes stay zero.
func NewFrame(id uint32, extended bool, data []byte) Frame {
	f := Frame{ID: id, Extended: extended}
	if len(data) > len(f.Data) {
		data = data[:len(f.Data)]
	}
	f.Len = uint8(copy(f.Data[:], data))
	return f
}

// Payload returns the valid portion of the data bytes.
func (f Frame) Payload() []byte {
	if f.Len > 8 {
		return f.Data[:]
	}
	return f.Data[:f.Len]
}
