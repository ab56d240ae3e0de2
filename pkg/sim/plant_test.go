package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/brake.go/pkg/can"
)

func TestPlantIntegration(t *testing.T) {
	p := NewPlant(200)
	require.Equal(t, uint16(200), p.Position())

	p.Drive(true, 100)
	p.mu.Lock()
	p.last = p.last.Add(-time.Second)
	p.mu.Unlock()
	pos := p.Position()
	require.True(t, pos > 200, "expected forward travel, at %d", pos)

	p.Stop()
	before := p.Position()
	p.mu.Lock()
	p.last = p.last.Add(-time.Second)
	p.mu.Unlock()
	require.Equal(t, before, p.Position())
}

func TestPlantClamp(t *testing.T) {
	p := NewPlant(4000)
	p.Drive(true, 100)
	p.mu.Lock()
	p.last = p.last.Add(-10 * time.Second)
	p.mu.Unlock()
	require.Equal(t, uint16(4095), p.Position())

	p.Drive(false, 100)
	p.mu.Lock()
	p.last = p.last.Add(-10 * time.Second)
	p.mu.Unlock()
	require.Equal(t, uint16(0), p.Position())
}

func TestBusBusy(t *testing.T) {
	var got []can.Frame
	b := &Bus{Output: func(f can.Frame) { got = append(got, f) }}
	require.NoError(t, b.Submit(can.NewFrame(0x100, false, []byte{1})))
	b.SetBusy(true)
	require.Equal(t, can.ErrBusy, b.Submit(can.NewFrame(0x101, false, nil)))
	b.SetBusy(false)
	require.NoError(t, b.Submit(can.NewFrame(0x102, false, nil)))
	require.Len(t, got, 2)
}
