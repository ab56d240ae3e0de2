package msgs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/brake.go/pkg/can"
)

func TestDecodeRoundTrip(t *testing.T) {
	testCases := []struct {
		name string
		msg  Message
	}{
		{
			name: "heartbeat",
			msg:  Heartbeat{NodeID: NodeDevice, Count: 0xDEADBEEF, Health: HealthWarning, Stamp: 0x1234},
		},
		{
			name: "command",
			msg:  BrakeCommand{State: Release, MsgID: 42, Stamp: 0xBEEF},
		},
		{
			name: "telemetry",
			msg:  BrakeTelemetry{MsgID: 7, Stamp: 0x0102, Pushing: true, TimeToEnd: 1500},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(tc.msg.MarshalCANFrame())
			require.NoError(t, err)
			require.Equal(t, tc.msg, got)
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	testCases := []struct {
		name   string
		frame  can.Frame
		expect error
	}{
		{
			name:   "unknown id",
			frame:  can.NewFrame(0x18FF0D99, true, []byte{1, 2, 3, 4}),
			expect: ErrUnknownID,
		},
		{
			name:   "short heartbeat",
			frame:  can.NewFrame(FrameIDHeartbeat, true, []byte{NodePeer, 0, 0}),
			expect: ErrShortPayload,
		},
		{
			name:   "bad health",
			frame:  can.NewFrame(FrameIDHeartbeat, true, []byte{NodePeer, 0, 0, 0, 0, 9, 0, 0}),
			expect: ErrBadField,
		},
		{
			name:   "bad direction",
			frame:  can.NewFrame(FrameIDBrakeCmd, true, []byte{5, 0, 0, 0}),
			expect: ErrBadField,
		},
		{
			name:   "short telemetry",
			frame:  can.NewFrame(FrameIDTelemetry, true, []byte{0, 0}),
			expect: ErrShortPayload,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.frame)
			require.Equal(t, tc.expect, err)
		})
	}
}

func TestTelemetryFlags(t *testing.T) {
	f := BrakeTelemetry{Released: true}.MarshalCANFrame()
	require.Equal(t, byte(1<<1), f.Data[3])

	var m BrakeTelemetry
	require.NoError(t, m.UnmarshalCANFrame(f))
	require.True(t, m.Released)
	require.False(t, m.Releasing)
	require.False(t, m.Pushing)
	require.False(t, m.Pushed)
}
