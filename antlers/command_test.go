package antlers

import (
	"errors"
	"testing"
)

func TestParseCommand(t *testing.T) {
	const self = 7

	tests := []struct {
		name string
		line string
		want Command
	}{
		{
			name: "attentive to node 1",
			line: "!!ND:1,VR:1,NS:1,AS:0,SL:0",
			want: Command{Destination: 1, Payload: AntlerPayload{NodeID: self, Version: 1, NodeState: 1, AntlerState: 0, SleepTime: 0}},
		},
		{
			name: "active with sleep override",
			line: "!!ND:5,VR:1,NS:3,AS:1,SL:500",
			want: Command{Destination: 5, Payload: AntlerPayload{NodeID: self, Version: 1, NodeState: 3, AntlerState: 1, SleepTime: 500}},
		},
		{
			name: "broadcast, negative sleep",
			line: "!!ND:255,VR:2,NS:9,AS:1,SL:-1500",
			want: Command{Destination: BroadcastID, Payload: AntlerPayload{NodeID: self, Version: 2, NodeState: 9, AntlerState: 1, SleepTime: -1500}},
		},
		{
			name: "out of range values wrap",
			line: "!!ND:300,VR:256,NS:-1,AS:257,SL:4294967296",
			want: Command{Destination: 44, Payload: AntlerPayload{NodeID: self, Version: 0, NodeState: 255, AntlerState: 1, SleepTime: 0}},
		},
		{
			name: "sleep wraps to negative",
			line: "!!ND:2,VR:1,NS:2,AS:0,SL:2147483648",
			want: Command{Destination: 2, Payload: AntlerPayload{NodeID: self, Version: 1, NodeState: 2, AntlerState: 0, SleepTime: -2147483648}},
		},
		{
			name: "trailing fields ignored",
			line: "!!ND:3,VR:1,NS:2,AS:1,SL:10,XX:99",
			want: Command{Destination: 3, Payload: AntlerPayload{NodeID: self, Version: 1, NodeState: 2, AntlerState: 1, SleepTime: 10}},
		},
		{
			name: "spaces around values",
			line: "!!ND: 4,VR:1 ,NS:1,AS:0,SL: 20",
			want: Command{Destination: 4, Payload: AntlerPayload{NodeID: self, Version: 1, NodeState: 1, AntlerState: 0, SleepTime: 20}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.line, self)
			if err != nil {
				t.Fatalf("ParseCommand(%q) error = %v", tt.line, err)
			}
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseCommandSenderIsAlwaysSelf(t *testing.T) {
	for _, self := range []byte{1, 2, 42, 254} {
		got, err := ParseCommand("!!ND:9,VR:1,NS:1,AS:1,SL:0", self)
		if err != nil {
			t.Fatalf("ParseCommand() error = %v", err)
		}
		if got.Payload.NodeID != self {
			t.Errorf("NodeID = %d, want %d", got.Payload.NodeID, self)
		}
	}
}

func TestParseCommandRejects(t *testing.T) {
	tests := []struct {
		name string
		line string
		want error
	}{
		{"wrong sentinel", "ABND:1,VR:1", ErrNoSentinel},
		{"no sentinel", "ND:1,VR:1,NS:1,AS:0,SL:0", ErrNoSentinel},
		{"wrong second key", "!!ND:1,XX:1,NS:1,AS:0,SL:0", ErrUnexpectedKey},
		{"wrong first key", "!!NX:1,VR:1,NS:1,AS:0,SL:0", ErrUnexpectedKey},
		{"lower case key", "!!ND:1,VR:1,ns:1,AS:0,SL:0", ErrUnexpectedKey},
		{"out of order", "!!ND:1,NS:1,VR:1,AS:0,SL:0", ErrUnexpectedKey},
		{"long key", "!!ND:1,VR:1,NSS:1,AS:0,SL:0", ErrUnexpectedKey},
		{"misspelled last key", "!!ND:1,VR:1,NS:1,AS:0,SP:0", ErrUnexpectedKey},
		{"sentinel only", "!!", ErrMissingField},
		{"truncated", "!!ND:1,VR:1,NS:1", ErrMissingField},
		{"missing last value", "!!ND:1,VR:1,NS:1,AS:0,SL", ErrMissingField},
		{"empty value", "!!ND:,VR:1,NS:1,AS:0,SL:0", ErrBadValue},
		{"not a number", "!!ND:1,VR:one,NS:1,AS:0,SL:0", ErrBadValue},
		{"float sleep", "!!ND:1,VR:1,NS:1,AS:0,SL:1.5", ErrBadValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCommand(tt.line, 7)
			if !errors.Is(err, tt.want) {
				t.Fatalf("ParseCommand(%q) error = %v, want %v", tt.line, err, tt.want)
			}
			if got != (Command{}) {
				t.Errorf("ParseCommand(%q) returned partial command %+v", tt.line, got)
			}
			if tt.want != ErrNoSentinel && !errors.Is(err, ErrMalformedCommand) {
				t.Errorf("error %v does not wrap ErrMalformedCommand", err)
			}
		})
	}
}
