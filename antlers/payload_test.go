package antlers

import (
	"bytes"
	"errors"
	"testing"

	"github.com/lunixbochs/struc"
)

func TestPayloadSizes(t *testing.T) {
	tests := []struct {
		name string
		v    interface{}
		want int
	}{
		{"antler", &AntlerPayload{}, AntlerPayloadSize},
		{"status", &StatusPayload{}, StatusPayloadSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := struc.Sizeof(tt.v)
			if err != nil {
				t.Fatalf("struc.Sizeof() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("size = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEncodeAntlerLayout(t *testing.T) {
	got, err := EncodeAntler(AntlerPayload{NodeID: 1, Version: 1, NodeState: 3, AntlerState: 1, SleepTime: 500})
	if err != nil {
		t.Fatalf("EncodeAntler() error = %v", err)
	}

	want := []byte{1, 1, 3, 1, 0xF4, 0x01, 0x00, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeAntler() = % x, want % x", got, want)
	}
}

func TestEncodeStatusLayout(t *testing.T) {
	got, err := EncodeStatus(StatusPayload{NodeID: 4, Version: 1, NodeState: 2, AntlerState: 1, VCC: 2.0, RSSI: -70, Temperature: 25})
	if err != nil {
		t.Fatalf("EncodeStatus() error = %v", err)
	}

	// 2.0 as float32 is 0x40000000
	want := []byte{4, 1, 2, 1, 0x00, 0x00, 0x00, 0x40, 0xBA, 0xFF, 0x19, 0x00}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeStatus() = % x, want % x", got, want)
	}
}

func TestAntlerRoundTrip(t *testing.T) {
	tests := []AntlerPayload{
		{NodeID: 1, Version: 1, NodeState: 1, AntlerState: 0, SleepTime: 0},
		{NodeID: 254, Version: 255, NodeState: 9, AntlerState: 1, SleepTime: -1},
		{NodeID: 3, Version: 1, NodeState: 3, AntlerState: 1, SleepTime: 2147483647},
		{NodeID: 3, Version: 1, NodeState: 0, AntlerState: 0, SleepTime: -2147483648},
	}

	for _, want := range tests {
		buf, err := EncodeAntler(want)
		if err != nil {
			t.Fatalf("EncodeAntler(%+v) error = %v", want, err)
		}
		if len(buf) != AntlerPayloadSize {
			t.Fatalf("len = %d, want %d", len(buf), AntlerPayloadSize)
		}

		got, err := DecodeAntler(buf)
		if err != nil {
			t.Fatalf("DecodeAntler() error = %v", err)
		}
		if got != want {
			t.Errorf("round trip = %+v, want %+v", got, want)
		}
	}
}

func TestStatusRoundTrip(t *testing.T) {
	want := StatusPayload{NodeID: 12, Version: 1, NodeState: 3, AntlerState: 1, VCC: 3.7, RSSI: -91, Temperature: -4}

	buf, err := EncodeStatus(want)
	if err != nil {
		t.Fatalf("EncodeStatus() error = %v", err)
	}

	got, err := DecodeStatus(buf)
	if err != nil {
		t.Fatalf("DecodeStatus() error = %v", err)
	}
	if got != want {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}

func TestDecodeRejectsWrongLength(t *testing.T) {
	status, _ := EncodeStatus(StatusPayload{NodeID: 1})

	tests := []struct {
		name   string
		decode func([]byte) error
		buf    []byte
	}{
		{"status nil", decodeStatusErr, nil},
		{"status short", decodeStatusErr, status[:StatusPayloadSize-1]},
		{"status long", decodeStatusErr, append(append([]byte{}, status...), 0)},
		{"status given antler payload", decodeStatusErr, make([]byte, AntlerPayloadSize)},
		{"antler short", decodeAntlerErr, []byte{1, 1, 1}},
		{"antler given status payload", decodeAntlerErr, status},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.decode(tt.buf); !errors.Is(err, ErrPayloadSize) {
				t.Errorf("decode(% x) error = %v, want ErrPayloadSize", tt.buf, err)
			}
		})
	}
}

func decodeStatusErr(buf []byte) error {
	_, err := DecodeStatus(buf)
	return err
}

func decodeAntlerErr(buf []byte) error {
	_, err := DecodeAntler(buf)
	return err
}
