package antlers

import "errors"

const (
	// BroadcastID radio destination reaching every node
	BroadcastID = 255
	// MaxRadioData largest payload the radio carries in one packet
	MaxRadioData = 61
)

var (
	// ErrRadioClosed the radio link is gone
	ErrRadioClosed = errors.New("radio closed")
	// ErrRadioTooLarge data exceeds MaxRadioData
	ErrRadioTooLarge = errors.New("radio payload too large")
)

// Packet a payload received over the radio
type Packet struct {
	Sender       byte
	Data         []byte
	RSSI         int8
	ACKRequested bool
}

// Radio packet radio driver
type Radio interface {
	// Send transmit data to node `to`
	Send(to byte, data []byte, requestACK bool) error
	// Receive return a pending packet without blocking
	Receive() (Packet, bool)
	// SendACK acknowledge the last packet received from `to`
	SendACK(to byte) error
	Close() error
}

// RadioSettings parameters handed to the radio on startup
type RadioSettings struct {
	NodeID    byte
	NetworkID byte
	Frequency uint32
	HighPower bool
	ATCRSSI   int8
	// Key 16 bytes, empty disables encryption
	Key []byte
}
