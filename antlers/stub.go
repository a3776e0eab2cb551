package antlers

import (
	"sync"
)

// Transmission something handed to the radio
type Transmission struct {
	To         byte
	Data       []byte
	RequestACK bool
	ACK        bool
}

// StubRadio in-memory radio, used for dry runs and tests
type StubRadio struct {
	mu     sync.Mutex
	rx     []Packet
	tx     []Transmission
	closed bool
}

// NewStubRadio ...
func NewStubRadio() *StubRadio {
	return &StubRadio{}
}

// Inject queue a packet as if it was received over the air
func (radio *StubRadio) Inject(p Packet) {
	radio.mu.Lock()
	defer radio.mu.Unlock()

	p.Data = append([]byte(nil), p.Data...)
	radio.rx = append(radio.rx, p)
}

// Send ...
func (radio *StubRadio) Send(to byte, data []byte, requestACK bool) error {
	radio.mu.Lock()
	defer radio.mu.Unlock()

	if radio.closed {
		return ErrRadioClosed
	} else if len(data) > MaxRadioData {
		return ErrRadioTooLarge
	}

	radio.tx = append(radio.tx, Transmission{
		To:         to,
		Data:       append([]byte(nil), data...),
		RequestACK: requestACK,
	})

	return nil
}

// Receive ...
func (radio *StubRadio) Receive() (Packet, bool) {
	radio.mu.Lock()
	defer radio.mu.Unlock()

	if len(radio.rx) == 0 {
		return Packet{}, false
	}

	p := radio.rx[0]
	radio.rx = radio.rx[1:]
	return p, true
}

// SendACK ...
func (radio *StubRadio) SendACK(to byte) error {
	radio.mu.Lock()
	defer radio.mu.Unlock()

	if radio.closed {
		return ErrRadioClosed
	}

	radio.tx = append(radio.tx, Transmission{To: to, ACK: true})
	return nil
}

// Sent snapshot of everything transmitted so far
func (radio *StubRadio) Sent() []Transmission {
	radio.mu.Lock()
	defer radio.mu.Unlock()

	out := make([]Transmission, len(radio.tx))
	copy(out, radio.tx)
	return out
}

// Close ...
func (radio *StubRadio) Close() error {
	radio.mu.Lock()
	defer radio.mu.Unlock()

	radio.closed = true
	return nil
}
