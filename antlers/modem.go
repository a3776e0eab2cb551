package antlers

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sigurn/crc16"
	log "github.com/sirupsen/logrus"
)

// Modem frame layout, host <-> serial attached radio modem:
//
//	len(1) | kind(1) | node(1) | flags(1) | rssi(1) | data(0-248) | crc16(2)
//
// len counts the whole frame including itself and the CRC. The CRC is
// CRC16/XMODEM over everything before it, big-endian.
const (
	frameHeaderSize = 5
	frameCRCSize    = 2
	frameMinSize    = frameHeaderSize + frameCRCSize
	frameMaxSize    = 255
	frameMaxData    = frameMaxSize - frameMinSize

	configDataSize = 24
)

// frame kinds
const (
	FrameTransmit  byte = 'T'
	FrameACK       byte = 'A'
	FrameConfigure byte = 'C'
	FrameReceived  byte = 'R'
	FrameConfirmed byte = 'K'
)

// frame flags
const (
	FlagACK       byte = 1 << 0
	FlagHighPower byte = 1 << 1
)

var crcTable = crc16.MakeTable(crc16.CRC16_XMODEM)

// ErrModemTimeout the modem did not confirm in time
var ErrModemTimeout = errors.New("modem timeout")

// ModemFrame one frame on the modem serial link
type ModemFrame struct {
	Kind  byte
	Node  byte
	Flags byte
	RSSI  int8
	Data  []byte
}

// EncodeModemFrame data beyond the frame limit is cut off
func EncodeModemFrame(f ModemFrame) []byte {
	data := f.Data
	if len(data) > frameMaxData {
		data = data[:frameMaxData]
	}

	size := frameMinSize + len(data)
	buf := make([]byte, size)
	buf[0] = byte(size)
	buf[1] = f.Kind
	buf[2] = f.Node
	buf[3] = f.Flags
	buf[4] = byte(f.RSSI)
	copy(buf[frameHeaderSize:], data)
	binary.BigEndian.PutUint16(buf[size-frameCRCSize:], crc16.Update(0, buf[:size-frameCRCSize], crcTable))

	return buf
}

func knownKind(kind byte) bool {
	switch kind {
	case FrameTransmit, FrameACK, FrameConfigure, FrameReceived, FrameConfirmed:
		return true
	}
	return false
}

// deframer reassembles frames from arbitrary chunks of serial data
type deframer struct {
	acc []byte
}

// Feed append buf and return every complete, valid frame. Garbage is skipped a byte at a time.
func (d *deframer) Feed(buf []byte) []ModemFrame {
	d.acc = append(d.acc, buf...)
	var frames []ModemFrame

	for len(d.acc) > 0 {
		size := int(d.acc[0])
		if size < frameMinSize || (len(d.acc) > 1 && !knownKind(d.acc[1])) {
			d.acc = d.acc[1:]
			continue
		}
		if len(d.acc) < size {
			break
		}

		raw := d.acc[:size]
		want := binary.BigEndian.Uint16(raw[size-frameCRCSize:])
		if crc16.Update(0, raw[:size-frameCRCSize], crcTable) != want {
			log.Debugf("modem:resync crc mismatch % x", raw)
			d.acc = d.acc[1:]
			continue
		}

		frames = append(frames, ModemFrame{
			Kind:  raw[1],
			Node:  raw[2],
			Flags: raw[3],
			RSSI:  int8(raw[4]),
			Data:  append([]byte(nil), raw[frameHeaderSize:size-frameCRCSize]...),
		})
		d.acc = d.acc[size:]
	}

	if len(d.acc) == 0 {
		d.acc = nil
	}

	return frames
}

// ModemRadio radio reached through a modem on a serial link
type ModemRadio struct {
	remote       Remote
	writeTimeout time.Duration
	reconnect    bool
	backoff      *Backoff

	rx      chan Packet
	confirm chan struct{}
	done    chan struct{}
	once    sync.Once

	mu       sync.Mutex
	down     bool
	closed   bool
	settings *RadioSettings
	timeout  time.Duration
}

// NewModemRadio start reading frames from `remote`. With reconnect set a closed link is
// reopened with a backoff and the last settings are pushed again.
func NewModemRadio(remote Remote, writeTimeout time.Duration, reconnect bool) *ModemRadio {
	modem := &ModemRadio{
		remote:       remote,
		writeTimeout: writeTimeout,
		reconnect:    reconnect,
		backoff:      NewBackoff(250*time.Millisecond, 2.5, time.Minute),
		rx:           make(chan Packet, 64),
		confirm:      make(chan struct{}, 1),
		done:         make(chan struct{}),
	}

	go modem.ioloop()

	return modem
}

func (modem *ModemRadio) ioloop() {
	defer close(modem.rx)

	for {
		modem.read(modem.remote.Channel())

		modem.mu.Lock()
		modem.down = true
		closed := modem.closed
		modem.mu.Unlock()

		if closed {
			return
		}
		if !modem.reconnect {
			log.Warnf("modem:close, radio offline")
			return
		}

		log.Warnf("modem:close, reconnecting")
		modem.remote.Close()

		if !modem.reopen() {
			return
		}

		modem.mu.Lock()
		modem.down = false
		settings, timeout := modem.settings, modem.timeout
		modem.mu.Unlock()

		log.Infof("modem:reopened")

		if settings != nil {
			// the confirmation arrives through this loop, so wait for it elsewhere
			go func() {
				if err := modem.Configure(*settings, timeout); err != nil {
					log.Warnf("modem:reconfigure %v", err)
				}
			}()
		}
	}
}

// read dispatch frames until the link closes or the radio is closed
func (modem *ModemRadio) read(channel chan []byte) {
	var d deframer

	for {
		select {
		case <-modem.done:
			return
		case buf, ok := <-channel:
			if !ok || 0 == len(buf) {
				return
			}

			for _, f := range d.Feed(buf) {
				modem.dispatch(f)
			}
		}
	}
}

// reopen connect until it works, false once the radio is closed
func (modem *ModemRadio) reopen() bool {
	for {
		err := modem.remote.Connect()
		if nil == err {
			modem.backoff.Success()
			return true
		}

		wait := modem.backoff.Fail()
		log.Warnf("modem:open: %v, retry in %v", err, wait)

		select {
		case <-time.After(wait):
		case <-modem.done:
			return false
		}
	}
}

func (modem *ModemRadio) dispatch(f ModemFrame) {
	switch f.Kind {
	case FrameReceived:
		p := Packet{
			Sender:       f.Node,
			Data:         f.Data,
			RSSI:         f.RSSI,
			ACKRequested: f.Flags&FlagACK != 0,
		}

		select {
		case modem.rx <- p:
		default:
			log.Warnf("modem:recv queue full, dropping packet from %d", f.Node)
		}

	case FrameConfirmed:
		select {
		case modem.confirm <- struct{}{}:
		default:
		}

	default:
		log.Debugf("modem:recv unexpected frame kind %q", f.Kind)
	}
}

func (modem *ModemRadio) write(f ModemFrame) error {
	modem.mu.Lock()
	defer modem.mu.Unlock()

	if modem.down || modem.closed {
		return ErrRadioClosed
	}

	_, err := modem.remote.Write(EncodeModemFrame(f), modem.writeTimeout)
	return err
}

// Configure push radio settings to the modem and wait for it to confirm. The settings are
// kept and pushed again whenever the link is reopened.
func (modem *ModemRadio) Configure(settings RadioSettings, timeout time.Duration) error {
	if n := len(settings.Key); n != 0 && n != 16 {
		return fmt.Errorf("modem:config: encryption key must be 16 bytes, got %d", n)
	}

	modem.mu.Lock()
	modem.settings = &settings
	modem.timeout = timeout
	modem.mu.Unlock()

	data := make([]byte, configDataSize)
	data[0] = settings.NodeID
	data[1] = settings.NetworkID
	binary.LittleEndian.PutUint32(data[2:6], settings.Frequency)
	data[6] = byte(settings.ATCRSSI)
	// data[7] reserved
	copy(data[8:], settings.Key)

	var flags byte
	if settings.HighPower {
		flags |= FlagHighPower
	}

	// a late confirmation from an earlier attempt must not count
	select {
	case <-modem.confirm:
	default:
	}

	if err := modem.write(ModemFrame{Kind: FrameConfigure, Node: settings.NodeID, Flags: flags, Data: data}); err != nil {
		return fmt.Errorf("modem:config: %w", err)
	}

	select {
	case <-modem.confirm:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("modem:config: %w", ErrModemTimeout)
	}
}

// Send ErrRadioClosed while the link is down
func (modem *ModemRadio) Send(to byte, data []byte, requestACK bool) error {
	if len(data) > MaxRadioData {
		return ErrRadioTooLarge
	}

	var flags byte
	if requestACK {
		flags |= FlagACK
	}

	return modem.write(ModemFrame{Kind: FrameTransmit, Node: to, Flags: flags, Data: data})
}

// Receive ...
func (modem *ModemRadio) Receive() (Packet, bool) {
	select {
	case p, ok := <-modem.rx:
		return p, ok
	default:
		return Packet{}, false
	}
}

// SendACK ...
func (modem *ModemRadio) SendACK(to byte) error {
	return modem.write(ModemFrame{Kind: FrameACK, Node: to})
}

// Close stop reading and close the link for good
func (modem *ModemRadio) Close() error {
	modem.mu.Lock()
	modem.closed = true
	modem.mu.Unlock()

	modem.once.Do(func() { close(modem.done) })

	return modem.remote.Close()
}
