package antlers

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/lunixbochs/struc"
)

const (
	// AntlerPayloadSize bytes on air for a payload sent to antler hats
	AntlerPayloadSize = 8
	// StatusPayloadSize bytes on air for a payload sent back to controllers
	StatusPayloadSize = 12
)

// ErrPayloadSize received buffer does not match the expected record
var ErrPayloadSize = errors.New("payload size mismatch")

var wireOptions = &struc.Options{Order: binary.LittleEndian}

// AntlerPayload packet sent to antler hats
type AntlerPayload struct {
	NodeID      uint8 `struc:"uint8"`
	Version     uint8 `struc:"uint8"`
	NodeState   uint8 `struc:"uint8"`
	AntlerState uint8 `struc:"uint8"`
	// SleepTime in milliseconds, overrides the pre-defined state timings
	SleepTime int32 `struc:"int32"`
}

// StatusPayload packet a hat sends back to the controllers
type StatusPayload struct {
	NodeID      uint8   `struc:"uint8" json:"node_id"`
	Version     uint8   `struc:"uint8" json:"version"`
	NodeState   uint8   `struc:"uint8" json:"node_state"`
	AntlerState uint8   `struc:"uint8" json:"antler_state"`
	VCC         float32 `struc:"float32" json:"vcc"`
	RSSI        int16   `struc:"int16" json:"rssi"`
	Temperature int16   `struc:"int16" json:"temperature"`
}

// EncodeAntler pack payload into its wire layout
func EncodeAntler(p AntlerPayload) ([]byte, error) {
	return encode(&p, AntlerPayloadSize)
}

// DecodeAntler unpack an antler payload, buf must be exactly AntlerPayloadSize long
func DecodeAntler(buf []byte) (AntlerPayload, error) {
	var p AntlerPayload
	err := decode(buf, &p, AntlerPayloadSize)
	return p, err
}

// EncodeStatus pack a status payload into its wire layout
func EncodeStatus(p StatusPayload) ([]byte, error) {
	return encode(&p, StatusPayloadSize)
}

// DecodeStatus unpack a status payload, buf must be exactly StatusPayloadSize long
func DecodeStatus(buf []byte) (StatusPayload, error) {
	var p StatusPayload
	err := decode(buf, &p, StatusPayloadSize)
	return p, err
}

func encode(v interface{}, size int) ([]byte, error) {
	var buf bytes.Buffer
	buf.Grow(size)

	if err := struc.PackWithOptions(&buf, v, wireOptions); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func decode(buf []byte, v interface{}, size int) error {
	if len(buf) != size {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrPayloadSize, len(buf), size)
	}

	return struc.UnpackWithOptions(bytes.NewReader(buf), v, wireOptions)
}
