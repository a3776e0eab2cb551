package antlers

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// CommandSentinel prefix marking a structured command line
const CommandSentinel = "!!"

var (
	// ErrMalformedCommand wraps every reason a command line is rejected
	ErrMalformedCommand = errors.New("malformed command")
	// ErrUnexpectedKey a key did not match its position
	ErrUnexpectedKey = fmt.Errorf("%w: unexpected key", ErrMalformedCommand)
	// ErrMissingField the line ended before every key was seen
	ErrMissingField = fmt.Errorf("%w: missing field", ErrMalformedCommand)
	// ErrBadValue a value is not a decimal integer
	ErrBadValue = fmt.Errorf("%w: bad value", ErrMalformedCommand)
	// ErrNoSentinel the line does not start with CommandSentinel
	ErrNoSentinel = errors.New("not a command line")
)

// field keys, in the order they must appear
const (
	keyNode    = "ND"
	keyVersion = "VR"
	keyState   = "NS"
	keyAntler  = "AS"
	keySleep   = "SL"
)

// Command a decoded command line
type Command struct {
	// Destination radio node, not part of the payload body
	Destination byte
	Payload     AntlerPayload
}

// IsCommand reports whether line carries the command sentinel
func IsCommand(line string) bool {
	return strings.HasPrefix(line, CommandSentinel)
}

// ParseCommand decode `!!ND:<n>,VR:<n>,NS:<n>,AS:<n>,SL:<n>` into a payload sent by `self`.
// Parsing stops at the first key out of place; nothing partial is ever returned.
func ParseCommand(line string, self byte) (Command, error) {
	if !IsCommand(line) {
		return Command{}, ErrNoSentinel
	}

	t := tokenizer{msg: line[len(CommandSentinel):]}

	dest, err := t.field(keyNode)
	if err != nil {
		return Command{}, err
	}
	version, err := t.field(keyVersion)
	if err != nil {
		return Command{}, err
	}
	state, err := t.field(keyState)
	if err != nil {
		return Command{}, err
	}
	antler, err := t.field(keyAntler)
	if err != nil {
		return Command{}, err
	}
	sleep, err := t.field(keySleep)
	if err != nil {
		return Command{}, err
	}

	return Command{
		Destination: byte(dest),
		Payload: AntlerPayload{
			NodeID:      self,
			Version:     uint8(version),
			NodeState:   uint8(state),
			AntlerState: uint8(antler),
			SleepTime:   int32(sleep),
		},
	}, nil
}

type tokenizer struct {
	msg string
	pos int
}

// next returns the text up to the next delim (or the end of the message)
func (t *tokenizer) next(delim byte) (string, bool) {
	if t.pos >= len(t.msg) {
		return "", false
	}

	rest := t.msg[t.pos:]
	idx := strings.IndexByte(rest, delim)
	if idx < 0 {
		t.pos = len(t.msg)
		return rest, true
	}

	t.pos += idx + 1
	return rest[:idx], true
}

// field reads one KEY:VALUE pair. Narrowing happens at the caller's conversion.
func (t *tokenizer) field(key string) (int64, error) {
	got, ok := t.next(':')
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, key)
	}
	if strings.TrimSpace(got) != key {
		return 0, fmt.Errorf("%w: want %s, got %q", ErrUnexpectedKey, key, got)
	}

	value, ok := t.next(',')
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingField, key)
	}

	n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrBadValue, key, value)
	}

	return n, nil
}
