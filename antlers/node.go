package antlers

import (
	"context"
	"errors"
	"io"
	"time"

	log "github.com/sirupsen/logrus"
)

// ErrUpstreamClosed the upstream line source is gone for good
var ErrUpstreamClosed = errors.New("upstream closed")

// Options node runtime parameters
type Options struct {
	NodeID         byte
	Role           Role
	RepeatInterval time.Duration
	SendWindow     time.Duration
	StatusFormat   StatusFormat
	IncludeRSSI    bool
	RequestACK     bool
}

// Snapshot copy of the node registers
type Snapshot struct {
	State       OperatingState
	RepeatArmed bool
	WindowArmed bool
	HasLast     bool
	Last        AntlerPayload
	LastDest    byte
}

// Node protocol core. Every method must be called from the single goroutine owning the node.
type Node struct {
	opts     Options
	radio    Radio
	upstream io.Writer
	lines    <-chan string
	sinks    []StatusSink
	blinker  *Blinker
	clock    func() time.Time

	state    OperatingState
	last     AntlerPayload
	lastDest byte
	hasLast  bool
	repeat   Timer
	window   Timer

	upstreamClosed bool
}

// NewNode status lines are written to `upstream`
func NewNode(opts Options, radio Radio, upstream io.Writer) *Node {
	return &Node{
		opts:     opts,
		radio:    radio,
		upstream: upstream,
		clock:    time.Now,
		repeat:   NewTimer(opts.RepeatInterval, true),
		window:   NewTimer(opts.SendWindow, false),
	}
}

// SetLines source of upstream command lines consumed by Poll
func (n *Node) SetLines(lines <-chan string) {
	n.lines = lines
}

// AddSink every relayed status is also offered to `sink`
func (n *Node) AddSink(sink StatusSink) {
	n.sinks = append(n.sinks, sink)
}

// SetIndicator blink `indicator` on every command sent and status relayed
func (n *Node) SetIndicator(indicator Indicator) {
	n.blinker = NewBlinker(indicator, BlinkPeriod)
}

// SetClock replace the time source used by Run
func (n *Node) SetClock(clock func() time.Time) {
	n.clock = clock
}

// Snapshot ...
func (n *Node) Snapshot() Snapshot {
	return Snapshot{
		State:       n.state,
		RepeatArmed: n.repeat.Armed(),
		WindowArmed: n.window.Armed(),
		HasLast:     n.hasLast,
		Last:        n.last,
		LastDest:    n.lastDest,
	}
}

// HandleLine process one upstream line. A malformed command leaves every register untouched.
func (n *Node) HandleLine(line string, now time.Time) error {
	if !IsCommand(line) {
		log.Infof("upstream:unrecognized %q", line)
		CommandsTotal.WithLabelValues("unrecognized").Inc()
		return ErrNoSentinel
	}

	if !n.opts.Role.Encodes() {
		log.Infof("upstream:ignored %q, role %s", line, n.opts.Role)
		CommandsTotal.WithLabelValues("ignored").Inc()
		return nil
	}

	cmd, err := ParseCommand(line, n.opts.NodeID)
	if err != nil {
		log.Warnf("upstream:malformed %q: %v", line, err)
		CommandsTotal.WithLabelValues("malformed").Inc()
		return err
	}

	n.last = cmd.Payload
	n.lastDest = cmd.Destination
	n.hasLast = true

	err = n.transmit("command")
	if err != nil {
		CommandsTotal.WithLabelValues("send_failed").Inc()
	} else {
		CommandsTotal.WithLabelValues("sent").Inc()
	}
	n.blinker.Blink(now, 1)

	n.enter(OperatingState(cmd.Payload.NodeState), now)

	return err
}

// enter run the timer policy when the register actually changes
func (n *Node) enter(state OperatingState, now time.Time) {
	if state == n.state {
		return
	}

	n.state = state
	policy := PolicyFor(state)
	n.repeat.apply(policy.Repeat, now)
	n.window.apply(policy.Window, now)

	log.Infof("state:entered %d (%s) repeat=%v window=%v", byte(state), state, n.repeat.Armed(), n.window.Armed())
	OperatingStateGauge.Set(float64(state))
	RepeatActive.Set(boolGauge(n.repeat.Armed()))
}

// transmit send the last payload to the last destination, always as this node
func (n *Node) transmit(kind string) error {
	payload := n.last
	payload.NodeID = n.opts.NodeID
	n.last.NodeID = n.opts.NodeID

	data, err := EncodeAntler(payload)
	if err != nil {
		RadioErrors.Inc()
		return err
	}

	if err := n.radio.Send(n.lastDest, data, n.opts.RequestACK); err != nil {
		log.Warnf("radio:send %s to %d failed: %v", kind, n.lastDest, err)
		RadioErrors.Inc()
		return err
	}

	RadioSent.WithLabelValues(kind).Inc()
	log.Debugf("radio:sent %s to=%d version=%d state=%d antler=%d sleep=%d",
		kind, n.lastDest, payload.Version, payload.NodeState, payload.AntlerState, payload.SleepTime)

	return nil
}

// HandlePacket acknowledge if asked, then relay a status payload upstream
func (n *Node) HandlePacket(p Packet, now time.Time) error {
	log.Debugf("radio:got [%d:%d] > % X", p.Sender, len(p.Data), p.Data)

	if p.ACKRequested {
		if err := n.radio.SendACK(p.Sender); err != nil {
			log.Warnf("radio:ack to %d failed: %v", p.Sender, err)
			RadioErrors.Inc()
		} else {
			RadioSent.WithLabelValues("ack").Inc()
			log.Debugf("radio:ack sent to %d", p.Sender)
		}
	}

	status, err := DecodeStatus(p.Data)
	if err != nil {
		log.Warnf("radio:invalid payload from %d: %v", p.Sender, err)
		PayloadRejected.Inc()
		return err
	}

	line := FormatStatus(status, n.opts.StatusFormat, n.opts.IncludeRSSI)
	if _, err := io.WriteString(n.upstream, line); err != nil {
		log.Warnf("upstream:write %v", err)
	} else {
		StatusRelayed.Inc()
	}

	doc := StatusDocument{
		Gateway:   n.opts.NodeID,
		Received:  now,
		RadioRSSI: p.RSSI,
		Status:    status,
	}
	for _, sink := range n.sinks {
		if !sink.Offer(doc) {
			PublishDropped.Inc()
		}
	}

	n.blinker.Blink(now, 1)

	return nil
}

// CheckTimers window expiry first, so it always wins over a due repeat
func (n *Node) CheckTimers(now time.Time) {
	if n.window.Elapsed(now) && n.repeat.Armed() {
		n.repeat.Stop()
		RepeatActive.Set(0)
		log.Infof("state:send window elapsed, repeat stopped")
	}

	if n.repeat.Elapsed(now) && n.hasLast {
		n.transmit("repeat")
	}
}

// Poll one loop iteration: a line, a packet, the timers, the indicator. Never blocks on input.
func (n *Node) Poll(now time.Time) {
	if n.lines != nil {
		select {
		case line, ok := <-n.lines:
			if !ok {
				n.lines = nil
				n.upstreamClosed = true
			} else {
				n.HandleLine(line, now)
			}
		default:
		}
	}

	if p, ok := n.radio.Receive(); ok {
		n.HandlePacket(p, now)
	}

	n.CheckTimers(now)
	n.blinker.Tick(now)
}

// Run poll every `tick` until ctx is done or the upstream closes
func (n *Node) Run(ctx context.Context, tick time.Duration) error {
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n.Poll(n.clock())
			if n.upstreamClosed {
				return ErrUpstreamClosed
			}
		}
	}
}

// remoteWriter io.Writer over a Remote with a fixed write timeout
type remoteWriter struct {
	remote  Remote
	timeout time.Duration
}

// RemoteWriter adapt `remote` for use as a node's upstream
func RemoteWriter(remote Remote, timeout time.Duration) io.Writer {
	return &remoteWriter{remote: remote, timeout: timeout}
}

func (w *remoteWriter) Write(buf []byte) (int, error) {
	return w.remote.Write(buf, w.timeout)
}
