package antlers

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// BlinkPeriod time between indicator toggles
const BlinkPeriod = 250 * time.Millisecond

// Indicator something with an on/off state, a LED or a modem control line
type Indicator interface {
	SetState(on bool) error
}

// Blinker non-blocking blink driven by the loop tick
type Blinker struct {
	indicator Indicator
	period    time.Duration
	toggles   int
	on        bool
	next      time.Time
}

// NewBlinker a nil indicator makes every call a no-op
func NewBlinker(indicator Indicator, period time.Duration) *Blinker {
	return &Blinker{indicator: indicator, period: period}
}

// Blink schedule `times` on/off cycles starting at now, replacing any pending ones
func (b *Blinker) Blink(now time.Time, times int) {
	if b == nil || b.indicator == nil || times <= 0 {
		return
	}

	b.toggles = times * 2
	if b.on {
		// finish off
		b.toggles++
	}
	b.next = now
}

// Tick toggle the indicator when due
func (b *Blinker) Tick(now time.Time) {
	if b == nil || b.indicator == nil || b.toggles == 0 || now.Before(b.next) {
		return
	}

	b.on = !b.on
	b.toggles--
	b.next = now.Add(b.period)

	if err := b.indicator.SetState(b.on); err != nil {
		log.Debugf("indicator:err %v", err)
	}
}
