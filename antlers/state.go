package antlers

import (
	"fmt"
	"time"
)

// OperatingState behavioral mode of a node
type OperatingState byte

// known states; anything else is accepted into the register but drives no timers
const (
	StateSleep       OperatingState = 0
	StateAttentive   OperatingState = 1
	StateStandby     OperatingState = 2
	StateActive      OperatingState = 3
	StateAntlersOn   OperatingState = 4
	StateReserved5   OperatingState = 5
	StateReserved6   OperatingState = 6
	StateReserved8   OperatingState = 8
	StateProgramming OperatingState = 9
)

func (s OperatingState) String() string {
	switch s {
	case StateSleep:
		return "sleep"
	case StateAttentive:
		return "attentive"
	case StateStandby:
		return "standby"
	case StateActive:
		return "active"
	case StateAntlersOn:
		return "antlers-on"
	case StateReserved5, StateReserved6, StateReserved8:
		return fmt.Sprintf("reserved-%d", byte(s))
	case StateProgramming:
		return "programming"
	}
	return fmt.Sprintf("unknown-%d", byte(s))
}

// TimerAction what entering a state does to one timer
type TimerAction int

const (
	// TimerKeep leave the timer as it is
	TimerKeep TimerAction = iota
	// TimerStart (re)arm the timer
	TimerStart
	// TimerStop disarm the timer
	TimerStop
)

// TimerPolicy actions applied to both timers when a state is entered
type TimerPolicy struct {
	Repeat TimerAction
	Window TimerAction
}

// PolicyFor the timer actions for entering `s`
func PolicyFor(s OperatingState) TimerPolicy {
	switch s {
	case StateAttentive, StateStandby, StateReserved5, StateReserved6, StateReserved8:
		return TimerPolicy{Repeat: TimerStart, Window: TimerStart}
	case StateActive, StateAntlersOn:
		// runs until another state is entered
		return TimerPolicy{Repeat: TimerStart, Window: TimerStop}
	case StateProgramming:
		return TimerPolicy{Repeat: TimerKeep, Window: TimerStart}
	}
	return TimerPolicy{Repeat: TimerKeep, Window: TimerKeep}
}

// Timer leveled timer, checked from the loop on every iteration
type Timer struct {
	period   time.Duration
	deadline time.Time
	armed    bool
	periodic bool
}

// NewTimer periodic timers re-arm when they elapse, one-shot timers disarm
func NewTimer(period time.Duration, periodic bool) Timer {
	return Timer{period: period, periodic: periodic}
}

// Start arm the timer to elapse one period after now
func (t *Timer) Start(now time.Time) {
	t.deadline = now.Add(t.period)
	t.armed = true
}

// Stop disarm the timer
func (t *Timer) Stop() {
	t.armed = false
}

// Armed reports whether the timer is running
func (t *Timer) Armed() bool {
	return t.armed
}

// Elapsed reports true once per expiry
func (t *Timer) Elapsed(now time.Time) bool {
	if !t.armed || now.Before(t.deadline) {
		return false
	}

	if t.periodic {
		t.deadline = now.Add(t.period)
	} else {
		t.armed = false
	}

	return true
}

func (t *Timer) apply(action TimerAction, now time.Time) {
	switch action {
	case TimerStart:
		t.Start(now)
	case TimerStop:
		t.Stop()
	}
}
