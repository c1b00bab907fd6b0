// Package trigger implements the four strategies that decide when the
// popup first appears: scroll depth, elapsed time, exit intent, and a
// manual on-page element. Each strategy fires at most once per page load.
package trigger

const (
	TypeScroll = "scroll"
	TypeTime   = "time"
	TypeExit   = "exit"
	// TypeExitIntent is the long-form synonym some configs carry.
	TypeExitIntent = "exit_intent"
	TypeClick      = "click"

	DefaultScrollThreshold = 50.0
	DefaultTimeSeconds     = 5.0
	ExitTopThresholdPx     = 10.0
)

// Strategy is one armed trigger. Arm installs the fire callback; Disarm
// cancels any pending timers and is a no-op for event-driven strategies.
// Once fired, a strategy never fires again.
type Strategy interface {
	Name() string
	Arm(fire func())
	Disarm()
}

// ForConfig selects the strategy for a configured trigger type. Unknown
// types fall back to a 5-second time trigger. value is nil when the
// configuration omits the threshold.
func ForConfig(triggerType string, value *float64) Strategy {
	switch triggerType {
	case TypeScroll:
		threshold := DefaultScrollThreshold
		if value != nil {
			threshold = *value
		}
		return NewScroll(threshold)
	case TypeTime:
		seconds := DefaultTimeSeconds
		if value != nil {
			seconds = *value
		}
		return NewTimed(seconds)
	case TypeExit, TypeExitIntent:
		return NewExit()
	case TypeClick:
		return NewManual()
	default:
		return NewTimed(DefaultTimeSeconds)
	}
}

// IsManual reports whether the configured trigger type is the manual
// element, which carries different gating rules.
func IsManual(triggerType string) bool {
	return triggerType == TypeClick
}
