package widget

import (
	"context"

	"github.com/mysellkit/popup-engine/internal/rules"
	"github.com/mysellkit/popup-engine/internal/visibility"
)

// TriggerStatus describes the armed trigger and its live progress.
type TriggerStatus struct {
	Type           string `json:"type"`
	ScrollPercent  int    `json:"scroll_percent,omitempty"`
	ElapsedSeconds int    `json:"elapsed_seconds,omitempty"`
}

// Status is a snapshot of the engine for the diagnostic overlay.
type Status struct {
	PopupID     string           `json:"popup_id"`
	ProductID   string           `json:"product_id,omitempty"`
	Initialized bool             `json:"initialized"`
	Inert       bool             `json:"inert"`
	InertReason string           `json:"inert_reason,omitempty"`
	Diagnostic  bool             `json:"diagnostic"`
	SessionID   string           `json:"session_id,omitempty"`
	Visibility  visibility.State `json:"visibility"`
	Trigger     TriggerStatus    `json:"trigger"`
	Rules       rules.Result     `json:"rules"`
}

// Status reports the engine's current state. Display rules are
// re-evaluated fresh so the overlay reflects storage as it is now.
func (e *Engine) Status(ctx context.Context) Status {
	e.mu.Lock()
	status := Status{
		PopupID:     e.opts.PopupID,
		Initialized: e.initialized,
		Inert:       e.inert,
		InertReason: e.inertReason,
		Diagnostic:  e.opts.Diagnostic,
		Visibility:  visibility.StateHidden,
	}
	cfg := e.cfg
	control := e.control
	switch {
	case e.scroll != nil:
		status.Trigger = TriggerStatus{Type: e.scroll.Name(), ScrollPercent: e.scroll.Percent()}
	case e.timed != nil:
		status.Trigger = TriggerStatus{Type: e.timed.Name(), ElapsedSeconds: e.timed.Elapsed()}
	case e.exit != nil:
		status.Trigger = TriggerStatus{Type: e.exit.Name()}
	case e.manual != nil:
		status.Trigger = TriggerStatus{Type: e.manual.Name()}
	}
	e.mu.Unlock()

	if cfg != nil {
		status.ProductID = cfg.ProductID
		status.SessionID = e.identity.SessionID(ctx)
		status.Rules = e.eval.Evaluate(ctx, cfg.PopupID, cfg.ProductID)
	}
	if control != nil {
		status.Visibility = control.State()
	}
	return status
}
