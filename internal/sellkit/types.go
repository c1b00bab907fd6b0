package sellkit

import "strings"

// PopupConfig is the typed form of the remote popup configuration.
// Immutable for the page lifetime once fetched.
type PopupConfig struct {
	PopupID   string `validate:"required"`
	ProductID string `validate:"required"`
	PopupName string

	// TriggerType is normalized: exit_intent collapses to exit, unknown
	// types to time.
	TriggerType  string `validate:"oneof=scroll time exit click"`
	TriggerValue *float64

	PersistentMode  bool
	MobileFloating  bool
	Live            bool
	StripeConnected bool
	ShowPrice       bool

	Image string
}

// rawConfig mirrors the wire shape: yes/no strings throughout.
type rawConfig struct {
	ProductID       string   `json:"product_id"`
	PopupName       string   `json:"popup_name"`
	TriggerType     string   `json:"trigger_type"`
	TriggerValue    *float64 `json:"trigger_value"`
	PersistentMode  string   `json:"persistent_mode"`
	MobileFloating  string   `json:"mobile_floating"`
	IsLive          string   `json:"is_live"`
	StripeConnected string   `json:"stripe_connected"`
	ShowPrice       string   `json:"show_price"`
	Image           string   `json:"image"`
	Success         string   `json:"success"`
}

type configEnvelope struct {
	Status   string     `json:"status"`
	Response *rawConfig `json:"response"`
}

// success applies the wire protocol's two accepted envelope shapes.
func (e configEnvelope) success() bool {
	if e.Response == nil {
		return false
	}
	return e.Status == "success" || e.Response.Success == "yes"
}

func (r *rawConfig) toConfig(popupID string) *PopupConfig {
	image := r.Image
	if strings.HasPrefix(image, "//") {
		image = "https:" + image
	}
	return &PopupConfig{
		PopupID:         popupID,
		ProductID:       r.ProductID,
		PopupName:       r.PopupName,
		TriggerType:     normalizeTriggerType(r.TriggerType),
		TriggerValue:    r.TriggerValue,
		PersistentMode:  r.PersistentMode == "yes",
		MobileFloating:  r.MobileFloating == "yes",
		Live:            r.IsLive == "yes",
		StripeConnected: r.StripeConnected == "yes",
		// Price is shown unless explicitly disabled.
		ShowPrice: r.ShowPrice != "no",
		Image:     image,
	}
}

func normalizeTriggerType(raw string) string {
	switch raw {
	case "scroll", "time", "click", "exit":
		return raw
	case "exit_intent":
		return "exit"
	default:
		return "time"
	}
}

// TrackEvent is one best-effort analytics notification.
type TrackEvent struct {
	PopupID   string
	ProductID string
	SessionID string
	EventType string
	PageURL   string
	UserAgent string
	DebugMode bool
	Extra     map[string]string
}

// CheckoutRequest asks the remote service to open a payment session.
type CheckoutRequest struct {
	PopupID       string
	ProductID     string
	SessionID     string
	PurchaseToken string
	DebugMode     bool
	SuccessURL    string
	CancelURL     string
}

type checkoutWire struct {
	PopupID       string `json:"popup_id"`
	ProductID     string `json:"product_id"`
	SessionID     string `json:"session_id"`
	PurchaseToken string `json:"purchase_token"`
	DebugMode     string `json:"debug_mode"`
	SuccessURL    string `json:"success_url"`
	CancelURL     string `json:"cancel_url"`
}

type checkoutEnvelope struct {
	Response *checkoutResult `json:"response"`
	Error    string          `json:"error"`
}

type checkoutResult struct {
	Success     string `json:"success"`
	CheckoutURL string `json:"checkout_url"`
	Error       string `json:"error"`
}

// CheckoutSession is the successful outcome: where to send the visitor.
type CheckoutSession struct {
	URL string
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
