// Package catalog is the in-memory popup catalog behind the stub API
// server: seeded popup configs, a recorded event log, and checkout
// session issuing. It exists so the engine can be exercised end to end
// without the production service.
package catalog

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/mysellkit/popup-engine/pkg/errors"
)

// Popup is one seeded popup configuration.
type Popup struct {
	PopupID         string
	ProductID       string
	PopupName       string
	TriggerType     string
	TriggerValue    *float64
	PersistentMode  bool
	MobileFloating  bool
	Live            bool
	StripeConnected bool
	ShowPrice       bool
	Image           string
}

// Event is one recorded tracking call, kept verbatim.
type Event map[string]any

// Service holds the catalog state. Safe for concurrent use.
type Service struct {
	checkoutBase string

	mu     sync.Mutex
	popups map[string]Popup
	events []Event
}

func NewService(checkoutBase string) (*Service, error) {
	checkoutBase = strings.TrimRight(strings.TrimSpace(checkoutBase), "/")
	if checkoutBase == "" {
		return nil, fmt.Errorf("checkout base is required")
	}
	return &Service{
		checkoutBase: checkoutBase,
		popups:       make(map[string]Popup),
	}, nil
}

// Seed registers popups, replacing any with the same id.
func (s *Service) Seed(popups ...Popup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range popups {
		s.popups[p.PopupID] = p
	}
}

// Popup looks one popup up by id.
func (s *Service) Popup(popupID string) (Popup, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.popups[popupID]
	return p, ok
}

// RecordEvent appends one tracking event to the log.
func (s *Service) RecordEvent(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

// Events returns a copy of the recorded event log.
func (s *Service) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// CreateSession issues a checkout URL for a live, payment-enabled popup.
// The gates mirror the ones the engine checks client-side so a stale or
// tampered client still cannot check out a draft product.
func (s *Service) CreateSession(popupID, productID string) (string, error) {
	s.mu.Lock()
	popup, ok := s.popups[popupID]
	s.mu.Unlock()

	if !ok {
		return "", errors.New(errors.CodeNotFound, "invalid popup id")
	}
	if productID != "" && productID != popup.ProductID {
		return "", errors.New(errors.CodeValidation, "product does not match popup")
	}
	if !popup.StripeConnected {
		return "", errors.New(errors.CodeNotConfigured, "Payment processing not configured. Please contact the seller.")
	}
	if !popup.Live {
		return "", errors.New(errors.CodeDraftMode, "This product is in draft mode. Checkout is disabled.")
	}

	return s.checkoutBase + "/checkout/" + uuid.NewString(), nil
}
