// Package sellkit is the HTTP client for the remote popup service: config
// fetch, event tracking, and checkout-session creation.
package sellkit

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/mysellkit/popup-engine/pkg/config"
	pkgerrors "github.com/mysellkit/popup-engine/pkg/errors"
	"github.com/mysellkit/popup-engine/pkg/logger"
)

// Client talks to the remote config/tracking/checkout API.
type Client struct {
	http         *http.Client
	apiBase      string
	checkoutBase string
	logg         *logger.Logger
}

// NewClient validates the remote endpoints and builds the client.
func NewClient(cfg config.RemoteConfig, logg *logger.Logger) (*Client, error) {
	apiBase := strings.TrimRight(strings.TrimSpace(cfg.APIBase), "/")
	if apiBase == "" {
		return nil, fmt.Errorf("api base is required")
	}
	checkoutBase := strings.TrimRight(strings.TrimSpace(cfg.CheckoutBase), "/")
	if checkoutBase == "" {
		return nil, fmt.Errorf("checkout base is required")
	}
	return &Client{
		http:         &http.Client{Timeout: cfg.HTTPTimeout},
		apiBase:      apiBase,
		checkoutBase: checkoutBase,
		logg:         logg,
	}, nil
}

// CheckoutBase exposes the base used to build success-return URLs.
func (c *Client) CheckoutBase() string {
	return c.checkoutBase
}

// FetchPopupConfig loads and normalizes the popup configuration. Any
// malformed or unsuccessful response is a fatal initialization error.
func (c *Client) FetchPopupConfig(ctx context.Context, popupID string) (*PopupConfig, error) {
	endpoint := fmt.Sprintf("%s/get-popup-config?popup_id=%s", c.apiBase, url.QueryEscape(popupID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building config request")
	}

	var envelope configEnvelope
	if err := c.do(req, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "popup config fetch failed")
	}

	if !envelope.success() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "invalid popup id or api error")
	}

	cfg := envelope.Response.toConfig(popupID)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Track sends one fire-and-forget event. Callers swallow the error after
// logging; it must never surface to the visitor.
func (c *Client) Track(ctx context.Context, event TrackEvent) error {
	payload := map[string]any{
		"popup_id":   event.PopupID,
		"product_id": event.ProductID,
		"session_id": event.SessionID,
		"event_type": event.EventType,
		"page_url":   event.PageURL,
		"user_agent": event.UserAgent,
		"debug_mode": yesNo(event.DebugMode),
	}
	for k, v := range event.Extra {
		payload[k] = v
	}

	req, err := c.post(ctx, c.apiBase+"/track-event", payload)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// CreateCheckoutSession opens a payment session. Failures come back as
// coded errors whose public message is safe to show the visitor.
func (c *Client) CreateCheckoutSession(ctx context.Context, reqBody CheckoutRequest) (*CheckoutSession, error) {
	wire := checkoutWire{
		PopupID:       reqBody.PopupID,
		ProductID:     reqBody.ProductID,
		SessionID:     reqBody.SessionID,
		PurchaseToken: reqBody.PurchaseToken,
		DebugMode:     yesNo(reqBody.DebugMode),
		SuccessURL:    reqBody.SuccessURL,
		CancelURL:     reqBody.CancelURL,
	}

	req, err := c.post(ctx, c.apiBase+"/create-checkout-session", wire)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building checkout request")
	}

	var envelope checkoutEnvelope
	if err := c.do(req, &envelope); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checkout request failed")
	}

	if envelope.Response != nil && envelope.Response.Success == "yes" && envelope.Response.CheckoutURL != "" {
		return &CheckoutSession{URL: envelope.Response.CheckoutURL}, nil
	}

	return nil, pkgerrors.New(pkgerrors.CodeValidation, checkoutErrorMessage(envelope))
}

// checkoutErrorMessage prefers the server-supplied reason, falling back
// through the documented chain to a generic prompt.
func checkoutErrorMessage(envelope checkoutEnvelope) string {
	const prefix = "Unable to start checkout. "
	switch {
	case envelope.Response != nil && envelope.Response.Error != "":
		return prefix + envelope.Response.Error
	case envelope.Error != "":
		return prefix + envelope.Error
	case envelope.Response != nil && envelope.Response.Success == "no":
		return prefix + "The checkout session could not be created."
	default:
		return prefix + "Please try again or contact support."
	}
}

func (c *Client) post(ctx context.Context, endpoint string, payload any) (*http.Request, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
