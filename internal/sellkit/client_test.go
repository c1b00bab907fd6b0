package sellkit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mysellkit/popup-engine/pkg/config"
	pkgerrors "github.com/mysellkit/popup-engine/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(config.RemoteConfig{
		APIBase:      srv.URL,
		CheckoutBase: "https://mysellkit.com",
		HTTPTimeout:  2 * time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestFetchPopupConfigParsesAndNormalizes(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get-popup-config" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("popup_id"); got != "pop-1" {
			t.Errorf("popup_id = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"response": map[string]any{
				"product_id":       "prod-1",
				"popup_name":       "Launch Offer",
				"trigger_type":     "exit_intent",
				"persistent_mode":  "yes",
				"mobile_floating":  "no",
				"is_live":          "yes",
				"stripe_connected": "yes",
				"image":            "//cdn.example.com/img.png",
			},
		})
	}))

	cfg, err := client.FetchPopupConfig(context.Background(), "pop-1")
	if err != nil {
		t.Fatalf("FetchPopupConfig: %v", err)
	}
	if cfg.TriggerType != "exit" {
		t.Fatalf("TriggerType = %q, want exit", cfg.TriggerType)
	}
	if !cfg.PersistentMode || cfg.MobileFloating {
		t.Fatalf("flag parse broken: %+v", cfg)
	}
	if !cfg.ShowPrice {
		t.Fatal("show_price absent should default to shown")
	}
	if cfg.Image != "https://cdn.example.com/img.png" {
		t.Fatalf("protocol-relative image not fixed: %q", cfg.Image)
	}
}

func TestFetchPopupConfigUnknownTriggerDefaultsToTime(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"response": map[string]any{
				"success":      "yes",
				"product_id":   "prod-1",
				"trigger_type": "hover",
			},
		})
	}))

	cfg, err := client.FetchPopupConfig(context.Background(), "pop-1")
	if err != nil {
		t.Fatalf("FetchPopupConfig: %v", err)
	}
	if cfg.TriggerType != "time" {
		t.Fatalf("TriggerType = %q, want time fallback", cfg.TriggerType)
	}
}

func TestFetchPopupConfigRejectsBadEnvelope(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"status": "error"})
	}))

	_, err := client.FetchPopupConfig(context.Background(), "pop-x")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestFetchPopupConfigRequiresProductID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "success",
			"response": map[string]any{"trigger_type": "time"},
		})
	}))

	_, err := client.FetchPopupConfig(context.Background(), "pop-1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION_ERROR, got %v", err)
	}
}

func TestTrackSendsFlatPayload(t *testing.T) {
	t.Parallel()

	var got map[string]any
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/track-event" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))

	err := client.Track(context.Background(), TrackEvent{
		PopupID:   "pop-1",
		ProductID: "prod-1",
		SessionID: "msk_1_abc",
		EventType: "click",
		PageURL:   "https://shop.example.com/page",
		UserAgent: "test-agent",
		Extra:     map[string]string{"purchase_token": "pt_1_xyz"},
	})
	if err != nil {
		t.Fatalf("Track: %v", err)
	}

	if got["event_type"] != "click" || got["purchase_token"] != "pt_1_xyz" {
		t.Fatalf("payload = %v", got)
	}
	if got["debug_mode"] != "no" {
		t.Fatalf("debug_mode = %v", got["debug_mode"])
	}
}

func TestCreateCheckoutSessionHappyPath(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var wire map[string]any
		json.NewDecoder(r.Body).Decode(&wire)
		if wire["purchase_token"] != "pt_1_xyz" {
			t.Errorf("purchase_token = %v", wire["purchase_token"])
		}
		json.NewEncoder(w).Encode(map[string]any{
			"response": map[string]any{
				"success":      "yes",
				"checkout_url": "https://pay.example.com/cs_123",
			},
		})
	}))

	sess, err := client.CreateCheckoutSession(context.Background(), CheckoutRequest{
		PopupID:       "pop-1",
		ProductID:     "prod-1",
		SessionID:     "msk_1_abc",
		PurchaseToken: "pt_1_xyz",
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if sess.URL != "https://pay.example.com/cs_123" {
		t.Fatalf("URL = %q", sess.URL)
	}
}

func TestCreateCheckoutSessionErrorPreference(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body map[string]any
		want string
	}{
		{
			name: "server error message preferred",
			body: map[string]any{"response": map[string]any{"success": "no", "error": "Card declined."}},
			want: "Unable to start checkout. Card declined.",
		},
		{
			name: "top-level error next",
			body: map[string]any{"error": "Popup misconfigured."},
			want: "Unable to start checkout. Popup misconfigured.",
		},
		{
			name: "explicit failure",
			body: map[string]any{"response": map[string]any{"success": "no"}},
			want: "Unable to start checkout. The checkout session could not be created.",
		},
		{
			name: "malformed response",
			body: map[string]any{"unexpected": true},
			want: "Unable to start checkout. Please try again or contact support.",
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				json.NewEncoder(w).Encode(tc.body)
			}))

			_, err := client.CreateCheckoutSession(context.Background(), CheckoutRequest{})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := pkgerrors.PublicMessage(err); got != tc.want {
				t.Fatalf("PublicMessage = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestCreateCheckoutSessionNetworkFailure(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse all connections

	client, err := NewClient(config.RemoteConfig{
		APIBase:      srv.URL,
		CheckoutBase: "https://mysellkit.com",
		HTTPTimeout:  time.Second,
	}, nil)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	_, err = client.CreateCheckoutSession(context.Background(), CheckoutRequest{})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %v", err)
	}
	if got := pkgerrors.PublicMessage(err); got != "Connection error. Please check your internet and try again." {
		t.Fatalf("PublicMessage = %q", got)
	}
}
