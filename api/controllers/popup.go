// Package controllers holds the stub API's HTTP handlers, speaking the
// same wire protocol the production popup service does.
package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/mysellkit/popup-engine/api/responses"
	"github.com/mysellkit/popup-engine/internal/catalog"
	pkgerrors "github.com/mysellkit/popup-engine/pkg/errors"
	"github.com/mysellkit/popup-engine/pkg/logger"
)

func GetPopupConfig(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		popupID := r.URL.Query().Get("popup_id")
		if popupID == "" {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "popup_id is required"))
			return
		}

		popup, ok := svc.Popup(popupID)
		if !ok {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeNotFound, "invalid popup id"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"success":          "yes",
			"product_id":       popup.ProductID,
			"popup_name":       popup.PopupName,
			"trigger_type":     popup.TriggerType,
			"trigger_value":    popup.TriggerValue,
			"persistent_mode":  yesNo(popup.PersistentMode),
			"mobile_floating":  yesNo(popup.MobileFloating),
			"is_live":          yesNo(popup.Live),
			"stripe_connected": yesNo(popup.StripeConnected),
			"show_price":       yesNo(popup.ShowPrice),
			"image":            popup.Image,
		})
	}
}

func TrackEvent(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var event catalog.Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event payload"))
			return
		}

		svc.RecordEvent(event)
		if logg != nil {
			eventType, _ := event["event_type"].(string)
			logg.Info(logg.WithEventType(r.Context(), eventType), "event recorded")
		}
		responses.WriteSuccess(w, map[string]string{"recorded": "yes"})
	}
}

func CreateCheckoutSession(svc *catalog.Service, logg *logger.Logger) http.HandlerFunc {
	type request struct {
		PopupID   string `json:"popup_id"`
		ProductID string `json:"product_id"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			responses.WriteError(r.Context(), logg, w,
				pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout payload"))
			return
		}

		checkoutURL, err := svc.CreateSession(req.PopupID, req.ProductID)
		if err != nil {
			// Checkout failures travel inside a 200 response envelope,
			// matching the production service's behavior.
			if logg != nil {
				logg.Warn(logg.WithField(r.Context(), "error", err.Error()), "checkout session refused")
			}
			responses.WriteSuccess(w, map[string]string{
				"success": "no",
				"error":   pkgerrors.PublicMessage(err),
			})
			return
		}

		responses.WriteSuccess(w, map[string]string{
			"success":      "yes",
			"checkout_url": checkoutURL,
		})
	}
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
