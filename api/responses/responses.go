// Package responses writes the wire envelopes the widget's API speaks:
// a success status with a response object, or a flat error message.
package responses

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	pkgerrors "github.com/mysellkit/popup-engine/pkg/errors"
	"github.com/mysellkit/popup-engine/pkg/logger"
)

type successEnvelope struct {
	Status   string `json:"status"`
	Response any    `json:"response"`
}

type errorEnvelope struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}

func WriteSuccess(w http.ResponseWriter, response any) {
	writeJSON(w, http.StatusOK, successEnvelope{Status: "success", Response: response})
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	meta := pkgerrors.MetadataFor(typed.Code())

	if logg != nil {
		ctx = logg.WithField(ctx, "error_code", string(typed.Code()))
		logg.Error(ctx, "request.error", err)
	}

	writeJSON(w, meta.HTTPStatus, errorEnvelope{
		Status: "error",
		Error:  pkgerrors.PublicMessage(err),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
