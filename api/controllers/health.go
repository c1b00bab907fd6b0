package controllers

import (
	"net/http"

	"github.com/mysellkit/popup-engine/api/responses"
	"github.com/mysellkit/popup-engine/pkg/config"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-MySellKit-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "ok"})
	}
}
