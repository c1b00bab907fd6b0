// Package returns handles the visitor arriving back from checkout. The
// checkout redirect appends a marker to the return URL; on page load the
// markers are read once, acted on, and stripped so a reload does not
// replay the outcome.
package returns

import (
	"context"
	"fmt"
	"net/url"

	"github.com/mysellkit/popup-engine/pkg/logger"
)

// Query markers appended to checkout return URLs. Part of the external
// contract with the checkout service.
const (
	cancelledParam = "mysellkit_cancelled"
	successParam   = "mysellkit_success"
)

// Result reports which checkout markers the return URL carried. The two
// are independent; a URL can carry both.
type Result struct {
	Success   bool
	Cancelled bool
}

// History rewrites the address bar without reloading, the host's
// equivalent of history.replaceState.
type History interface {
	ReplaceURL(cleanURL string)
}

// Handler inspects the page URL on load and strips any checkout marker.
type Handler struct {
	history History
	logg    *logger.Logger
}

func NewHandler(history History, logg *logger.Logger) (*Handler, error) {
	if history == nil {
		return nil, fmt.Errorf("history required")
	}
	return &Handler{history: history, logg: logg}, nil
}

// Handle reads the checkout outcome from the page URL, checking both
// markers independently. When any marker is present the address bar is
// rewritten without it. An unparseable URL is treated as markerless.
func (h *Handler) Handle(ctx context.Context, pageURL string) Result {
	result, clean, changed := inspect(pageURL)
	if !changed {
		return result
	}

	h.history.ReplaceURL(clean)
	if h.logg != nil {
		h.logg.Debug(
			h.logg.WithFields(ctx, map[string]any{
				"success":   result.Success,
				"cancelled": result.Cancelled,
			}),
			"checkout return markers consumed",
		)
	}
	return result
}

// inspect evaluates each marker on its own and returns the URL with
// both markers removed.
func inspect(pageURL string) (Result, string, bool) {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return Result{}, pageURL, false
	}

	query := parsed.Query()
	result := Result{
		Success:   query.Get(successParam) == "true",
		Cancelled: query.Get(cancelledParam) == "true",
	}

	_, hadSuccess := query[successParam]
	_, hadCancelled := query[cancelledParam]
	if !hadSuccess && !hadCancelled {
		return result, pageURL, false
	}

	query.Del(successParam)
	query.Del(cancelledParam)
	parsed.RawQuery = query.Encode()
	return result, parsed.String(), true
}

// AppendCancelMarker builds the cancel-return URL for a checkout session
// from the current page URL. The success return goes through the remote
// payment-processing page, so only the cancel marker is built here.
func AppendCancelMarker(pageURL string) string {
	return appendMarker(pageURL, cancelledParam)
}

func appendMarker(pageURL, param string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		sep := "?"
		for _, r := range pageURL {
			if r == '?' {
				sep = "&"
				break
			}
		}
		return pageURL + sep + param + "=true"
	}
	query := parsed.Query()
	query.Set(param, "true")
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
