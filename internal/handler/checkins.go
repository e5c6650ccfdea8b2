package handler

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mailprefs/internal/notify"
)

type checkinDispatcher interface {
	Dispatch(ctx context.Context, c notify.Checkin) (int, error)
}

// CheckinsHandler accepts check-in events from the build server.
type CheckinsHandler struct {
	BaseHandler
	dispatcher checkinDispatcher
	token      string
}

func NewCheckinsHandler(logger *slog.Logger, d checkinDispatcher, token string) *CheckinsHandler {
	return &CheckinsHandler{BaseHandler: BaseHandler{Logger: logger}, dispatcher: d, token: token}
}

// Create queues notifications for a check-in. Requests must carry the
// configured bearer token; with no token configured the endpoint is closed.
func (h *CheckinsHandler) Create(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.errorResponse(w, r, http.StatusUnauthorized, "invalid or missing token")
		return
	}

	var c notify.Checkin
	if err := h.readJSON(w, r, &c); err != nil {
		h.badRequestResponse(w, r, err)
		return
	}
	c.Pipeline = strings.TrimSpace(c.Pipeline)
	c.Author = strings.TrimSpace(c.Author)
	if c.Pipeline == "" || c.Revision == "" || c.Author == "" {
		h.badRequestResponse(w, r, errors.New("pipeline, revision and author are required"))
		return
	}

	queued, err := h.dispatcher.Dispatch(r.Context(), c)
	switch {
	case errors.Is(err, notify.ErrSMTPDisabled):
		h.errorResponse(w, r, http.StatusConflict, "email notifications are disabled on this server")
		return
	case err != nil:
		h.serverErrorResponse(w, r, err)
		return
	}

	if err := h.writeJSON(w, http.StatusAccepted, envelope{"queued": queued}, nil); err != nil {
		h.serverErrorResponse(w, r, err)
	}
}

func (h *CheckinsHandler) authorized(r *http.Request) bool {
	if h.token == "" {
		return false
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.token)) == 1
}
