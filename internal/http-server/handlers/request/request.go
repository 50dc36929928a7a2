package request

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"aprspass/entity"
	"aprspass/lib/api/response"
	"aprspass/lib/sl"
)

type Core interface {
	SubmitRequest(ctx context.Context, form *entity.SubmitForm) (*entity.PasscodeRequest, error)
}

// Submit is the public endpoint: validates the form, persists the request
// and reports the resulting status. Validation and duplicate errors come
// back as client errors; a failed approval notice on the auto-approval
// path is reported as 502 while the record itself is already committed.
func Submit(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.request")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("request service not available")
			render.JSON(w, r, response.Error("Request service not available"))
			return
		}

		var form entity.SubmitForm
		if err := render.Bind(r, &form); err != nil {
			logger.Warn("bind request", sl.Err(err))
			render.Status(r, 400)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(sl.Callsign(form.Callsign))

		req, err := handler.SubmitRequest(r.Context(), &form)
		switch {
		case errors.Is(err, entity.ErrInvalidCallsign):
			logger.Warn("invalid callsign")
			render.Status(r, 400)
			render.JSON(w, r, response.Error("You need to supply a valid callsign without an SSID"))
			return
		case errors.Is(err, entity.ErrInvalidLocator):
			logger.Warn("invalid locator")
			render.Status(r, 400)
			render.JSON(w, r, response.Error("You need to supply a valid QTH locator"))
			return
		case errors.Is(err, entity.ErrDuplicateCallsign):
			logger.Warn("duplicate callsign")
			render.Status(r, 409)
			render.JSON(w, r, response.Error("A request for this callsign already exists"))
			return
		case errors.Is(err, entity.ErrDeliveryFailed):
			logger.Error("submission accepted, notice failed", sl.Err(err))
			render.Status(r, 502)
			render.JSON(w, r, response.Error("Request accepted but the notification could not be sent"))
			return
		case err != nil:
			logger.Error("submit request", sl.Err(err))
			render.Status(r, 500)
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}
		logger.With(
			slog.String("id", req.Id),
			slog.String("status", string(req.Status)),
		).Debug("request submitted")

		render.JSON(w, r, response.Ok(req))
	}
}
