// Package admreq carries the admin request-management endpoints: listing,
// lookup and the approve/deny/resend decisions.
package admreq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"aprspass/entity"
	"aprspass/lib/api/cont"
	"aprspass/lib/api/response"
	"aprspass/lib/sl"
)

type Core interface {
	Request(ctx context.Context, id string) (*entity.PasscodeRequest, error)
	Requests(ctx context.Context, status entity.Status) ([]*entity.PasscodeRequest, error)
	ApproveRequest(ctx context.Context, id, actor string) (*entity.PasscodeRequest, error)
	DenyRequest(ctx context.Context, id, actor string) (*entity.PasscodeRequest, error)
	ResendNotification(ctx context.Context, id, actor string) (*entity.PasscodeRequest, error)
}

// List returns requests filtered by the `status` query parameter;
// without it all requests are listed, oldest first.
func List(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.admreq")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			log.Error("request service not available")
			render.JSON(w, r, response.Error("Request service not available"))
			return
		}

		status := entity.Status(r.URL.Query().Get("status"))
		switch status {
		case "", entity.StatusPending, entity.StatusApproved, entity.StatusDenied:
		default:
			log.Warn("invalid status filter", slog.String("status", string(status)))
			render.Status(r, 400)
			render.JSON(w, r, response.Error("Invalid status filter"))
			return
		}

		requests, err := handler.Requests(r.Context(), status)
		if err != nil {
			log.Error("list requests", sl.Err(err))
			render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
			return
		}
		log.With(slog.Int("count", len(requests))).Debug("requests listed")

		render.JSON(w, r, response.Ok(requests))
	}
}

func Get(logger *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.admreq")
		id := chi.URLParam(r, "id")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("id", id),
		)

		if handler == nil {
			log.Error("request service not available")
			render.JSON(w, r, response.Error("Request service not available"))
			return
		}

		req, err := handler.Request(r.Context(), id)
		if err != nil {
			renderDecisionError(w, r, log, err)
			return
		}

		render.JSON(w, r, response.Ok(req))
	}
}

// Approve decides a pending request or resends an approval notice. The
// acting admin comes from the authenticated context and is recorded on
// the request.
func Approve(logger *slog.Logger, handler Core) http.HandlerFunc {
	return decision(logger, handler, "approve", func(h Core, ctx context.Context, id, actor string) (*entity.PasscodeRequest, error) {
		return h.ApproveRequest(ctx, id, actor)
	})
}

func Deny(logger *slog.Logger, handler Core) http.HandlerFunc {
	return decision(logger, handler, "deny", func(h Core, ctx context.Context, id, actor string) (*entity.PasscodeRequest, error) {
		return h.DenyRequest(ctx, id, actor)
	})
}

func Resend(logger *slog.Logger, handler Core) http.HandlerFunc {
	return decision(logger, handler, "resend", func(h Core, ctx context.Context, id, actor string) (*entity.PasscodeRequest, error) {
		return h.ResendNotification(ctx, id, actor)
	})
}

func decision(logger *slog.Logger, handler Core, action string, op func(Core, context.Context, string, string) (*entity.PasscodeRequest, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.admreq")
		id := chi.URLParam(r, "id")

		log := logger.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("id", id),
			slog.String("action", action),
		)

		admin := cont.GetAdmin(r.Context())
		if admin.Username == "" {
			log.Error("admin not found")
			render.Status(r, 401)
			render.JSON(w, r, response.Error("Admin not found"))
			return
		}
		log = log.With(slog.String("admin", admin.Username))

		if handler == nil {
			log.Error("request service not available")
			render.JSON(w, r, response.Error("Request service not available"))
			return
		}

		req, err := op(handler, r.Context(), id, admin.Username)
		if errors.Is(err, entity.ErrDeliveryFailed) {
			// decision is committed; only the notice failed
			log.Error("decision saved, notice failed", sl.Err(err))
			render.Status(r, 502)
			render.JSON(w, r, response.Error("Decision saved but the notification could not be sent"))
			return
		}
		if err != nil {
			renderDecisionError(w, r, log, err)
			return
		}
		log.With(slog.String("status", string(req.Status))).Debug("decision applied")

		render.JSON(w, r, response.Ok(req))
	}
}

func renderDecisionError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		log.Warn("request not found")
		render.Status(r, 404)
		render.JSON(w, r, response.Error("Request not found"))
	case errors.Is(err, entity.ErrDecisionFinal):
		log.Warn("request already decided")
		render.Status(r, 409)
		render.JSON(w, r, response.Error("Request already decided"))
	case errors.Is(err, entity.ErrNotDecided):
		log.Warn("request not decided yet")
		render.Status(r, 409)
		render.JSON(w, r, response.Error("Request has no decision to resend"))
	default:
		log.Error("request operation", sl.Err(err))
		render.JSON(w, r, response.Error(fmt.Sprintf("Request failed: %v", err)))
	}
}
