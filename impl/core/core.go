// Package core implements the passcode request lifecycle: validation,
// uniqueness, auto-approval, the pending/approved/denied state machine and
// the notifications each transition triggers.
package core

import (
	"context"
	"fmt"
	"log/slog"

	"aprspass/entity"
	"aprspass/lib/sl"
)

// Store is the record store contract. Insert must enforce callsign
// uniqueness in the storage engine and return entity.ErrDuplicateCallsign
// on violation; an application-level pre-check would race.
type Store interface {
	InsertRequest(req *entity.PasscodeRequest) error
	GetRequest(id string) (*entity.PasscodeRequest, error)
	GetRequestByCallsign(callsign string) (*entity.PasscodeRequest, error)
	GetRequests(status entity.Status) ([]*entity.PasscodeRequest, error)
	SaveRequest(req *entity.PasscodeRequest) error
}

// Notifier sends the three outbound mails. SubmissionAlert failures are
// swallowed by the core; ApprovalNotice and DenialNotice failures are
// surfaced to the caller.
type Notifier interface {
	SubmissionAlert(req *entity.PasscodeRequest) error
	ApprovalNotice(req *entity.PasscodeRequest) error
	DenialNotice(req *entity.PasscodeRequest) error
}

// PasscodeGenerator must be a pure function of the callsign: re-approval
// and resends recompute the passcode and rely on getting the same value.
type PasscodeGenerator interface {
	Passcode(callsign string) string
}

type ClubPolicy interface {
	IsMember(callsign, email string) bool
}

type AuthService interface {
	AdminByToken(token string) (*entity.Admin, error)
}

// Alerter is an optional side channel (Telegram) for new-request alerts.
type Alerter interface {
	NewRequestAlert(req *entity.PasscodeRequest)
}

type Core struct {
	db     Store
	mail   Notifier
	gen    PasscodeGenerator
	club   ClubPolicy
	auth   AuthService
	alerts Alerter
	log    *slog.Logger
}

func New(db Store, mail Notifier, gen PasscodeGenerator, club ClubPolicy, log *slog.Logger) *Core {
	if db == nil {
		panic("store is nil")
	}
	return &Core{
		db:   db,
		mail: mail,
		gen:  gen,
		club: club,
		log:  log.With(sl.Module("core")),
	}
}

func (c *Core) SetAuthService(auth AuthService) {
	c.auth = auth
}

func (c *Core) SetAlerter(alerts Alerter) {
	c.alerts = alerts
}

func (c *Core) AuthenticateByToken(token string) (*entity.Admin, error) {
	if c.auth == nil {
		return nil, fmt.Errorf("auth service not connected")
	}
	return c.auth.AdminByToken(token)
}

// SubmitRequest validates a submission and persists it. Club members are
// approved before the insert so a pending record is never observable for
// them and the uniqueness check stays atomic with record creation. On the
// regular path the admin alert is best-effort; on the auto-approval path
// the approval notice must succeed, though the record is already
// committed when it fails.
func (c *Core) SubmitRequest(_ context.Context, form *entity.SubmitForm) (*entity.PasscodeRequest, error) {
	req, err := entity.NewRequest(form)
	if err != nil {
		return nil, err
	}
	logger := c.log.With(sl.Callsign(req.Callsign))

	auto := c.club != nil && c.club.IsMember(req.Callsign, req.Email)
	if auto {
		// cannot fail on a fresh pending record
		_ = req.Approve(c.gen.Passcode(req.Callsign), "")
	}

	if err = c.db.InsertRequest(req); err != nil {
		return nil, err
	}

	if auto {
		logger.Info("request auto-approved", slog.String("id", req.Id))
		if err = c.mail.ApprovalNotice(req); err != nil {
			logger.Error("approval notice", sl.Err(err))
			return req, fmt.Errorf("%w: %v", entity.ErrDeliveryFailed, err)
		}
		return req, nil
	}

	logger.Info("request submitted", slog.String("id", req.Id))
	if err = c.mail.SubmissionAlert(req); err != nil {
		logger.Warn("submission alert", sl.Err(err))
	}
	if c.alerts != nil {
		c.alerts.NewRequestAlert(req)
	}
	return req, nil
}

// ApproveRequest decides a pending request, or resends the approval for an
// already approved one. The passcode is recomputed either way; the
// generator is deterministic so the stored value never changes.
func (c *Core) ApproveRequest(ctx context.Context, id, actor string) (*entity.PasscodeRequest, error) {
	req, err := c.loadRequest(id)
	if err != nil {
		return nil, err
	}
	return c.approve(ctx, req, actor)
}

// DenyRequest decides a pending request, or resends the denial for an
// already denied one.
func (c *Core) DenyRequest(ctx context.Context, id, actor string) (*entity.PasscodeRequest, error) {
	req, err := c.loadRequest(id)
	if err != nil {
		return nil, err
	}
	return c.deny(ctx, req, actor)
}

// ResendNotification re-triggers the outbound notification matching the
// request's current terminal status. Pending requests have nothing to
// resend and are reported as an error.
func (c *Core) ResendNotification(ctx context.Context, id, actor string) (*entity.PasscodeRequest, error) {
	req, err := c.loadRequest(id)
	if err != nil {
		return nil, err
	}
	switch req.Status {
	case entity.StatusApproved:
		return c.approve(ctx, req, actor)
	case entity.StatusDenied:
		return c.deny(ctx, req, actor)
	default:
		return nil, entity.ErrNotDecided
	}
}

func (c *Core) Request(_ context.Context, id string) (*entity.PasscodeRequest, error) {
	return c.loadRequest(id)
}

func (c *Core) Requests(_ context.Context, status entity.Status) ([]*entity.PasscodeRequest, error) {
	return c.db.GetRequests(status)
}

func (c *Core) PendingRequests(ctx context.Context) ([]*entity.PasscodeRequest, error) {
	return c.Requests(ctx, entity.StatusPending)
}

// ApproveByCallsign lets the Telegram channel decide by callsign instead
// of record id.
func (c *Core) ApproveByCallsign(ctx context.Context, callsign, actor string) (*entity.PasscodeRequest, error) {
	req, err := c.loadByCallsign(callsign)
	if err != nil {
		return nil, err
	}
	return c.approve(ctx, req, actor)
}

func (c *Core) DenyByCallsign(ctx context.Context, callsign, actor string) (*entity.PasscodeRequest, error) {
	req, err := c.loadByCallsign(callsign)
	if err != nil {
		return nil, err
	}
	return c.deny(ctx, req, actor)
}

func (c *Core) approve(_ context.Context, req *entity.PasscodeRequest, actor string) (*entity.PasscodeRequest, error) {
	if err := req.Approve(c.gen.Passcode(req.Callsign), actor); err != nil {
		return nil, err
	}
	if err := c.db.SaveRequest(req); err != nil {
		return nil, err
	}
	logger := c.log.With(sl.Callsign(req.Callsign), slog.String("actor", actor))
	logger.Info("request approved")
	if err := c.mail.ApprovalNotice(req); err != nil {
		logger.Error("approval notice", sl.Err(err))
		return req, fmt.Errorf("%w: %v", entity.ErrDeliveryFailed, err)
	}
	return req, nil
}

func (c *Core) deny(_ context.Context, req *entity.PasscodeRequest, actor string) (*entity.PasscodeRequest, error) {
	if err := req.Deny(actor); err != nil {
		return nil, err
	}
	if err := c.db.SaveRequest(req); err != nil {
		return nil, err
	}
	logger := c.log.With(sl.Callsign(req.Callsign), slog.String("actor", actor))
	logger.Info("request denied")
	if err := c.mail.DenialNotice(req); err != nil {
		logger.Error("denial notice", sl.Err(err))
		return req, fmt.Errorf("%w: %v", entity.ErrDeliveryFailed, err)
	}
	return req, nil
}

func (c *Core) loadRequest(id string) (*entity.PasscodeRequest, error) {
	req, err := c.db.GetRequest(id)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, entity.ErrNotFound
	}
	return req, nil
}

func (c *Core) loadByCallsign(callsign string) (*entity.PasscodeRequest, error) {
	call, err := entity.NormalizeCallsign(callsign)
	if err != nil {
		return nil, err
	}
	req, err := c.db.GetRequestByCallsign(call)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, entity.ErrNotFound
	}
	return req, nil
}
