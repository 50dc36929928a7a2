package entity

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"aprspass/lib/validate"

	"github.com/biter777/countries"
	"github.com/google/uuid"
)

// Status of a passcode request. A request starts pending and moves to
// exactly one terminal state; terminal states never change afterwards.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
)

var (
	callsignPattern = regexp.MustCompile(`^[A-Z0-9]{3,7}$`)
	locatorPattern  = regexp.MustCompile(`(?i)^[a-z]{2}[0-9]{2}([a-z]{2})?$`)
)

// NormalizeCallsign trims and upper-cases a callsign and checks it against
// the 3-7 character alphanumeric pattern. SSID suffixes are not accepted.
func NormalizeCallsign(raw string) (string, error) {
	call := strings.ToUpper(strings.TrimSpace(raw))
	if !callsignPattern.MatchString(call) {
		return "", ErrInvalidCallsign
	}
	return call, nil
}

// NormalizeLocator trims a Maidenhead locator and checks the 4 or 6
// character grid pattern. Case is preserved as entered.
func NormalizeLocator(raw string) (string, error) {
	loc := strings.TrimSpace(raw)
	if !locatorPattern.MatchString(loc) {
		return "", ErrInvalidLocator
	}
	return loc, nil
}

// SubmitForm is the public submission payload.
type SubmitForm struct {
	FullName string `json:"full_name" validate:"required,max=100"`
	Callsign string `json:"callsign" validate:"required"`
	Locator  string `json:"locator" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Comment  string `json:"comment" validate:"omitempty"`
	Country  string `json:"country" validate:"omitempty"`
}

func (f *SubmitForm) Bind(_ *http.Request) error {
	return validate.Struct(f)
}

// PasscodeRequest is a single APRS-IS passcode request record.
// Callsign is unique across the store; the uniqueness constraint lives in
// the storage engine, not here.
type PasscodeRequest struct {
	Id           string    `json:"id" bson:"id"`
	FullName     string    `json:"full_name" bson:"full_name"`
	Callsign     string    `json:"callsign" bson:"callsign"`
	Locator      string    `json:"locator" bson:"locator"`
	Email        string    `json:"email" bson:"email"`
	Comment      string    `json:"comment,omitempty" bson:"comment,omitempty"`
	Country      string    `json:"country,omitempty" bson:"country,omitempty"`
	SubmittedAt  time.Time `json:"submitted_at" bson:"submitted_at"`
	LastActionAt time.Time `json:"last_action_at" bson:"last_action_at"`
	ActionBy     string    `json:"action_by,omitempty" bson:"action_by,omitempty"`
	Status       Status    `json:"status" bson:"status"`
	Passcode     string    `json:"passcode,omitempty" bson:"passcode,omitempty"`
}

// NewRequest builds a pending request from a submitted form. This is the
// only path into the pending state; records loaded from the store are
// never re-normalized.
func NewRequest(form *SubmitForm) (*PasscodeRequest, error) {
	call, err := NormalizeCallsign(form.Callsign)
	if err != nil {
		return nil, err
	}
	loc, err := NormalizeLocator(form.Locator)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	req := &PasscodeRequest{
		Id:           uuid.New().String(),
		FullName:     strings.TrimSpace(form.FullName),
		Callsign:     call,
		Locator:      loc,
		Email:        strings.TrimSpace(form.Email),
		Comment:      strings.TrimSpace(form.Comment),
		SubmittedAt:  now,
		LastActionAt: now,
		Status:       StatusPending,
	}
	if form.Country != "" {
		country := countries.ByName(form.Country)
		if country != countries.Unknown {
			req.Country = country.Alpha2()
		} else {
			req.Country = strings.TrimSpace(form.Country)
		}
	}
	return req, nil
}

func (r *PasscodeRequest) IsPending() bool {
	return r.Status == StatusPending
}

func (r *PasscodeRequest) IsApproved() bool {
	return r.Status == StatusApproved
}

func (r *PasscodeRequest) IsDenied() bool {
	return r.Status == StatusDenied
}

// Approve applies the pending->approved transition, or re-applies it for a
// resend. The passcode is supplied by the caller; it must be a pure
// function of the callsign so re-approval never changes the stored value.
// Actor is empty on the auto-approval path.
func (r *PasscodeRequest) Approve(passcode, actor string) error {
	if r.Status == StatusDenied {
		return ErrDecisionFinal
	}
	r.Passcode = passcode
	r.Status = StatusApproved
	r.touch(actor)
	return nil
}

// Deny applies the pending->denied transition, or re-applies it for a
// resend. The passcode is never set on this path.
func (r *PasscodeRequest) Deny(actor string) error {
	if r.Status == StatusApproved {
		return ErrDecisionFinal
	}
	r.Status = StatusDenied
	r.touch(actor)
	return nil
}

func (r *PasscodeRequest) touch(actor string) {
	r.LastActionAt = time.Now().UTC()
	if actor != "" {
		r.ActionBy = actor
	}
}

// QRZURL is the qrz.com lookup page for the callsign.
func (r *PasscodeRequest) QRZURL() string {
	return fmt.Sprintf("https://www.qrz.com/db/%s", r.Callsign)
}

// LocatorURL is a grid-square map page for the locator.
func (r *PasscodeRequest) LocatorURL() string {
	return fmt.Sprintf("http://f6fvy.free.fr/qthLocator/fullScreen.php?locator=%s", r.Locator)
}
