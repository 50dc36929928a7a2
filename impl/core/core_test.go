package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aprspass/entity"
	"aprspass/impl/callpass"
	"aprspass/impl/club"
)

// storeStub keeps records in memory and enforces callsign uniqueness the
// way a real storage engine would: at insert, not via a pre-check.
type storeStub struct {
	records  map[string]*entity.PasscodeRequest // keyed by id
	inserted []*entity.PasscodeRequest
	saved    int
}

func newStoreStub() *storeStub {
	return &storeStub{records: make(map[string]*entity.PasscodeRequest)}
}

func (s *storeStub) InsertRequest(req *entity.PasscodeRequest) error {
	for _, existing := range s.records {
		if existing.Callsign == req.Callsign {
			return entity.ErrDuplicateCallsign
		}
	}
	clone := *req
	s.records[req.Id] = &clone
	s.inserted = append(s.inserted, &clone)
	return nil
}

func (s *storeStub) GetRequest(id string) (*entity.PasscodeRequest, error) {
	req, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	clone := *req
	return &clone, nil
}

func (s *storeStub) GetRequestByCallsign(callsign string) (*entity.PasscodeRequest, error) {
	for _, req := range s.records {
		if req.Callsign == callsign {
			clone := *req
			return &clone, nil
		}
	}
	return nil, nil
}

func (s *storeStub) GetRequests(status entity.Status) ([]*entity.PasscodeRequest, error) {
	var out []*entity.PasscodeRequest
	for _, req := range s.records {
		if status == "" || req.Status == status {
			clone := *req
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (s *storeStub) SaveRequest(req *entity.PasscodeRequest) error {
	clone := *req
	s.records[req.Id] = &clone
	s.saved++
	return nil
}

type mailStub struct {
	submissionAlerts int
	approvalNotices  int
	denialNotices    int
	failSubmission   bool
	failApproval     bool
	failDenial       bool
}

func (m *mailStub) SubmissionAlert(_ *entity.PasscodeRequest) error {
	m.submissionAlerts++
	if m.failSubmission {
		return fmt.Errorf("smtp send: connection refused")
	}
	return nil
}

func (m *mailStub) ApprovalNotice(_ *entity.PasscodeRequest) error {
	m.approvalNotices++
	if m.failApproval {
		return fmt.Errorf("smtp send: connection refused")
	}
	return nil
}

func (m *mailStub) DenialNotice(_ *entity.PasscodeRequest) error {
	m.denialNotices++
	if m.failDenial {
		return fmt.Errorf("smtp send: connection refused")
	}
	return nil
}

type alertStub struct {
	alerts int
}

func (a *alertStub) NewRequestAlert(_ *entity.PasscodeRequest) {
	a.alerts++
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestCore(db Store, mail Notifier) *Core {
	policy := club.New([]string{"arrl.net", "darc.de"})
	return New(db, mail, callpass.Generator{}, policy, discardLogger())
}

func form(callsign, email string) *entity.SubmitForm {
	return &entity.SubmitForm{
		FullName: "Jane Doe",
		Callsign: callsign,
		Locator:  "jo62nb",
		Email:    email,
	}
}

func TestSubmitRequest_Pending(t *testing.T) {
	db := newStoreStub()
	mail := &mailStub{}
	alerts := &alertStub{}
	c := newTestCore(db, mail)
	c.SetAlerter(alerts)

	req, err := c.SubmitRequest(context.Background(), form("dl1abc", "jane@example.com"))
	require.NoError(t, err)

	assert.Equal(t, "DL1ABC", req.Callsign)
	assert.Equal(t, entity.StatusPending, req.Status)
	assert.Empty(t, req.Passcode)
	assert.Equal(t, 1, mail.submissionAlerts)
	assert.Equal(t, 0, mail.approvalNotices)
	assert.Equal(t, 0, mail.denialNotices)
	assert.Equal(t, 1, alerts.alerts)
}

func TestSubmitRequest_ClubAutoApproval(t *testing.T) {
	db := newStoreStub()
	mail := &mailStub{}
	alerts := &alertStub{}
	c := newTestCore(db, mail)
	c.SetAlerter(alerts)

	req, err := c.SubmitRequest(context.Background(), form("dl1abc", "DL1ABC@darc.de"))
	require.NoError(t, err)

	assert.Equal(t, entity.StatusApproved, req.Status)
	assert.Equal(t, callpass.Passcode("DL1ABC"), req.Passcode)
	assert.Empty(t, req.ActionBy)

	// the record hit the store already approved; pending never observable
	require.Len(t, db.inserted, 1)
	assert.Equal(t, entity.StatusApproved, db.inserted[0].Status)

	assert.Equal(t, 1, mail.approvalNotices)
	assert.Equal(t, 0, mail.submissionAlerts)
	assert.Equal(t, 0, alerts.alerts)
}

func TestSubmitRequest_DuplicateCallsign(t *testing.T) {
	db := newStoreStub()
	mail := &mailStub{}
	c := newTestCore(db, mail)

	_, err := c.SubmitRequest(context.Background(), form("DL1ABC", "jane@example.com"))
	require.NoError(t, err)

	// same callsign in different case must collide after normalization
	_, err = c.SubmitRequest(context.Background(), form("dl1abc", "other@example.com"))
	assert.ErrorIs(t, err, entity.ErrDuplicateCallsign)

	assert.Len(t, db.records, 1)
	assert.Equal(t, 1, mail.submissionAlerts)
}

func TestSubmitRequest_ValidationBeforePersistence(t *testing.T) {
	db := newStoreStub()
	mail := &mailStub{}
	c := newTestCore(db, mail)

	_, err := c.SubmitRequest(context.Background(), form("ab", "jane@example.com"))
	assert.ErrorIs(t, err, entity.ErrInvalidCallsign)

	badLoc := form("dl1abc", "jane@example.com")
	badLoc.Locator = "12ab"
	_, err = c.SubmitRequest(context.Background(), badLoc)
	assert.ErrorIs(t, err, entity.ErrInvalidLocator)

	assert.Empty(t, db.records)
	assert.Equal(t, 0, mail.submissionAlerts)
}

func TestSubmitRequest_AlertFailureSwallowed(t *testing.T) {
	db := newStoreStub()
	mail := &mailStub{failSubmission: true}
	c := newTestCore(db, mail)

	req, err := c.SubmitRequest(context.Background(), form("dl1abc", "jane@example.com"))
	require.NoError(t, err)
	assert.Equal(t, entity.StatusPending, req.Status)
	assert.Len(t, db.records, 1)
}

func TestApproveRequest(t *testing.T) {
	db := newStoreStub()
	mail := &mailStub{}
	c := newTestCore(db, mail)

	submitted, err := c.SubmitRequest(context.Background(), form("dl1abc", "jane@example.com"))
	require.NoError(t, err)

	req, err := c.ApproveRequest(context.Background(), submitted.Id, "op1")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusApproved, req.Status)
	assert.Equal(t, callpass.Passcode("DL1ABC"), req.Passcode)
	assert.Equal(t, "op1", req.ActionBy)
	assert.Equal(t, 1, mail.approvalNotices)

	stored, _ := db.GetRequest(submitted.Id)
	assert.Equal(t, entity.StatusApproved, stored.Status)
}

func TestApproveRequest_NotFound(t *testing.T) {
	c := newTestCore(newStoreStub(), &mailStub{})
	_, err := c.ApproveRequest(context.Background(), "missing", "op1")
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestApproveRequest_MailFailureAfterCommit(t *testing.T) {
	db := newStoreStub()
	mail := &mailStub{}
	c := newTestCore(db, mail)

	submitted, err := c.SubmitRequest(context.Background(), form("dl1abc", "jane@example.com"))
	require.NoError(t, err)

	mail.failApproval = true
	req, err := c.ApproveRequest(context.Background(), submitted.Id, "op1")
	assert.ErrorIs(t, err, entity.ErrDeliveryFailed)
	require.NotNil(t, req)

	// the transition is committed even though the notice failed
	stored, _ := db.GetRequest(submitted.Id)
	assert.Equal(t, entity.StatusApproved, stored.Status)
	assert.Equal(t, callpass.Passcode("DL1ABC"), stored.Passcode)
}

func TestDenyRequest(t *testing.T) {
	db := newStoreStub()
	mail := &mailStub{}
	c := newTestCore(db, mail)

	submitted, err := c.SubmitRequest(context.Background(), form("dl1abc", "jane@example.com"))
	require.NoError(t, err)

	req, err := c.DenyRequest(context.Background(), submitted.Id, "op1")
	require.NoError(t, err)

	assert.Equal(t, entity.StatusDenied, req.Status)
	assert.Empty(t, req.Passcode)
	assert.Equal(t, 1, mail.denialNotices)
	assert.Equal(t, 0, mail.approvalNotices)
}

func TestDenyRequest_AfterApproveRejected(t *testing.T) {
	db := newStoreStub()
	mail := &mailStub{}
	c := newTestCore(db, mail)

	submitted, _ := c.SubmitRequest(context.Background(), form("dl1abc", "jane@example.com"))
	_, err := c.ApproveRequest(context.Background(), submitted.Id, "op1")
	require.NoError(t, err)

	_, err = c.DenyRequest(context.Background(), submitted.Id, "op2")
	assert.ErrorIs(t, err, entity.ErrDecisionFinal)

	stored, _ := db.GetRequest(submitted.Id)
	assert.Equal(t, entity.StatusApproved, stored.Status)
}

func TestResendNotification(t *testing.T) {
	t.Run("denied request", func(t *testing.T) {
		db := newStoreStub()
		mail := &mailStub{}
		c := newTestCore(db, mail)

		submitted, _ := c.SubmitRequest(context.Background(), form("dl1abc", "jane@example.com"))
		denied, err := c.DenyRequest(context.Background(), submitted.Id, "op1")
		require.NoError(t, err)

		req, err := c.ResendNotification(context.Background(), submitted.Id, "op1")
		require.NoError(t, err)

		assert.Equal(t, entity.StatusDenied, req.Status)
		assert.Empty(t, req.Passcode)
		assert.Equal(t, denied.SubmittedAt, req.SubmittedAt)
		assert.Equal(t, 2, mail.denialNotices)
		assert.Equal(t, 0, mail.approvalNotices)
	})

	t.Run("approved request keeps passcode", func(t *testing.T) {
		db := newStoreStub()
		mail := &mailStub{}
		c := newTestCore(db, mail)

		submitted, _ := c.SubmitRequest(context.Background(), form("dl1abc", "jane@example.com"))
		approved, err := c.ApproveRequest(context.Background(), submitted.Id, "op1")
		require.NoError(t, err)

		req, err := c.ResendNotification(context.Background(), submitted.Id, "op1")
		require.NoError(t, err)

		assert.Equal(t, approved.Passcode, req.Passcode)
		assert.Equal(t, 2, mail.approvalNotices)
	})

	t.Run("pending request rejected", func(t *testing.T) {
		db := newStoreStub()
		mail := &mailStub{}
		c := newTestCore(db, mail)

		submitted, _ := c.SubmitRequest(context.Background(), form("dl1abc", "jane@example.com"))
		_, err := c.ResendNotification(context.Background(), submitted.Id, "op1")
		assert.ErrorIs(t, err, entity.ErrNotDecided)
		assert.Equal(t, 0, mail.approvalNotices)
		assert.Equal(t, 0, mail.denialNotices)
	})
}

func TestDecideByCallsign(t *testing.T) {
	db := newStoreStub()
	mail := &mailStub{}
	c := newTestCore(db, mail)

	_, err := c.SubmitRequest(context.Background(), form("dl1abc", "jane@example.com"))
	require.NoError(t, err)

	req, err := c.ApproveByCallsign(context.Background(), "dl1abc", "op1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, req.Status)

	_, err = c.DenyByCallsign(context.Background(), "zz9zzz", "op1")
	assert.ErrorIs(t, err, entity.ErrNotFound)

	_, err = c.ApproveByCallsign(context.Background(), "!!", "op1")
	assert.ErrorIs(t, err, entity.ErrInvalidCallsign)
}

func TestPendingRequests(t *testing.T) {
	db := newStoreStub()
	mail := &mailStub{}
	c := newTestCore(db, mail)

	first, _ := c.SubmitRequest(context.Background(), form("dl1abc", "jane@example.com"))
	_, _ = c.SubmitRequest(context.Background(), form("oh2xyz", "someone@example.com"))
	_, err := c.ApproveRequest(context.Background(), first.Id, "op1")
	require.NoError(t, err)

	pending, err := c.PendingRequests(context.Background())
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "OH2XYZ", pending[0].Callsign)
}
