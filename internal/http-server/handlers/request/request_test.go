package request

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aprspass/entity"
	"aprspass/lib/api/response"
)

type coreStub struct {
	submitFn func(ctx context.Context, form *entity.SubmitForm) (*entity.PasscodeRequest, error)
}

func (s *coreStub) SubmitRequest(ctx context.Context, form *entity.SubmitForm) (*entity.PasscodeRequest, error) {
	return s.submitFn(ctx, form)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doSubmit(t *testing.T, handler http.HandlerFunc, body string) (*httptest.ResponseRecorder, response.Response) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/request", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	var resp response.Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return rr, resp
}

const validBody = `{"full_name":"Jane Doe","callsign":"dl1abc","locator":"jo62nb","email":"jane@example.com"}`

func TestSubmit_Ok(t *testing.T) {
	stub := &coreStub{
		submitFn: func(_ context.Context, form *entity.SubmitForm) (*entity.PasscodeRequest, error) {
			return entity.NewRequest(form)
		},
	}
	rr, resp := doSubmit(t, Submit(discardLogger(), stub), validBody)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, resp.Success)
}

func TestSubmit_MissingFields(t *testing.T) {
	stub := &coreStub{
		submitFn: func(_ context.Context, form *entity.SubmitForm) (*entity.PasscodeRequest, error) {
			t.Fatal("core must not be reached on bind failure")
			return nil, nil
		},
	}
	rr, resp := doSubmit(t, Submit(discardLogger(), stub), `{"callsign":"dl1abc"}`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.False(t, resp.Success)
}

func TestSubmit_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{name: "invalid callsign", err: entity.ErrInvalidCallsign, code: http.StatusBadRequest},
		{name: "invalid locator", err: entity.ErrInvalidLocator, code: http.StatusBadRequest},
		{name: "duplicate", err: entity.ErrDuplicateCallsign, code: http.StatusConflict},
		{name: "delivery failed", err: entity.ErrDeliveryFailed, code: http.StatusBadGateway},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			stub := &coreStub{
				submitFn: func(_ context.Context, _ *entity.SubmitForm) (*entity.PasscodeRequest, error) {
					return nil, tc.err
				},
			}
			rr, resp := doSubmit(t, Submit(discardLogger(), stub), validBody)
			assert.Equal(t, tc.code, rr.Code)
			assert.False(t, resp.Success)
		})
	}
}
