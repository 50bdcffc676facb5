package register

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/elearning-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/elearning-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/elearning-platform/internal/models"
	services "github.com/magabrotheeeer/elearning-platform/internal/services/auth"
)

type AuthServiceMock struct {
	mock.Mock
}

func (m *AuthServiceMock) Register(ctx context.Context, email, name, password string) (*services.Session, error) {
	args := m.Called(ctx, email, name, password)
	resp, _ := args.Get(0).(*services.Session)
	return resp, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	valid := Request{Email: "ann@example.com", Password: "password123", Name: "Ann"}

	tests := []struct {
		name           string
		requestBody    any
		mockResp       *services.Session
		mockErr        error
		wantStatusCode int
		wantError      string
	}{
		{
			name:        "valid registration",
			requestBody: valid,
			mockResp: &services.Session{
				Token:         "tok",
				User:          &models.User{ID: "u-1", Email: "ann@example.com", Name: "Ann", Role: models.RoleUser},
				Subscriptions: []*models.Subscription{},
			},
			wantStatusCode: http.StatusCreated,
		},
		{
			name:           "invalid json body",
			requestBody:    "not a json",
			wantStatusCode: http.StatusBadRequest,
			wantError:      "invalid request body",
		},
		{
			name:           "validation error - short password",
			requestBody:    Request{Email: "ann@example.com", Password: "123", Name: "Ann"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Password must be at least 6 characters",
		},
		{
			name:           "validation error - bad email",
			requestBody:    Request{Email: "ann", Password: "password123", Name: "Ann"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Email must be a valid email",
		},
		{
			name:           "validation error - missing email",
			requestBody:    Request{Password: "password123", Name: "Ann"},
			wantStatusCode: http.StatusBadRequest,
			wantError:      "field Email is a required field",
		},
		{
			name:           "email taken",
			requestBody:    valid,
			mockErr:        apperr.Conflict("email already registered"),
			wantStatusCode: http.StatusConflict,
			wantError:      "email already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authMock := new(AuthServiceMock)
			if tt.mockResp != nil || tt.mockErr != nil {
				req := tt.requestBody.(Request)
				authMock.On("Register", mock.Anything, req.Email, req.Name, req.Password).Return(tt.mockResp, tt.mockErr).Once()
			}
			handler := New(newNoopLogger(), authMock, middlewarectx.CookieSettings{Name: "token", TTL: time.Hour})

			var bodyBytes []byte
			if s, ok := tt.requestBody.(string); ok {
				bodyBytes = []byte(s)
			} else {
				var err error
				bodyBytes, err = json.Marshal(tt.requestBody)
				require.NoError(t, err)
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/register", bytes.NewReader(bodyBytes))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			var got map[string]any
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
			if tt.wantError != "" {
				assert.Equal(t, "Error", got["status"])
				assert.Equal(t, tt.wantError, got["error"])
				assert.Empty(t, rec.Result().Cookies())
			} else {
				assert.Equal(t, "OK", got["status"])
				data := got["data"].(map[string]any)
				assert.Equal(t, "tok", data["token"])
				require.Len(t, rec.Result().Cookies(), 1)
			}
			authMock.AssertExpectations(t)
		})
	}
}
