package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPrincipal struct {
	id   uuid.UUID
	role string
}

func (p stubPrincipal) GetUserID() uuid.UUID { return p.id }
func (p stubPrincipal) GetRole() string      { return p.role }

type stubValidator struct {
	token     string
	principal stubPrincipal
}

func (v stubValidator) ValidateToken(tokenString string) (Principal, error) {
	if tokenString != v.token {
		return nil, errors.New("invalid token")
	}
	return v.principal, nil
}

func TestAuthMiddleware(t *testing.T) {
	userID := uuid.New()
	validator := stubValidator{token: "good", principal: stubPrincipal{id: userID, role: "admin"}}

	var got Identity
	handler := AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		got, err = GetIdentity(r)
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "missing header", header: "", want: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", want: http.StatusUnauthorized},
		{name: "extra parts", header: "Bearer good extra", want: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer bad", want: http.StatusUnauthorized},
		{name: "valid token", header: "Bearer good", want: http.StatusNoContent},
		{name: "case-insensitive scheme", header: "bearer good", want: http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got = Identity{}
			req := httptest.NewRequest(http.MethodGet, "/applications", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusNoContent {
				assert.Equal(t, Identity{UserID: userID, Role: "admin"}, got)
			}
		})
	}
}

func TestGetIdentity_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetIdentity(req)
	assert.Error(t, err)
}
