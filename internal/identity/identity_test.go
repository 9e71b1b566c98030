package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Prathap331/SB-Next/internal/testutil"
)

func TestSignUp(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/signup", r.URL.Path)
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"id":"u1","email":"a@b.c"}`))
	}))
	defer srv.Close()

	resp, err := New(srv.URL, "anon").SignUp(ctx, "a@b.c", "secret", "Ada Lovelace")
	require.NoError(t, err)

	assert.Equal(t, "u1", resp.ID)
	assert.Equal(t, "a@b.c", got["email"])
	assert.Equal(t, "secret", got["password"])
	assert.Equal(t, map[string]any{"full_name": "Ada Lovelace"}, got["data"])
}

func TestSignUpRequiresAnonKey(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	_, err := New("http://127.0.0.1:1", " ").SignUp(ctx, "a@b.c", "x", "y")
	require.ErrorIs(t, err, ErrMissingAnonKey)
}

func TestAuthErrors(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "error_description", body: `{"error":"invalid_grant","error_description":"Invalid login credentials"}`, want: "Invalid login credentials"},
		{name: "msg", body: `{"code":422,"msg":"User already registered"}`, want: "User already registered"},
		{name: "not json", body: `<html>`, want: "Sign-in failed."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL, "anon").SignIn(ctx, "a@b.c", "bad")

			var authErr *AuthError
			require.ErrorAs(t, err, &authErr)
			assert.Equal(t, tt.want, authErr.Message)
			assert.Equal(t, http.StatusBadRequest, authErr.Status)
		})
	}
}

func TestSignInReturnsRawSession(t *testing.T) {
	t.Parallel()
	ctx, _ := testutil.NewTestContext(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/v1/token", r.URL.Path)
		assert.Equal(t, "password", r.URL.Query().Get("grant_type"))
		_, _ = w.Write([]byte(`{"access_token":"tok","refresh_token":"ref","user":{"email":"a@b.c"}}`))
	}))
	defer srv.Close()

	blob, err := New(srv.URL, "anon").SignIn(ctx, "a@b.c", "pw")
	require.NoError(t, err)
	assert.JSONEq(t, `{"access_token":"tok","refresh_token":"ref","user":{"email":"a@b.c"}}`, string(blob))
}
