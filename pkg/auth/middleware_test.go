package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSessionStore is an in-memory SessionStore for middleware tests.
type fakeSessionStore struct {
	active map[string]bool
}

func (f *fakeSessionStore) Save(_ context.Context, sess *Session) error {
	f.active[sess.TokenID] = true
	return nil
}

func (f *fakeSessionStore) Active(_ context.Context, tokenID string) (bool, error) {
	return f.active[tokenID], nil
}

func (f *fakeSessionStore) Revoke(_ context.Context, tokenID string) error {
	delete(f.active, tokenID)
	return nil
}

func TestMiddleware(t *testing.T) {
	signer := NewSigner([]byte("secret"), "auctionhouse", time.Hour)
	store := &fakeSessionStore{active: map[string]bool{}}

	handler := Middleware(signer, store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, int64(7), MustUserID(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}))

	token, sess, err := signer.Generate(7)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), sess))

	t.Run("valid token passes through", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TokenHeader, token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked session rejected", func(t *testing.T) {
		require.NoError(t, store.Revoke(context.Background(), sess.TokenID))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(TokenHeader, token)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
