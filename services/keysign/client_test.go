package keysign

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kilnforge/kiln/internal/types"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func testAddr(t *testing.T) types.Address {
	t.Helper()

	addr, err := types.HexToAddress("0101010101010101010101010101010101010101")
	require.NoError(t, err)
	return addr
}

func TestSign(t *testing.T) {
	t.Parallel()

	addr := testAddr(t)

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/sign", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "DEADBEEF", req["msg"])
		require.Equal(t, addr.Hex(), req["addr"])

		_, _ = w.Write([]byte(`{"Response": "SIGNATURE", "Error": ""}`))
	}))

	sig, err := c.Sign(context.Background(), "DEADBEEF", addr)
	require.NoError(t, err)
	require.Equal(t, "SIGNATURE", sig)
}

func TestPublicKey(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pub", r.URL.Path)
		_, _ = w.Write([]byte(`{"Response": "PUBKEY", "Error": ""}`))
	}))

	pub, err := c.PublicKey(context.Background(), testAddr(t))
	require.NoError(t, err)
	require.Equal(t, "PUBKEY", pub)
}

func TestSignerErrors(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name   string
		body   string
		code   int
		reason string
	}{
		{"error envelope", `{"Response": "", "Error": "unknown address"}`, http.StatusOK, "unknown address"},
		{"empty response", `{"Response": "", "Error": ""}`, http.StatusOK, "empty response"},
		{"malformed response", `{not json`, http.StatusOK, "malformed response"},
		{"bad status", `down for maintenance`, http.StatusServiceUnavailable, "unexpected status code"},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			body, code := tc.body, tc.code
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
				_, _ = w.Write([]byte(body))
			}))

			_, err := c.Sign(context.Background(), "DEADBEEF", testAddr(t))
			require.ErrorIs(t, err, ErrSigning)
			require.Contains(t, err.Error(), tc.reason)
		})
	}
}
