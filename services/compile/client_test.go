package compile

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

const adderSource = `pragma solidity ^0.8.0;

contract Adder {
    function add(uint256 a, uint256 b) public pure returns (uint256) {
        return a + b;
    }
}
`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL)
}

func TestCompile(t *testing.T) {
	t.Parallel()

	bytecode := []byte{0x60, 0x01, 0x60, 0x02}
	abi := `[{"type":"function","name":"add","inputs":[],"outputs":[]}]`

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/compile", r.URL.Path)

		var req compileRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "Adder", req.Name)
		require.Equal(t, Language, req.Language)

		source, err := base64.StdEncoding.DecodeString(req.Source)
		require.NoError(t, err)
		require.Equal(t, adderSource, string(source))

		resp := map[string]any{
			"bytecode": base64.StdEncoding.EncodeToString(bytecode),
			"abi":      json.RawMessage(abi),
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))

	artifact, err := c.Compile(context.Background(), "Adder", adderSource)
	require.NoError(t, err)
	require.Equal(t, "Adder", artifact.Name)
	require.Equal(t, bytecode, artifact.Bytecode)
	require.JSONEq(t, abi, string(artifact.ABI))
}

func TestCompileDoubleEscapedABI(t *testing.T) {
	t.Parallel()

	abi := `[{"type":"function","name":"add","inputs":[],"outputs":[]}]`

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// The ABI arrives as a JSON string containing JSON.
		resp := map[string]any{
			"bytecode": base64.StdEncoding.EncodeToString([]byte{0x60}),
			"abi":      abi,
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))

	artifact, err := c.Compile(context.Background(), "Adder", adderSource)
	require.NoError(t, err)
	require.JSONEq(t, abi, string(artifact.ABI))
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name string
		body string
		code int
	}{
		{"service error", `compile error: unexpected token`, http.StatusInternalServerError},
		{"malformed response", `{not json`, http.StatusOK},
		{"bad bytecode encoding", `{"bytecode": "!!!", "abi": []}`, http.StatusOK},
		{"empty bytecode", `{"bytecode": "", "abi": []}`, http.StatusOK},
		{"missing abi", `{"bytecode": "YQ=="}`, http.StatusOK},
		{"abi not json", `{"bytecode": "YQ==", "abi": "{not json"}`, http.StatusOK},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			body, code := tc.body, tc.code
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(code)
				_, _ = w.Write([]byte(body))
			}))

			_, err := c.Compile(context.Background(), "Adder", adderSource)
			require.ErrorIs(t, err, ErrCompile)
		})
	}
}

func TestParseContractName(t *testing.T) {
	t.Parallel()

	name, err := ParseContractName(adderSource)
	require.NoError(t, err)
	require.Equal(t, "Adder", name)

	_, err = ParseContractName("pragma solidity ^0.8.0;")
	require.ErrorIs(t, err, ErrCompile)
}
