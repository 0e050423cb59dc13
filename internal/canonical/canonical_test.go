package canonical

import (
	"strings"
	"testing"

	"github.com/kilnforge/kiln/internal/types"
	"github.com/stretchr/testify/require"
)

func mustAddr(t *testing.T, s string) types.Address {
	t.Helper()

	a, err := types.HexToAddress(s)
	require.NoError(t, err)
	return a
}

func newTestTx(t *testing.T) *types.Transaction {
	t.Helper()

	tx, err := types.NewCallTransaction(
		mustAddr(t, "0101010101010101010101010101010101010101"),
		types.EmptyAddress,
		0, 1, 1_000_000,
		[]byte{0x60, 0x01, 0x60, 0x02},
		6,
	)
	require.NoError(t, err)
	return tx
}

func TestMarshal(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		name     string
		value    any
		expected string
	}{
		{"nil", nil, `null`},
		{"bool", true, `true`},
		{"string", "abc", `"abc"`},
		{"html characters kept verbatim", "a<b&c>d", `"a<b&c>d"`},
		{"quote and backslash escaped", `a"b\c`, `"a\"b\\c"`},
		{"int", -42, `-42`},
		{"uint64", uint64(18446744073709551615), `18446744073709551615`},
		{"bytes", []byte{0xde, 0xad, 0xbe, 0xef}, `"DEADBEEF"`},
		{"empty bytes", []byte{}, `""`},
		{"array", []any{uint64(1), "a"}, `[1,"a"]`},
		{
			"sorted keys",
			map[string]any{"zeta": uint64(1), "alpha": uint64(2), "mid": "x"},
			`{"alpha":2,"mid":"x","zeta":1}`,
		},
		{
			"nested",
			map[string]any{"b": map[string]any{"d": uint64(1), "c": uint64(2)}, "a": []any{true}},
			`{"a":[true],"b":{"c":2,"d":1}}`,
		},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			b, err := Marshal(tc.value)
			require.NoError(t, err)
			require.Equal(t, tc.expected, string(b))
		})
	}
}

func TestMarshalRejectsFloats(t *testing.T) {
	t.Parallel()

	_, err := Marshal(map[string]any{"x": 1.5})
	require.ErrorIs(t, err, ErrEncoding)
}

func TestMarshalDeterministic(t *testing.T) {
	t.Parallel()

	// Maps built in different insertion orders must encode identically.
	first := map[string]any{}
	first["sender"] = []byte{0x01}
	first["amount"] = uint64(5)
	first["sequence"] = uint64(7)

	second := map[string]any{}
	second["sequence"] = uint64(7)
	second["amount"] = uint64(5)
	second["sender"] = []byte{0x01}

	a, err := Marshal(first)
	require.NoError(t, err)
	b, err := Marshal(second)
	require.NoError(t, err)
	require.Equal(t, a, b)

	for n := 0; n < 16; n++ {
		again, err := Marshal(first)
		require.NoError(t, err)
		require.Equal(t, a, again)
	}
}

func TestSignBytes(t *testing.T) {
	t.Parallel()

	tx := newTestTx(t)

	b, err := SignBytes("testing-1", tx)
	require.NoError(t, err)

	expected := `{"chain_id":"testing-1","tx":[2,{"amount":0,"data":"60016002",` +
		`"fee":1,"gas_limit":1000000,"recipient":"",` +
		`"sender":"0101010101010101010101010101010101010101","sequence":7}]}`
	require.Equal(t, expected, string(b))
}

func TestSignBytesChainIDNotHTMLEscaped(t *testing.T) {
	t.Parallel()

	b, err := SignBytes("dev&test<1>", newTestTx(t))
	require.NoError(t, err)
	require.Contains(t, string(b), `"chain_id":"dev&test<1>"`)
	require.NotContains(t, string(b), `\u00`)
}

func TestSignBytesCallRecipient(t *testing.T) {
	t.Parallel()

	tx := newTestTx(t)
	tx.Recipient = mustAddr(t, "0202020202020202020202020202020202020202")

	b, err := SignBytes("testing-1", tx)
	require.NoError(t, err)
	require.Contains(t, string(b), `"recipient":"0202020202020202020202020202020202020202"`)
}

func TestSignBytesErrors(t *testing.T) {
	t.Parallel()

	t.Run("empty chain id", func(t *testing.T) {
		t.Parallel()

		_, err := SignBytes("", newTestTx(t))
		require.ErrorIs(t, err, ErrEncoding)
	})

	t.Run("invalid transaction", func(t *testing.T) {
		t.Parallel()

		tx := newTestTx(t)
		tx.Payload = nil

		_, err := SignBytes("testing-1", tx)
		require.ErrorIs(t, err, ErrEncoding)
		require.ErrorIs(t, err, types.ErrMissingField)
	})
}

func TestSignHex(t *testing.T) {
	t.Parallel()

	tx := newTestTx(t)

	b, err := SignBytes("testing-1", tx)
	require.NoError(t, err)
	h, err := SignHex("testing-1", tx)
	require.NoError(t, err)

	require.Len(t, h, 2*len(b))
	require.Equal(t, strings.ToUpper(h), h)
}
