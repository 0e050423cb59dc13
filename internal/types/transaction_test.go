package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func testSender(t *testing.T) Address {
	t.Helper()

	addr, err := HexToAddress("0101010101010101010101010101010101010101")
	require.NoError(t, err)
	return addr
}

func TestNewCallTransaction(t *testing.T) {
	t.Parallel()

	tx, err := NewCallTransaction(testSender(t), EmptyAddress, 0, 1, 1_000_000, []byte{0x60}, 41)
	require.NoError(t, err)
	require.Equal(t, Seqno(42), tx.Sequence)
	require.True(t, tx.IsDeploy())

	recipient, err := HexToAddress("0202020202020202020202020202020202020202")
	require.NoError(t, err)
	tx, err = NewCallTransaction(testSender(t), recipient, 5, 1, 1_000_000, []byte{0x60}, 0)
	require.NoError(t, err)
	require.Equal(t, Seqno(1), tx.Sequence)
	require.False(t, tx.IsDeploy())
}

func TestTransactionValidate(t *testing.T) {
	t.Parallel()

	valid := Transaction{
		Sender:   testSender(t),
		Fee:      1,
		GasLimit: 1,
		Payload:  []byte{0x60},
		Sequence: 1,
	}
	require.NoError(t, valid.Validate())

	for _, tc := range []struct {
		name  string
		patch func(tx *Transaction)
	}{
		{"no sender", func(tx *Transaction) { tx.Sender = EmptyAddress }},
		{"no payload", func(tx *Transaction) { tx.Payload = nil }},
		{"no sequence", func(tx *Transaction) { tx.Sequence = 0 }},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tx := valid
			tc.patch(&tx)
			require.ErrorIs(t, tx.Validate(), ErrMissingField)
		})
	}
}

func TestCheckSequence(t *testing.T) {
	t.Parallel()

	account := &Account{Address: testSender(t), Sequence: 7}

	tx, err := NewCallTransaction(testSender(t), EmptyAddress, 0, 1, 1, []byte{0x60}, 7)
	require.NoError(t, err)
	require.NoError(t, CheckSequence(tx, account))

	// The account has since moved on; the transaction is stale.
	account.Sequence = 8
	err = CheckSequence(tx, account)
	require.ErrorIs(t, err, ErrStaleSequence)
}

func TestSignedTransactionMarshalJSON(t *testing.T) {
	t.Parallel()

	tx, err := NewCallTransaction(testSender(t), EmptyAddress, 0, 1, 1_000_000, []byte{0x60, 0x01}, 6)
	require.NoError(t, err)

	stx := tx.Signed("PUB", "SIG")
	b, err := json.Marshal(stx)
	require.NoError(t, err)

	var tagged []json.RawMessage
	require.NoError(t, json.Unmarshal(b, &tagged))
	require.Len(t, tagged, 2)
	require.JSONEq(t, `2`, string(tagged[0]))

	var body map[string]any
	require.NoError(t, json.Unmarshal(tagged[1], &body))
	require.Equal(t, "6001", body["data"])
	require.Equal(t, "", body["recipient"])
	require.Equal(t, "0101010101010101010101010101010101010101", body["sender"])
	require.Equal(t, float64(7), body["sequence"])
	require.Equal(t, "PUB", body["pub_key"])
	require.Equal(t, "SIG", body["signature"])
}
