package types

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TransactionKindCall is the wire discriminant for contract-call
// transactions. It must match the node's expected tag exactly.
const TransactionKindCall = 2

var (
	ErrMissingField  = errors.New("transaction field missing")
	ErrStaleSequence = errors.New("stale transaction sequence")
)

// Transaction is an unsigned contract-call transaction. An empty Recipient
// means "deploy a new contract"; Payload then carries the contract bytecode
// instead of ABI-encoded call data.
type Transaction struct {
	Sender    Address
	Recipient Address
	Amount    uint64
	Fee       uint64
	GasLimit  uint64
	Payload   []byte
	Sequence  Seqno
}

// SignedTransaction is a Transaction together with the signer's public key
// and the signature over the canonical sign bytes. Both values are opaque
// hex strings produced by the signing service.
type SignedTransaction struct {
	Transaction
	PubKey    string
	Signature string
}

// NewCallTransaction builds a contract-call transaction against the given
// on-chain account sequence. The resulting Sequence is always
// accountSeq + 1; a transaction with any other sequence is rejected by the
// chain.
func NewCallTransaction(
	sender, recipient Address, amount, fee, gasLimit uint64, payload []byte, accountSeq Seqno,
) (*Transaction, error) {
	tx := &Transaction{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount,
		Fee:       fee,
		GasLimit:  gasLimit,
		Payload:   payload,
		Sequence:  accountSeq + 1,
	}
	if err := tx.Validate(); err != nil {
		return nil, err
	}
	return tx, nil
}

// Validate checks that every field the wire schema requires is present.
// Amount and Fee may legitimately be zero.
func (tx *Transaction) Validate() error {
	if tx.Sender.IsEmpty() {
		return fmt.Errorf("%w: sender", ErrMissingField)
	}
	if len(tx.Payload) == 0 {
		return fmt.Errorf("%w: payload", ErrMissingField)
	}
	if tx.Sequence == 0 {
		return fmt.Errorf("%w: sequence", ErrMissingField)
	}
	return nil
}

// IsDeploy reports whether the transaction creates a new contract.
func (tx *Transaction) IsDeploy() bool {
	return tx.Recipient.IsEmpty()
}

// Signed attaches the signature and public key returned by the signer.
func (tx *Transaction) Signed(pubKey, signature string) *SignedTransaction {
	return &SignedTransaction{
		Transaction: *tx,
		PubKey:      pubKey,
		Signature:   signature,
	}
}

// CheckSequence verifies that the transaction was built against the
// account's current on-chain sequence. Detects stale sequences before the
// chain rejects them.
func CheckSequence(tx *Transaction, account *Account) error {
	if tx.Sequence != account.Sequence+1 {
		return fmt.Errorf("%w: transaction has %d, account expects %d",
			ErrStaleSequence, tx.Sequence, account.Sequence+1)
	}
	return nil
}

// recipientText renders the recipient for the wire: the empty string
// signals contract creation.
func (tx *Transaction) recipientText() string {
	if tx.Recipient.IsEmpty() {
		return ""
	}
	return tx.Recipient.Hex()
}

// PayloadHex returns the payload as uppercase hex, the wire encoding for
// byte fields.
func (tx *Transaction) PayloadHex() string {
	return strings.ToUpper(hex.EncodeToString(tx.Payload))
}

type signedTxBody struct {
	Amount    uint64 `json:"amount"`
	Data      string `json:"data"`
	Fee       uint64 `json:"fee"`
	GasLimit  uint64 `json:"gas_limit"`
	PubKey    string `json:"pub_key"`
	Recipient string `json:"recipient"`
	Sender    string `json:"sender"`
	Sequence  uint64 `json:"sequence"`
	Signature string `json:"signature"`
}

// MarshalJSON renders the tagged variant [kind, body] the node expects.
func (stx *SignedTransaction) MarshalJSON() ([]byte, error) {
	body := signedTxBody{
		Amount:    stx.Amount,
		Data:      stx.PayloadHex(),
		Fee:       stx.Fee,
		GasLimit:  stx.GasLimit,
		PubKey:    stx.PubKey,
		Recipient: stx.recipientText(),
		Sender:    stx.Sender.Hex(),
		Sequence:  stx.Sequence.Uint64(),
		Signature: stx.Signature,
	}
	return json.Marshal([]any{TransactionKindCall, body})
}

// Receipt is the node's acknowledgment of a transaction accepted for
// inclusion. It is not confirmation: confirmation requires observing the
// chain height advance.
type Receipt struct {
	TxHash          string
	ContractAddress Address
}
