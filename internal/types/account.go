package types

// Seqno is a per-account strictly increasing transaction counter.
// The chain rejects a transaction whose sequence is not the account's
// current sequence plus one.
type Seqno uint64

func (s Seqno) Uint64() uint64 { return uint64(s) }

// Account is the chain-side view of an address. The orchestrator only ever
// reads it; Sequence is the value recorded on-chain, not a local counter.
type Account struct {
	Address  Address
	Sequence Seqno
	Balance  uint64
	Code     []byte
}
