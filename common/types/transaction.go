package types

import (
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/spacemeshos/go-scale"
)

// TransactionID is a random UUID identifying one logical chain
// transaction across all of its resubmissions.
type TransactionID [16]byte

// EmptyTransactionID is a canonical empty TransactionID.
var EmptyTransactionID = TransactionID{}

// NewTransactionID generates a random transaction identity.
func NewTransactionID() TransactionID {
	return TransactionID(uuid.New())
}

// Bytes returns the byte representation of the ID.
func (id TransactionID) Bytes() []byte { return id[:] }

// String implements fmt.Stringer.
func (id TransactionID) String() string {
	return uuid.UUID(id).String()
}

// EncodeScale implements scale codec interface.
func (id *TransactionID) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, id[:])
}

// DecodeScale implements scale codec interface.
func (id *TransactionID) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, id[:])
}

// TransactionStatus is the lifecycle state of a chain transaction.
type TransactionStatus uint8

const (
	// TxPendingInclusion marks a transaction built but not yet seen in
	// the destination chain mempool.
	TxPendingInclusion TransactionStatus = iota
	// TxMempool marks a transaction accepted by the mempool.
	TxMempool
	// TxIncluded marks a transaction included in a non-finalized block.
	TxIncluded
	// TxFinalized marks a transaction included in a finalized block.
	// Terminal.
	TxFinalized
	// TxDropped marks a transaction that will never land. Terminal.
	TxDropped
)

// String implements fmt.Stringer.
func (s TransactionStatus) String() string {
	switch s {
	case TxPendingInclusion:
		return "pending_inclusion"
	case TxMempool:
		return "mempool"
	case TxIncluded:
		return "included"
	case TxFinalized:
		return "finalized"
	case TxDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// Terminal returns true if no further transition is allowed from s.
func (s TransactionStatus) Terminal() bool {
	return s == TxFinalized || s == TxDropped
}

// DropReason explains why a transaction or payload was dropped.
type DropReason uint8

const (
	// DropReasonNone is the zero value for records that are not dropped.
	DropReasonNone DropReason = iota
	// DropFailedSimulation marks a payload whose precursor failed gas
	// estimation and was never submitted.
	DropFailedSimulation
	// DropDroppedByChain marks a transaction evicted from the mempool.
	DropDroppedByChain
	// DropReorged marks a transaction invalidated by a chain reorg.
	DropReorged
	// DropReverted marks a payload whose call reverted on-chain.
	DropReverted
	// DropQuorumHorizon marks a payload for which no quorum checkpoint
	// appeared within the bounded horizon.
	DropQuorumHorizon
	// DropReplaced marks a transaction superseded by a fee-escalated
	// rebuild of the same logical work.
	DropReplaced
)

// String implements fmt.Stringer.
func (r DropReason) String() string {
	switch r {
	case DropReasonNone:
		return "none"
	case DropFailedSimulation:
		return "failed_simulation"
	case DropDroppedByChain:
		return "dropped_by_chain"
	case DropReorged:
		return "reorged"
	case DropReverted:
		return "reverted"
	case DropQuorumHorizon:
		return "quorum_horizon"
	case DropReplaced:
		return "replaced"
	default:
		return "unknown"
	}
}

// Transaction is a destination-chain transaction owned exclusively by
// the dispatcher. Many payloads may be batched into one transaction.
type Transaction struct {
	ID          TransactionID
	Destination Domain
	Signer      Address
	// Precursor is the chain-specific transaction skeleton produced by
	// the adapter; the core treats it as opaque bytes.
	Precursor []byte
	Payloads  []PayloadID
	// Nonce is meaningful only when NonceSet is true; a freshly built
	// transaction has no nonce until the manager assigns one.
	Nonce    uint64
	NonceSet bool
	// Fee is the current total fee bid. Monotone non-decreasing across
	// resubmissions of the same logical transaction.
	Fee           uint256.Int
	GasLimit      uint64
	Status        TransactionStatus
	Reason        DropReason
	Attempts      uint32
	IncludedBlock uint64
	// LastSubmitted is the unix timestamp of the latest submission,
	// used to age transactions stuck in the mempool.
	LastSubmitted uint64
}

// EncodeScale implements scale codec interface.
func (t *Transaction) EncodeScale(enc *scale.Encoder) (total int, err error) {
	if n, err := scale.EncodeByteArray(enc, t.ID[:]); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact32(enc, t.Destination.Uint32()); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeByteArray(enc, t.Signer[:]); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeByteSliceWithLimit(enc, t.Precursor, maxPrecursorSize); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeStructSliceWithLimit(enc, t.Payloads, maxBatchedPayloads); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact64(enc, t.Nonce); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeBool(enc, t.NonceSet); err != nil {
		return total, err
	} else {
		total += n
	}
	fee := t.Fee.Bytes32()
	if n, err := scale.EncodeByteArray(enc, fee[:]); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact64(enc, t.GasLimit); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact8(enc, uint8(t.Status)); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact8(enc, uint8(t.Reason)); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact32(enc, t.Attempts); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact64(enc, t.IncludedBlock); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact64(enc, t.LastSubmitted); err != nil {
		return total, err
	} else {
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (t *Transaction) DecodeScale(dec *scale.Decoder) (total int, err error) {
	if n, err := scale.DecodeByteArray(dec, t.ID[:]); err != nil {
		return total, err
	} else {
		total += n
	}
	if field, n, err := scale.DecodeCompact32(dec); err != nil {
		return total, err
	} else {
		total += n
		t.Destination = Domain(field)
	}
	if n, err := scale.DecodeByteArray(dec, t.Signer[:]); err != nil {
		return total, err
	} else {
		total += n
	}
	if field, n, err := scale.DecodeByteSliceWithLimit(dec, maxPrecursorSize); err != nil {
		return total, err
	} else {
		total += n
		t.Precursor = field
	}
	if field, n, err := scale.DecodeStructSliceWithLimit[PayloadID](dec, maxBatchedPayloads); err != nil {
		return total, err
	} else {
		total += n
		t.Payloads = field
	}
	if field, n, err := scale.DecodeCompact64(dec); err != nil {
		return total, err
	} else {
		total += n
		t.Nonce = field
	}
	if field, n, err := scale.DecodeBool(dec); err != nil {
		return total, err
	} else {
		total += n
		t.NonceSet = field
	}
	var fee [32]byte
	if n, err := scale.DecodeByteArray(dec, fee[:]); err != nil {
		return total, err
	} else {
		total += n
		t.Fee.SetBytes32(fee[:])
	}
	if field, n, err := scale.DecodeCompact64(dec); err != nil {
		return total, err
	} else {
		total += n
		t.GasLimit = field
	}
	if field, n, err := scale.DecodeCompact8(dec); err != nil {
		return total, err
	} else {
		total += n
		t.Status = TransactionStatus(field)
	}
	if field, n, err := scale.DecodeCompact8(dec); err != nil {
		return total, err
	} else {
		total += n
		t.Reason = DropReason(field)
	}
	if field, n, err := scale.DecodeCompact32(dec); err != nil {
		return total, err
	} else {
		total += n
		t.Attempts = field
	}
	if field, n, err := scale.DecodeCompact64(dec); err != nil {
		return total, err
	} else {
		total += n
		t.IncludedBlock = field
	}
	if field, n, err := scale.DecodeCompact64(dec); err != nil {
		return total, err
	} else {
		total += n
		t.LastSubmitted = field
	}
	return total, nil
}

const (
	maxPrecursorSize   = 1 << 20
	maxBatchedPayloads = 256
)
