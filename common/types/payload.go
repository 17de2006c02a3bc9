package types

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/spacemeshos/go-scale"
)

// PayloadID identifies a unit of deliverable work. It is derived from
// the message leaf, the destination domain and the delivery attempt, so
// a retried payload gets a fresh identity.
type PayloadID Hash32

// NewPayloadID derives the payload identity.
func NewPayloadID(destination Domain, leaf Hash32, attempt uint32) PayloadID {
	buf := make([]byte, 0, Hash32Length+8)
	buf = binary.BigEndian.AppendUint32(buf, destination.Uint32())
	buf = append(buf, leaf.Bytes()...)
	buf = binary.BigEndian.AppendUint32(buf, attempt)
	return PayloadID(CalcHash32(buf))
}

// Bytes returns the byte representation of the ID.
func (id PayloadID) Bytes() []byte { return id[:] }

// Hash32 returns the ID as a Hash32.
func (id PayloadID) Hash32() Hash32 { return Hash32(id) }

// String implements fmt.Stringer.
func (id PayloadID) String() string {
	return hex.EncodeToString(id[:])[:10]
}

// EncodeScale implements scale codec interface.
func (id *PayloadID) EncodeScale(e *scale.Encoder) (int, error) {
	return scale.EncodeByteArray(e, id[:])
}

// DecodeScale implements scale codec interface.
func (id *PayloadID) DecodeScale(d *scale.Decoder) (int, error) {
	return scale.DecodeByteArray(d, id[:])
}

// PayloadStatus is the lifecycle state of a Payload.
type PayloadStatus uint8

const (
	// PayloadReadyToSubmit marks a payload awaiting a transaction.
	PayloadReadyToSubmit PayloadStatus = iota
	// PayloadInTransaction marks a payload owned by a live transaction.
	PayloadInTransaction
	// PayloadDelivered marks a payload whose success criteria held
	// after its transaction finalized. Terminal.
	PayloadDelivered
	// PayloadDropped marks a payload terminally failed. Terminal.
	PayloadDropped
	// PayloadRetry marks a payload that must be resubmitted as a fresh
	// payload record. Terminal for this record.
	PayloadRetry
)

// String implements fmt.Stringer.
func (s PayloadStatus) String() string {
	switch s {
	case PayloadReadyToSubmit:
		return "ready_to_submit"
	case PayloadInTransaction:
		return "in_transaction"
	case PayloadDelivered:
		return "delivered"
	case PayloadDropped:
		return "dropped"
	case PayloadRetry:
		return "retry"
	default:
		return "unknown"
	}
}

// Terminal returns true if no further transition is allowed from s.
func (s PayloadStatus) Terminal() bool {
	return s == PayloadDelivered || s == PayloadDropped || s == PayloadRetry
}

// Payload is a destination-chain-agnostic unit of work. Immutable after
// creation except for its lifecycle status.
type Payload struct {
	ID          PayloadID
	Destination Domain
	// Leaf is the message commitment the payload delivers.
	Leaf      Hash32
	LeafIndex uint32
	// Calldata is the chain-agnostic calldata template handed to the
	// chain adapter when building a transaction precursor.
	Calldata []byte
	// SuccessCriteria is opaque to the core; the adapter evaluates it
	// against chain state once the owning transaction finalizes.
	SuccessCriteria []byte
	Attempt         uint32
	Status          PayloadStatus
	Reason          DropReason
}

// EncodeScale implements scale codec interface.
func (p *Payload) EncodeScale(enc *scale.Encoder) (total int, err error) {
	if n, err := scale.EncodeByteArray(enc, p.ID[:]); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact32(enc, p.Destination.Uint32()); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeByteArray(enc, p.Leaf[:]); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact32(enc, p.LeafIndex); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeByteSliceWithLimit(enc, p.Calldata, maxCalldataSize); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeByteSliceWithLimit(enc, p.SuccessCriteria, maxCriteriaSize); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact32(enc, p.Attempt); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact8(enc, uint8(p.Status)); err != nil {
		return total, err
	} else {
		total += n
	}
	if n, err := scale.EncodeCompact8(enc, uint8(p.Reason)); err != nil {
		return total, err
	} else {
		total += n
	}
	return total, nil
}

// DecodeScale implements scale codec interface.
func (p *Payload) DecodeScale(dec *scale.Decoder) (total int, err error) {
	if n, err := scale.DecodeByteArray(dec, p.ID[:]); err != nil {
		return total, err
	} else {
		total += n
	}
	if field, n, err := scale.DecodeCompact32(dec); err != nil {
		return total, err
	} else {
		total += n
		p.Destination = Domain(field)
	}
	if n, err := scale.DecodeByteArray(dec, p.Leaf[:]); err != nil {
		return total, err
	} else {
		total += n
	}
	if field, n, err := scale.DecodeCompact32(dec); err != nil {
		return total, err
	} else {
		total += n
		p.LeafIndex = field
	}
	if field, n, err := scale.DecodeByteSliceWithLimit(dec, maxCalldataSize); err != nil {
		return total, err
	} else {
		total += n
		p.Calldata = field
	}
	if field, n, err := scale.DecodeByteSliceWithLimit(dec, maxCriteriaSize); err != nil {
		return total, err
	} else {
		total += n
		p.SuccessCriteria = field
	}
	if field, n, err := scale.DecodeCompact32(dec); err != nil {
		return total, err
	} else {
		total += n
		p.Attempt = field
	}
	if field, n, err := scale.DecodeCompact8(dec); err != nil {
		return total, err
	} else {
		total += n
		p.Status = PayloadStatus(field)
	}
	if field, n, err := scale.DecodeCompact8(dec); err != nil {
		return total, err
	} else {
		total += n
		p.Reason = DropReason(field)
	}
	return total, nil
}

const (
	maxCalldataSize = 1 << 20
	maxCriteriaSize = 1 << 12
)
