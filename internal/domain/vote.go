package domain

import "time"

// VoteValue is a participant's reaction to a statement.
type VoteValue int16

const (
	VoteDisagree VoteValue = -1
	VotePass     VoteValue = 0
	VoteAgree    VoteValue = 1
)

func (v VoteValue) IsValid() bool {
	return v == VoteDisagree || v == VotePass || v == VoteAgree
}

// WeightScale is the fixed-point denominator for vote weights. Rational
// weights are stored as int(weight * WeightScale) to avoid floating-point
// drift in the ledger.
const WeightScale = 32767

// Vote is one append-only ledger row. Multiple rows may exist for the same
// (Pid, Tid) over time; the latest row per pair is authoritative.
type Vote struct {
	ConversationID int64
	Pid            int64
	Tid            int64
	Value          VoteValue
	WeightX32767   int32
	Created        time.Time
}

// Weight returns the rational weight encoded in WeightX32767.
func (v *Vote) Weight() float64 {
	return float64(v.WeightX32767) / WeightScale
}

// EncodeWeight converts a rational weight into fixed-point ledger form,
// clamped to [-1, 1].
func EncodeWeight(w float64) int32 {
	if w > 1 {
		w = 1
	}
	if w < -1 {
		w = -1
	}
	return int32(w * WeightScale)
}

// VectorChar returns the vote-vector character for a value.
func (v VoteValue) VectorChar() byte {
	switch v {
	case VoteAgree:
		return 'a'
	case VoteDisagree:
		return 'd'
	default:
		return 'p'
	}
}

// VectorUnvoted marks a statement position with no recorded vote.
const VectorUnvoted byte = 'u'
