package signing

// Domain separates signatures over different message kinds so a
// signature produced for one purpose can never be replayed for another.
type Domain byte

const (
	// CHECKPOINT is the domain of validator checkpoint attestations.
	CHECKPOINT Domain = 0
)

// String returns the string representation of a domain.
func (d Domain) String() string {
	switch d {
	case CHECKPOINT:
		return "CHECKPOINT"
	default:
		return "UNKNOWN"
	}
}
