package types

// Variance is the polarity of a type position.
// Composing positions multiplies variances, so Invariant absorbs everything.
type Variance int8

const (
	Contravariant Variance = -1
	Invariant     Variance = 0
	Covariant     Variance = 1
)

func (v Variance) Flip() Variance { return -v }

// Compose returns the variance of a position nested at inner inside a position of variance v
func (v Variance) Compose(inner Variance) Variance { return v * inner }

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "covariant"
	case Contravariant:
		return "contravariant"
	default:
		return "invariant"
	}
}
