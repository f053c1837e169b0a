package core

import "math/rand/v2"

const (
	idRetryLimit = 100
	idSentinel   = 1
)

// IDSource returns candidate fiber identifiers. Values must be non-negative;
// negative values are folded to their absolute value.
type IDSource func() int64

func randomID() int64 {
	return rand.Int64()
}

// newFiberID draws from source until it gets a non-zero value, giving up
// after a bounded number of attempts. Uniqueness is probabilistic.
func newFiberID(source IDSource) int64 {
	if source == nil {
		source = randomID
	}
	var id int64
	for i := 0; i < idRetryLimit && id == 0; i++ {
		id = source()
		if id < 0 {
			id = -id
		}
		// -MinInt64 overflows back to a negative value.
		if id < 0 {
			id = 0
		}
	}
	if id == 0 {
		return idSentinel
	}
	return id
}
