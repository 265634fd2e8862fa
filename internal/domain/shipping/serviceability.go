package shipping

import "context"

// Serviceability answers whether a destination pincode is covered by at
// least one courier partner. Implementations must degrade open: when no
// coverage data has been loaded, every pincode is considered serviceable so
// checkout never blocks on a missing data set.
type Serviceability interface {
	IsServiceable(ctx context.Context, pincode string) (bool, error)
}
