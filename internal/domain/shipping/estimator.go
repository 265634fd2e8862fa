// Package shipping estimates delivery fees and dates between Indian postal
// codes and fans quote requests out across the cart's purchase items.
package shipping

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrInvalidPincode is returned when a postal code does not match the
// six-digit, no-leading-zero Indian pincode format. Callers treat the
// affected item's shipping as "cannot calculate", distinct from free.
var ErrInvalidPincode = errors.New("invalid pincode format")

var pincodeRe = regexp.MustCompile(`^[1-9][0-9]{5}$`)

// ValidPincode reports whether s is a well-formed Indian pincode.
func ValidPincode(s string) bool {
	return pincodeRe.MatchString(s)
}

// Quote is the estimated cost and delivery dates for moving one item from
// its origin to the destination pincode. Computed on demand, never persisted.
type Quote struct {
	Fee              decimal.Decimal
	ExpressFee       decimal.Decimal
	StandardDelivery time.Time
	ExpressDelivery  time.Time
}

// Estimator produces a shipping quote for an origin/destination pair.
type Estimator interface {
	Estimate(ctx context.Context, origin, destination string) (Quote, error)
}

// Tariff constants. The pseudo-distance is derived from the pincode pair so
// that quoting stays a pure, repeatable function of its inputs: the first
// three digits approximate region separation, the last three add a spread so
// same-prefix pairs do not all collapse to one fee.
const (
	baseFee          = 40
	tierOneStart     = 50
	tierOneEnd       = 500
	tierOneRate      = 0.5
	tierTwoRate      = 0.3
	expressFactor    = 1.5
	expressSurcharge = 50

	standardBaseDays    = 2
	standardDaysPerUnit = 250
	expressBaseDays     = 1
	expressDaysPerUnit  = 500
)

var _ Estimator = (*TariffEstimator)(nil)

// TariffEstimator computes quotes from the distance-tiered tariff. It is a
// pure function of the two pincodes and the current date.
type TariffEstimator struct {
	now func() time.Time
}

// NewTariffEstimator returns a TariffEstimator using the wall clock.
func NewTariffEstimator() *TariffEstimator {
	return &TariffEstimator{now: time.Now}
}

// Estimate quotes shipping between two pincodes. Malformed pincodes fail
// with ErrInvalidPincode and never produce a partial quote. The fee and the
// delivery dates are monotonically non-decreasing in the derived distance,
// and express is always at least as expensive and at least as fast as
// standard.
func (e *TariffEstimator) Estimate(_ context.Context, origin, destination string) (Quote, error) {
	if !ValidPincode(origin) || !ValidPincode(destination) {
		return Quote{}, ErrInvalidPincode
	}

	dist := pseudoDistance(origin, destination)

	fee := float64(baseFee)
	if dist > tierOneStart {
		fee += (math.Min(dist, tierOneEnd) - tierOneStart) * tierOneRate
	}
	if dist > tierOneEnd {
		fee += (dist - tierOneEnd) * tierTwoRate
	}
	standard := math.Round(fee)
	express := math.Round(standard*expressFactor + expressSurcharge)

	today := e.now()
	standardDays := standardBaseDays + int(dist)/standardDaysPerUnit
	expressDays := expressBaseDays + int(dist)/expressDaysPerUnit

	return Quote{
		Fee:              decimal.NewFromFloat(standard),
		ExpressFee:       decimal.NewFromFloat(express),
		StandardDelivery: today.AddDate(0, 0, standardDays),
		ExpressDelivery:  today.AddDate(0, 0, expressDays),
	}, nil
}

// pseudoDistance derives a stable distance figure from a pincode pair: the
// absolute difference of the three-digit prefixes scaled by 2.5, plus the
// sum of both trailing three-digit groups modulo 50.
func pseudoDistance(origin, destination string) float64 {
	originPrefix, _ := strconv.Atoi(origin[:3])
	destPrefix, _ := strconv.Atoi(destination[:3])
	originSuffix, _ := strconv.Atoi(origin[3:])
	destSuffix, _ := strconv.Atoi(destination[3:])

	spread := (originSuffix + destSuffix) % 50
	return math.Abs(float64(originPrefix-destPrefix))*2.5 + float64(spread)
}
