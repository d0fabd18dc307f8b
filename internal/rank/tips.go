package rank

import "github.com/sells-group/mobility-cli/internal/model"

// TipRatio scores a trip by tip relative to fare. A zero fare scores 0 so the
// selection never divides by zero or produces NaN.
func TipRatio(t model.Trip) float64 {
	if t.FareAmount == 0 {
		return 0
	}
	return t.TipAmount / t.FareAmount
}

// TopTipped returns the k trips with the highest tip-to-fare ratio,
// descending.
func TopTipped(trips []model.Trip, k int) []Scored[model.Trip] {
	return TopKSlice(k, TipRatio, trips)
}
