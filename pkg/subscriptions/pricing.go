package subscriptions

import "math"

// Price charges whole years at the yearly rate and the remaining months at
// the monthly rate, rounded to cents.
func Price(months int, monthly, yearly float64) float64 {
	raw := float64(months/12)*yearly + float64(months%12)*monthly
	return math.Round(raw*100) / 100
}
