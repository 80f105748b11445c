// Package scoring implements percentile-based factor scoring against peer groups.
// Each factor is scored 0-100 by ranking a value within its industry peer set.
package scoring

// PercentileRank returns the percentile rank (0-100) of value within peers.
//
// The rank counts how many peers are "worse" than the value: strictly lower
// when higher is better, strictly higher otherwise. A nil value or an empty
// peer set yields the neutral prior of 50. The neutral prior exists only
// here; composite scorers exclude missing components instead of imputing.
func PercentileRank(value *float64, peers []float64, higherIsBetter bool) float64 {
	if value == nil || len(peers) == 0 {
		return 50.0
	}

	worse := 0
	for _, p := range peers {
		if higherIsBetter {
			if p < *value {
				worse++
			}
		} else {
			if p > *value {
				worse++
			}
		}
	}

	percentile := float64(worse) / float64(len(peers)) * 100.0
	if percentile < 0 {
		return 0
	}
	if percentile > 100 {
		return 100
	}
	return percentile
}
