package scoring

import "math"

// Valuation component keys, in reporting order.
var ValuationComponents = []string{"pe", "ps", "pb", "ev_ebit", "ev_ebitda", "ev_sales"}

// ValuationInputs holds one candidate's valuation multiples. A nil field means
// the multiple could not be computed (missing or non-positive denominator).
type ValuationInputs struct {
	PE       *float64
	PS       *float64
	PB       *float64
	EVEBIT   *float64
	EVEBITDA *float64
	EVSales  *float64
}

// PeerMultiples holds the peer-group values for each valuation multiple.
// Peer slices contain only present, finite, strictly positive values.
type PeerMultiples struct {
	PE       []float64
	PS       []float64
	PB       []float64
	EVEBIT   []float64
	EVEBITDA []float64
	EVSales  []float64
}

// ValuationScore is the weighted composite of per-multiple percentile scores.
type ValuationScore struct {
	Score          *float64            `json:"score"`
	ComponentCount int                 `json:"component_count"`
	Components     map[string]*float64 `json:"components"`
	Weights        map[string]float64  `json:"weights,omitempty"`
	Interpretation string              `json:"interpretation"`
}

// ValuationFactor scores a candidate's valuation multiples against its peers.
// Lower multiples score higher (cheaper is better); 100 = cheapest in group.
//
// Components without a value or without peers are excluded, never imputed.
// Weights default to 1.0 per component and are renormalized over the present
// components; if the effective weight sum is zero or negative the present
// components are averaged unweighted. The result is nil only when no
// component could be scored.
func ValuationFactor(in ValuationInputs, peers PeerMultiples, weights map[string]float64) ValuationScore {
	components := map[string]*float64{
		"pe":        nil,
		"ps":        nil,
		"pb":        nil,
		"ev_ebit":   nil,
		"ev_ebitda": nil,
		"ev_sales":  nil,
	}

	score := func(key string, value *float64, peerValues []float64) {
		if value == nil || len(peerValues) == 0 {
			return
		}
		s := PercentileRank(value, peerValues, false)
		components[key] = &s
	}

	score("pe", in.PE, peers.PE)
	score("ps", in.PS, peers.PS)
	score("pb", in.PB, peers.PB)
	score("ev_ebit", in.EVEBIT, peers.EVEBIT)
	score("ev_ebitda", in.EVEBITDA, peers.EVEBITDA)
	score("ev_sales", in.EVSales, peers.EVSales)

	active := make(map[string]float64)
	for key, s := range components {
		if s != nil {
			active[key] = *s
		}
	}

	if len(active) == 0 {
		return ValuationScore{
			Score:          nil,
			ComponentCount: 0,
			Components:     components,
			Interpretation: "insufficient_data",
		}
	}

	// Equal weights unless the caller overrides; negative overrides are
	// clamped to zero so a single bad weight cannot flip the sign.
	activeWeights := make(map[string]float64, len(active))
	weightSum := 0.0
	for key := range active {
		w := 1.0
		if weights != nil {
			if override, ok := weights[key]; ok {
				w = override
			}
		}
		w = math.Max(0, w)
		activeWeights[key] = w
		weightSum += w
	}

	var overall float64
	var normalized map[string]float64
	if weightSum <= 0 {
		// Degenerate weights: plain mean of the present component scores.
		for _, s := range active {
			overall += s
		}
		overall /= float64(len(active))
	} else {
		normalized = make(map[string]float64, len(activeWeights))
		for key, w := range activeWeights {
			normalized[key] = w / weightSum
		}
		for key, s := range active {
			overall += s * normalized[key]
		}
	}

	rounded := math.Round(overall*10) / 10

	return ValuationScore{
		Score:          &rounded,
		ComponentCount: len(active),
		Components:     components,
		Weights:        normalized,
		Interpretation: Interpret(&rounded),
	}
}

// Interpret buckets a 0-100 factor score into a human-readable label.
func Interpret(score *float64) string {
	switch {
	case score == nil:
		return "insufficient_data"
	case *score >= 75:
		return "excellent"
	case *score >= 60:
		return "above_average"
	case *score >= 40:
		return "average"
	case *score >= 25:
		return "below_average"
	default:
		return "poor"
	}
}
