package screener

import (
	"strconv"
)

// Market-cap bucket thresholds in USD.
const (
	capLargeMin = 10_000_000_000
	capMidMin   = 2_000_000_000
	capSmallMin = 300_000_000
)

// Cap bucket names.
const (
	CapLarge = "large"
	CapMid   = "mid"
	CapSmall = "small"
	CapAll   = "all"
)

// Rule logic modes.
const (
	LogicAND = "AND"
	LogicOR  = "OR"
)

// Operators supported by custom rules.
const (
	OpLT      = "<"
	OpLE      = "<="
	OpGT      = ">"
	OpGE      = ">="
	OpEQ      = "="
	OpNE      = "!="
	OpBetween = "between"
)

// equalityTolerance absorbs floating rounding in =/!= comparisons.
const equalityTolerance = 0.01

// CustomRule is one user-defined screening rule. Value is a scalar for the
// comparison operators and a two-element [min, max] slice for "between".
type CustomRule struct {
	Metric   string `json:"metric"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
	Enabled  bool   `json:"enabled"`
}

// Filters is the screener-style filter payload: a cap bucket plus custom
// rules combined with AND/OR logic.
type Filters struct {
	Country     string       `json:"country,omitempty"`
	Industry    string       `json:"industry,omitempty"`
	Cap         string       `json:"cap,omitempty"`
	CustomRules []CustomRule `json:"customRules,omitempty"`
	RuleLogic   string       `json:"ruleLogic,omitempty"`
}

// Candidate is the screener's view of a record: identity, market cap and the
// typed metric set the rules run against.
type Candidate struct {
	Symbol    string
	MarketCap *float64
	Metrics   MetricSet
}

// CapBucket classifies a market cap, or returns "" for caps below the small
// threshold or unknown caps.
func CapBucket(marketCap *float64) string {
	if marketCap == nil {
		return ""
	}
	switch {
	case *marketCap >= capLargeMin:
		return CapLarge
	case *marketCap >= capMidMin:
		return CapMid
	case *marketCap >= capSmallMin:
		return CapSmall
	default:
		return ""
	}
}

// FilterByCap keeps candidates whose market cap falls in the requested
// bucket. "all" or empty passes everything; unknown or sub-small caps are
// excluded whenever a specific bucket is requested.
func FilterByCap(candidates []Candidate, cap string) []Candidate {
	if cap == "" || cap == CapAll {
		return candidates
	}
	filtered := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if CapBucket(c.MarketCap) == cap {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// scalarValue coerces a rule value to float64. JSON numbers decode to
// float64; numeric strings are tolerated.
func scalarValue(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// betweenBounds extracts the [min, max] pair of a "between" rule value.
func betweenBounds(v any) (float64, float64, bool) {
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return 0, 0, false
	}
	lo, okLo := scalarValue(pair[0])
	hi, okHi := scalarValue(pair[1])
	if !okLo || !okHi {
		return 0, 0, false
	}
	return lo, hi, true
}

// MatchesRule evaluates one custom rule against a metric set. Disabled rules
// match vacuously. Missing or non-finite metric values never match, and a
// malformed "between" value fails safe (no match).
func MatchesRule(metrics MetricSet, rule CustomRule) bool {
	if !rule.Enabled {
		return true
	}
	value := metrics.Lookup(rule.Metric)
	if value == nil {
		return false
	}

	switch rule.Operator {
	case OpLT:
		ref, ok := scalarValue(rule.Value)
		return ok && *value < ref
	case OpLE:
		ref, ok := scalarValue(rule.Value)
		return ok && *value <= ref
	case OpGT:
		ref, ok := scalarValue(rule.Value)
		return ok && *value > ref
	case OpGE:
		ref, ok := scalarValue(rule.Value)
		return ok && *value >= ref
	case OpEQ:
		ref, ok := scalarValue(rule.Value)
		return ok && abs(*value-ref) < equalityTolerance
	case OpNE:
		ref, ok := scalarValue(rule.Value)
		return ok && abs(*value-ref) >= equalityTolerance
	case OpBetween:
		lo, hi, ok := betweenBounds(rule.Value)
		return ok && *value >= lo && *value <= hi
	default:
		return true
	}
}

// Apply runs the full filter pipeline: industry scope (defensive), cap
// bucket, then enabled custom rules under the configured logic.
func Apply(candidates []Candidate, filters *Filters) []Candidate {
	if filters == nil {
		return candidates
	}

	filtered := FilterByCap(candidates, filters.Cap)

	enabled := make([]CustomRule, 0, len(filters.CustomRules))
	for _, r := range filters.CustomRules {
		if r.Enabled {
			enabled = append(enabled, r)
		}
	}
	if len(enabled) == 0 {
		return filtered
	}

	logic := filters.RuleLogic
	if logic == "" {
		logic = LogicAND
	}

	out := make([]Candidate, 0, len(filtered))
	for _, c := range filtered {
		if matchesAll(c.Metrics, enabled, logic) {
			out = append(out, c)
		}
	}
	return out
}

func matchesAll(metrics MetricSet, rules []CustomRule, logic string) bool {
	if logic == LogicOR {
		for _, r := range rules {
			if MatchesRule(metrics, r) {
				return true
			}
		}
		return false
	}
	for _, r := range rules {
		if !MatchesRule(metrics, r) {
			return false
		}
	}
	return true
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
