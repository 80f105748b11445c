package backtest

import (
	"math"

	"github.com/Soham1117/StockApp/internal/modules/fundamentals"
	"github.com/Soham1117/StockApp/internal/modules/scoring"
	"github.com/Soham1117/StockApp/internal/modules/screener"
)

// CandidateRecord is a symbol's full point-in-time state at an as-of date:
// price, shares and the valuation multiples derived from its latest aligned
// annual statements. Sanitized multiples (strictly positive denominators and
// results) feed scoring and the built-in rules; raw multiples are what the
// report shows.
type CandidateRecord struct {
	Symbol    string
	Price     float64
	Shares    float64
	MarketCap float64

	// Sanitized multiples, nil unless strictly positive and finite.
	PE       *float64
	PS       *float64
	PB       *float64
	EVEBIT   *float64
	EVEBITDA *float64
	EVSales  *float64

	// Raw multiples, defined for positive denominators only; a negative
	// enterprise value still shows as a negative raw EV multiple.
	RawPE       *float64
	RawPS       *float64
	RawPB       *float64
	RawEVEBIT   *float64
	RawEVEBITDA *float64
	RawEVSales  *float64
}

// BuildRecord derives a candidate record from price, shares and fundamentals.
// Returns false when the symbol cannot be valued at all (non-positive price
// or shares, or fundamentals lacking revenue and earnings).
func BuildRecord(symbol string, price, shares float64, snap fundamentals.Snapshot) (CandidateRecord, bool) {
	if price <= 0 || shares <= 0 || !fundamentals.Eligible(snap) {
		return CandidateRecord{}, false
	}

	rec := CandidateRecord{
		Symbol:    symbol,
		Price:     price,
		Shares:    shares,
		MarketCap: price * shares,
	}

	revenue := fundamentals.PickFirst(snap.IncomeItems, fundamentals.RevenueItems)
	eps := fundamentals.PickFirst(snap.IncomeItems, fundamentals.DilutedEPSItems)
	ebit := fundamentals.PickFirst(snap.IncomeItems, fundamentals.EBITItems)
	ebitda := fundamentals.PickFirst(snap.IncomeItems, fundamentals.EBITDAItems)
	equity := fundamentals.PickFirst(snap.BalanceItems, fundamentals.EquityItems)
	cash := fundamentals.PickFirst(snap.BalanceItems, fundamentals.CashItems)
	debt := fundamentals.PickFirst(snap.BalanceItems, fundamentals.DebtItems)

	// P/E uses diluted EPS only. Other per-share bases derive from totals.
	rec.RawPE, rec.PE = ratio(price, eps)
	rec.RawPS, rec.PS = ratio(rec.MarketCap, revenue)
	rec.RawPB, rec.PB = ratio(rec.MarketCap, equity)

	// Enterprise value needs at least one of cash or debt to be known;
	// the unknown side defaults to zero.
	if cash != nil || debt != nil {
		ev := rec.MarketCap + orZero(debt) - orZero(cash)
		rec.RawEVEBIT, rec.EVEBIT = ratio(ev, ebit)
		rec.RawEVEBITDA, rec.EVEBITDA = ratio(ev, ebitda)
		rec.RawEVSales, rec.EVSales = ratio(ev, revenue)
	}

	return rec, true
}

// ratio returns numerator/denominator as (raw, sanitized). Both require a
// strictly positive denominator: a multiple over negative earnings or equity
// is reported as missing, not as a negative number. The sanitized value
// additionally requires the result itself to be positive, which only differs
// from raw when the numerator (enterprise value) is negative.
func ratio(numerator float64, denominator *float64) (*float64, *float64) {
	if denominator == nil || *denominator <= 0 {
		return nil, nil
	}
	v := numerator / *denominator
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, nil
	}
	raw := v
	if v > 0 {
		sanitized := v
		return &raw, &sanitized
	}
	return &raw, nil
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// ValuationInputs maps the sanitized multiples to scoring inputs.
func (r CandidateRecord) ValuationInputs() scoring.ValuationInputs {
	return scoring.ValuationInputs{
		PE:       r.PE,
		PS:       r.PS,
		PB:       r.PB,
		EVEBIT:   r.EVEBIT,
		EVEBITDA: r.EVEBITDA,
		EVSales:  r.EVSales,
	}
}

// SanitizedMultiples returns the sanitized multiples keyed by component name,
// as consumed by the built-in fundamental rules.
func (r CandidateRecord) SanitizedMultiples() map[string]*float64 {
	return map[string]*float64{
		"pe":        r.PE,
		"ps":        r.PS,
		"pb":        r.PB,
		"ev_ebit":   r.EVEBIT,
		"ev_ebitda": r.EVEBITDA,
		"ev_sales":  r.EVSales,
	}
}

// RawRatios returns the report view of the multiples.
func (r CandidateRecord) RawRatios() Ratios {
	return Ratios{
		PE:       r.RawPE,
		PS:       r.RawPS,
		PB:       r.RawPB,
		EVEBIT:   r.RawEVEBIT,
		EVEBITDA: r.RawEVEBITDA,
		EVSales:  r.RawEVSales,
	}
}

// ScreenerCandidate projects the record into the screener's metric space so
// custom rules can run against it.
func (r CandidateRecord) ScreenerCandidate() screener.Candidate {
	mcap := r.MarketCap
	return screener.Candidate{
		Symbol:    r.Symbol,
		MarketCap: &mcap,
		Metrics: screener.MetricSet{
			screener.MetricPE:        r.PE,
			screener.MetricPS:        r.PS,
			screener.MetricPB:        r.PB,
			screener.MetricEVEBIT:    r.EVEBIT,
			screener.MetricEVEBITDA:  r.EVEBITDA,
			screener.MetricEVSales:   r.EVSales,
			screener.MetricMarketCap: &mcap,
		},
	}
}
