package backtest

import "sort"

// scoredRecord pairs a surviving candidate with its valuation score.
type scoredRecord struct {
	record CandidateRecord
	score  *float64
}

// rankAndSelect orders candidates by valuation score descending and keeps the
// top n. Scored candidates always rank ahead of unscored ones; ties keep
// their incoming order so results are deterministic for a fixed universe.
func rankAndSelect(records []scoredRecord, n int) []scoredRecord {
	ranked := make([]scoredRecord, len(records))
	copy(ranked, records)

	sort.SliceStable(ranked, func(i, j int) bool {
		si, sj := ranked[i].score, ranked[j].score
		if si == nil && sj == nil {
			return false
		}
		if si == nil {
			return false
		}
		if sj == nil {
			return true
		}
		return *si > *sj
	})

	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked
}
