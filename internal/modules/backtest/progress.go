package backtest

import "sync"

// ProgressUpdate is one progress event for a running backtest. Total counts
// the scheduled rebalance points; Completed counts evaluated ones.
type ProgressUpdate struct {
	RunID     string `json:"run_id"`
	Stage     string `json:"stage"`
	AsOf      string `json:"as_of,omitempty"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Done      bool   `json:"done"`
}

// ProgressBroker fans progress updates out to websocket subscribers keyed by
// run ID. Slow subscribers drop updates rather than blocking the engine;
// only the final Done update matters for correctness.
type ProgressBroker struct {
	mu   sync.Mutex
	subs map[string]map[chan ProgressUpdate]struct{}
}

// NewProgressBroker creates an empty broker.
func NewProgressBroker() *ProgressBroker {
	return &ProgressBroker{subs: make(map[string]map[chan ProgressUpdate]struct{})}
}

// Subscribe registers for updates on a run. The returned cancel func must be
// called when the subscriber goes away.
func (b *ProgressBroker) Subscribe(runID string) (<-chan ProgressUpdate, func()) {
	ch := make(chan ProgressUpdate, 16)

	b.mu.Lock()
	set, ok := b.subs[runID]
	if !ok {
		set = make(map[chan ProgressUpdate]struct{})
		b.subs[runID] = set
	}
	set[ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if set, ok := b.subs[runID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(b.subs, runID)
			}
		}
		b.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an update to all subscribers of its run, dropping it for
// subscribers whose buffers are full.
func (b *ProgressBroker) Publish(update ProgressUpdate) {
	if update.RunID == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[update.RunID] {
		select {
		case ch <- update:
		default:
		}
	}
}
