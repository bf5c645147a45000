// Package rangle decides which timestamp ranges a partially synced client
// should request next.
//
// A client keeps an ordered list of contiguous chunks "(from, to]" together
// with the number of items it held in each chunk. On every sync the server
// re-validates those chunks against its current items, keeps the list when
// nothing changed, consolidates two chunks when the client reached its chunk
// ceiling and finally appends a chunk covering everything since the client's
// last known point.
//
// All functions are pure: items and range lists passed in are never modified
// and no state is kept between calls.
package rangle

// Outcome summarizes which branch a reconciliation took
type Outcome string

const (
	// OutcomeCatchAll is returned to clients without any ranges
	OutcomeCatchAll Outcome = "catch_all"
	// OutcomeUnchanged means no item is newer than the client's last chunk
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeReset means the client holds too many items and must start over
	OutcomeReset Outcome = "reset"
	// OutcomeAppended means a trailing chunk was added without consolidation
	OutcomeAppended Outcome = "appended"
	// OutcomeConsolidated means two chunks were merged before appending
	OutcomeConsolidated Outcome = "consolidated"
)

// Result is the full decision of a reconciliation
type Result struct {
	Chunks     []Chunk
	Outcome    Outcome
	Merge      *Merge // set when Outcome is OutcomeConsolidated
	MostRecent int64  // newest item timestamp seen
}

// Ranges returns the serialized chunk list the client should use next.
// Counts are never included in the output; the client recounts on its side.
func Ranges(items Items, clientRanges []string, opts Options) ([]string, error) {
	res, err := Reconcile(items, clientRanges, opts)
	if err != nil {
		return nil, err
	}
	return res.Strings(), nil
}

// Strings serializes the result chunks in the client-facing form
func (r Result) Strings() []string {
	return FormatRanges(r.Chunks, false)
}

// Reconcile is Ranges with the decision details kept for logging and metrics
func Reconcile(items Items, clientRanges []string, opts Options) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	opts = opts.withDefaults()
	p, err := compilePath(opts.Path)
	if err != nil {
		return Result{}, err
	}

	latest := mostRecent(items, p)

	// No state yet: request everything
	if len(clientRanges) == 0 {
		return catchAll(latest, OutcomeCatchAll), nil
	}

	chunks, err := ParseRanges(clientRanges)
	if err != nil {
		return Result{}, err
	}

	// Legacy open-ended trailing chunks are pinned to the newest timestamp
	last := &chunks[len(chunks)-1]
	if last.Open {
		last.Open = false
		last.To = latest
		if last.To < last.From {
			last.To = last.From
		}
	}
	lastClientUpdate := last.To

	if !changedSince(items, lastClientUpdate, p) {
		return Result{Chunks: chunks, Outcome: OutcomeUnchanged, MostRecent: latest}, nil
	}

	if opts.storageGuard() && exceedsStorageRatio(chunks, len(items), opts.MaxClientStorageRatio) {
		return catchAll(latest, OutcomeReset), nil
	}

	res := Result{Outcome: OutcomeAppended, MostRecent: latest}
	if len(chunks) >= opts.MaxClientChunks {
		merged, m := consolidate(chunks, items, p, opts.MinValidChunkRatio)
		chunks = merged
		res.Outcome = OutcomeConsolidated
		res.Merge = &m
	}

	res.Chunks = append(chunks, Chunk{From: lastClientUpdate, To: latest})
	return res, nil
}

func catchAll(latest int64, outcome Outcome) Result {
	return Result{
		Chunks:     []Chunk{{From: 0, To: latest}},
		Outcome:    outcome,
		MostRecent: latest,
	}
}

// exceedsStorageRatio compares the items the client claims to hold against
// the server collection size
func exceedsStorageRatio(chunks []Chunk, serverItems int, maxRatio float64) bool {
	clientItems := 0
	for _, c := range chunks {
		if c.HasNum {
			clientItems += c.Num
		}
	}
	if serverItems == 0 {
		return clientItems > 0
	}
	return float64(clientItems)/float64(serverItems) > maxRatio
}
