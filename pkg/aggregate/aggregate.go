// Package aggregate folds flat rows that reference a parent entity into one
// summary per parent, in first-seen order.
package aggregate

// Row is one flat record contributing to a parent.
type Row[P any] struct {
	ParentID string
	Parent   P
	Metric   float64
}

// Entity is the summary of all rows sharing a parent id.
type Entity[P any] struct {
	ID       string
	Parent   P
	RowCount int

	// Score is the mean metric divided by the maximum metric, clamped to [0, 1].
	Score float64
}

type accumulator[P any] struct {
	id     string
	parent P
	sum    float64
	count  int
}

// Aggregate groups rows by ParentID. The parent fields of the first row seen
// for an id are kept; later rows only add to the running sum and count.
// A non-positive maxMetric yields a score of 0.
func Aggregate[P any](rows []Row[P], maxMetric float64) []Entity[P] {
	index := make(map[string]int, len(rows))
	accs := make([]accumulator[P], 0, len(rows))

	for _, row := range rows {
		i, seen := index[row.ParentID]
		if !seen {
			index[row.ParentID] = len(accs)
			accs = append(accs, accumulator[P]{id: row.ParentID, parent: row.Parent})
			i = len(accs) - 1
		}
		accs[i].sum += row.Metric
		accs[i].count++
	}

	out := make([]Entity[P], 0, len(accs))
	for _, acc := range accs {
		out = append(out, Entity[P]{
			ID:       acc.id,
			Parent:   acc.parent,
			RowCount: acc.count,
			Score:    score(acc.sum, acc.count, maxMetric),
		})
	}
	return out
}

// Fold is Aggregate over an arbitrary row type.
func Fold[R, P any](rows []R, key func(R) string, parent func(R) P, metric func(R) float64, maxMetric float64) []Entity[P] {
	flat := make([]Row[P], 0, len(rows))
	for _, r := range rows {
		flat = append(flat, Row[P]{ParentID: key(r), Parent: parent(r), Metric: metric(r)})
	}
	return Aggregate(flat, maxMetric)
}

// Expand turns entities back into one row each, carrying the denormalized
// score as metric. Aggregating the result reproduces the same scores.
func Expand[P any](entities []Entity[P], maxMetric float64) []Row[P] {
	out := make([]Row[P], 0, len(entities))
	for _, e := range entities {
		out = append(out, Row[P]{ParentID: e.ID, Parent: e.Parent, Metric: e.Score * maxMetric})
	}
	return out
}

// Merge combines entities that share an ID, such as the per-page summaries of
// several pages. Row counts add up and scores are averaged weighted by row
// count, which equals aggregating the union of the original rows. Order and
// parent are first-seen.
func Merge[P any](entities []Entity[P]) []Entity[P] {
	index := make(map[string]int, len(entities))
	out := make([]Entity[P], 0, len(entities))
	weighted := make([]float64, 0, len(entities))

	for _, e := range entities {
		i, seen := index[e.ID]
		if !seen {
			index[e.ID] = len(out)
			out = append(out, Entity[P]{ID: e.ID, Parent: e.Parent})
			weighted = append(weighted, 0)
			i = len(out) - 1
		}
		out[i].RowCount += e.RowCount
		weighted[i] += e.Score * float64(e.RowCount)
	}

	for i := range out {
		if out[i].RowCount > 0 {
			out[i].Score = weighted[i] / float64(out[i].RowCount)
		}
	}
	return out
}

func score(sum float64, count int, maxMetric float64) float64 {
	if count == 0 || maxMetric <= 0 {
		return 0
	}
	s := sum / float64(count) / maxMetric
	switch {
	case s < 0:
		return 0
	case s > 1:
		return 1
	default:
		return s
	}
}
