// Package rank implements bounded top-K selection over scored records.
package rank

import "container/heap"

// Scored pairs a record with its computed score.
type Scored[T any] struct {
	Record T       `json:"record"`
	Score  float64 `json:"score"`
}

// item tracks encounter order so ties resolve deterministically.
type item[T any] struct {
	scored Scored[T]
	seq    int
}

// minHeap keeps the lowest-scoring retained record at the root. Among equal
// scores the later-encountered record sorts lower, so it is the first
// candidate for eviction.
type minHeap[T any] []item[T]

func (h minHeap[T]) Len() int { return len(h) }

func (h minHeap[T]) Less(i, j int) bool {
	if h[i].scored.Score != h[j].scored.Score {
		return h[i].scored.Score < h[j].scored.Score
	}
	return h[i].seq > h[j].seq
}

func (h minHeap[T]) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *minHeap[T]) Push(x any) { *h = append(*h, x.(item[T])) }

func (h *minHeap[T]) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// TopK consumes records from next until it reports false and returns the k
// highest-scoring records in descending score order. It keeps a min-heap of
// at most k entries, so the whole selection runs in O(N log k) time and O(k)
// space no matter how large the input stream is. The heap minimum is evicted
// only by a strictly greater score, so on ties the earlier-encountered record
// wins retention. k <= 0 yields an empty result.
func TopK[T any](k int, score func(T) float64, next func() (T, bool)) []Scored[T] {
	if k <= 0 {
		return nil
	}

	h := make(minHeap[T], 0, k)
	seq := 0
	for {
		rec, ok := next()
		if !ok {
			break
		}
		s := score(rec)
		switch {
		case len(h) < k:
			heap.Push(&h, item[T]{scored: Scored[T]{Record: rec, Score: s}, seq: seq})
		case s > h[0].scored.Score:
			h[0] = item[T]{scored: Scored[T]{Record: rec, Score: s}, seq: seq}
			heap.Fix(&h, 0)
		}
		seq++
	}

	// Drain ascending, then reverse for descending output.
	out := make([]Scored[T], len(h))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&h).(item[T]).scored
	}
	return out
}

// TopKSlice runs TopK over an in-memory slice.
func TopKSlice[T any](k int, score func(T) float64, records []T) []Scored[T] {
	i := 0
	return TopK(k, score, func() (T, bool) {
		if i >= len(records) {
			var zero T
			return zero, false
		}
		rec := records[i]
		i++
		return rec, true
	})
}
