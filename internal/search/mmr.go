package search

import (
	"github.com/askveeva/deepsearch/internal/config"
	"github.com/askveeva/deepsearch/internal/index"
	"github.com/askveeva/deepsearch/internal/text"
)

// mmrSelect runs greedy maximal-marginal-relevance over candidate row
// vectors: relevance to the query traded against similarity to what has
// already been picked. Returns indices into rows in selection order.
func mmrSelect(rows []index.SparseVec, qvec index.SparseVec, lambda float64, limit int) []int {
	if limit > len(rows) {
		limit = len(rows)
	}
	if limit <= 0 {
		return nil
	}

	rel := make([]float64, len(rows))
	for i, r := range rows {
		rel[i] = index.Dot(qvec, r)
	}

	selected := make([]int, 0, limit)
	picked := make([]bool, len(rows))
	for len(selected) < limit {
		best := -1
		var bestScore float64
		for i := range rows {
			if picked[i] {
				continue
			}
			score := rel[i]
			if len(selected) > 0 {
				var maxSim float64
				for _, j := range selected {
					if sim := index.Dot(rows[i], rows[j]); sim > maxSim {
						maxSim = sim
					}
				}
				score = lambda*rel[i] - (1-lambda)*maxSim
			}
			if best < 0 || score > bestScore {
				best = i
				bestScore = score
			}
		}
		if best < 0 {
			break
		}
		picked[best] = true
		selected = append(selected, best)
	}
	return selected
}

// mmrTwoStage diversifies a ranked candidate list in two passes: first
// across documents (each represented by its first candidate chunk), then
// across the surviving chunks. Falls back to plain truncation when the
// word vector space is unavailable.
func mmrTwoStage(snap *index.Snapshot, cfg config.MMRConfig, items []Candidate, k int, q string) []Candidate {
	if len(items) == 0 || snap.WordVec == nil {
		return truncate(items, k)
	}
	qvec := snap.WordVec.Transform(text.Normalize(q))

	// Stage one: document level. The first candidate chunk of each doc
	// stands in for the whole document.
	var docs []string
	docRep := make(map[string]int)
	for _, it := range items {
		if _, ok := docRep[it.DocID]; !ok {
			docRep[it.DocID] = it.row
			docs = append(docs, it.DocID)
		}
	}
	docRows := make([]index.SparseVec, len(docs))
	for i, d := range docs {
		docRows[i] = snap.WordVec.Row(docRep[d])
	}
	keepDocs := make(map[string]bool)
	for _, i := range mmrSelect(docRows, qvec, cfg.LambdaDoc, min(cfg.LimitDoc, len(docs))) {
		keepDocs[docs[i]] = true
	}

	// Stage two: chunk level within the kept documents.
	var keptItems []Candidate
	var keptRows []index.SparseVec
	for _, it := range items {
		if keepDocs[it.DocID] {
			keptItems = append(keptItems, it)
			keptRows = append(keptRows, snap.WordVec.Row(it.row))
		}
	}
	if len(keptItems) == 0 {
		return truncate(items, k)
	}

	order := mmrSelect(keptRows, qvec, cfg.LambdaChunk, min(cfg.LimitChunk, len(keptItems)))
	out := make([]Candidate, 0, len(order))
	for _, i := range order {
		out = append(out, keptItems[i])
	}
	return truncate(spreadDocs(out), k)
}

// spreadDocs repairs the selection order so no two chunks of the same
// document sit next to each other, as long as another document's chunk can
// be pulled forward. A tail that is all one document stays as is.
func spreadDocs(items []Candidate) []Candidate {
	for i := 1; i < len(items); i++ {
		if items[i].DocID != items[i-1].DocID {
			continue
		}
		j := i + 1
		for j < len(items) && items[j].DocID == items[i-1].DocID {
			j++
		}
		if j == len(items) {
			break
		}
		moved := items[j]
		copy(items[i+1:j+1], items[i:j])
		items[i] = moved
	}
	return items
}

func truncate(items []Candidate, k int) []Candidate {
	if len(items) > k {
		return items[:k]
	}
	return items
}
