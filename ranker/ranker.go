// Package ranker merges the per-variant engine results into one
// deduplicated, re-scored, deterministically ordered hit list.
package ranker

import (
	"log/slog"
	"sort"
	"strings"

	"thai-search-proxy/config"
	"thai-search-proxy/domain"
)

// Ranker applies the scoring pipeline: per-variant min-max
// normalization, weighted accumulation with type and language boosts,
// final normalization to [0,1] and deterministic ordering.
type Ranker struct {
	log *slog.Logger
}

func New(log *slog.Logger) *Ranker {
	return &Ranker{log: log}
}

// candidate accumulates one document across variants.
type candidate struct {
	id            string
	bestScore     float64
	bestWeight    float64
	bestVariant   domain.VariantType
	contributions map[domain.VariantType]float64
	document      map[string]interface{}
	highlights    map[string]interface{}
}

// Rank merges results (already in weight-descending variant order) into
// the final page. Failed variants contribute nothing.
func (r *Ranker) Rank(results []domain.EngineSearchResult, pq *domain.ProcessedQuery, snap *config.Snapshot, opts domain.SearchOptions) ([]domain.RankedHit, int64) {
	byID := make(map[string]*candidate)
	order := make([]string, 0)

	for i := range results {
		res := &results[i]
		if res.Failed() || len(res.Hits) == 0 {
			continue
		}
		normalized := minMaxNormalize(res.Hits)
		boost := r.variantBoost(res.Variant, pq, snap)

		for j := range res.Hits {
			hit := &res.Hits[j]
			contribution := res.Variant.Weight * normalized[j] * boost

			c, seen := byID[hit.ID]
			if !seen {
				c = &candidate{
					id:            hit.ID,
					contributions: make(map[domain.VariantType]float64, 2),
				}
				byID[hit.ID] = c
				order = append(order, hit.ID)
			}
			if contribution > c.contributions[res.Variant.Type] {
				c.contributions[res.Variant.Type] = contribution
			}
			if contribution > c.bestScore {
				c.bestScore = contribution
				c.bestWeight = res.Variant.Weight
				c.bestVariant = res.Variant.Type
				c.document = hit.Document
				c.highlights = hit.Highlights
			}
		}
	}

	if len(byID) == 0 {
		return []domain.RankedHit{}, 0
	}

	// Final normalization: divide by the best attained score so the top
	// hit lands exactly at 1.0.
	var maxScore float64
	for _, c := range byID {
		if c.bestScore > maxScore {
			maxScore = c.bestScore
		}
	}

	hits := make([]domain.RankedHit, 0, len(byID))
	for _, id := range order {
		c := byID[id]
		score := c.bestScore
		if maxScore > 0 {
			score /= maxScore
		}
		if score > 1 {
			score = 1
		}
		if score < 0 {
			score = 0
		}
		hits = append(hits, domain.RankedHit{
			ID:            c.id,
			Score:         score,
			BestVariant:   c.bestVariant,
			Contributions: c.contributions,
			Document:      c.document,
			Highlights:    c.highlights,
		})
	}

	sortHits(hits, byID)

	// Threshold applies after final normalization.
	if snap.MinScoreThreshold > 0 {
		kept := hits[:0]
		for _, h := range hits {
			if h.Score >= snap.MinScoreThreshold {
				kept = append(kept, h)
			}
		}
		hits = kept
	}

	total := int64(len(hits))

	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(hits) {
		return []domain.RankedHit{}, total
	}
	hits = hits[offset:]

	limit := opts.Limit
	if limit < 0 {
		limit = 0
	}
	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits, total
}

// variantBoost composes the type boost with the Thai-match and compound
// boosts. Boosts multiply; failed variants never reach here.
func (r *Ranker) variantBoost(variant domain.QueryVariant, pq *domain.ProcessedQuery, snap *config.Snapshot) float64 {
	boost := snap.TypeBoost(variant.Type)
	if pq.Language.ThaiDetected && domain.ContainsThai(variant.Text) {
		boost *= snap.ThaiMatchBoost
	}
	if containsPreservedCompound(variant.Text, pq.Tokenization) {
		boost *= snap.CompoundBoost
	}
	return boost
}

func containsPreservedCompound(text string, tok *domain.TokenizationResult) bool {
	if tok == nil {
		return false
	}
	for _, c := range tok.Compounds {
		if strings.Contains(text, c) {
			return true
		}
	}
	return false
}

// minMaxNormalize maps the raw engine scores of one variant's hits into
// [0,1]. When all scores are equal every hit gets 1.0.
func minMaxNormalize(hits []domain.RawHit) []float64 {
	out := make([]float64, len(hits))
	if len(hits) == 0 {
		return out
	}
	lo, hi := hits[0].Score, hits[0].Score
	for _, h := range hits[1:] {
		if h.Score < lo {
			lo = h.Score
		}
		if h.Score > hi {
			hi = h.Score
		}
	}
	if hi == lo {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	for i, h := range hits {
		out[i] = (h.Score - lo) / (hi - lo)
	}
	return out
}

// sortHits orders by score descending, breaking ties by contributing
// variant count, then best variant weight, then document id, so equal
// scores always produce the same order.
func sortHits(hits []domain.RankedHit, byID map[string]*candidate) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if len(a.Contributions) != len(b.Contributions) {
			return len(a.Contributions) > len(b.Contributions)
		}
		aw, bw := byID[a.ID].bestWeight, byID[b.ID].bestWeight
		if aw != bw {
			return aw > bw
		}
		return a.ID < b.ID
	})
}
