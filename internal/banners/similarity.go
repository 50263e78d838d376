package banners

import (
	"math"
	"strings"
	"time"
)

// Field weights for banner comparison and the score at or above which two
// banners are judged the same physical banner.
const (
	weightTitle    = 0.7
	weightHashtags = 0.2
	weightDate     = 0.1

	// DuplicateThreshold is the weighted similarity score at or above which
	// an incoming banner is treated as a repeat sighting.
	DuplicateThreshold = 0.75
)

// Comparand holds the fields of an incoming banner that participate in
// similarity scoring against stored banners.
type Comparand struct {
	Title      *string
	Hashtags   []string
	ObservedAt time.Time
}

// ScorePart pairs a field score with its weight for aggregation.
type ScorePart struct {
	Score  float64
	Weight float64
}

// SetJaccard returns |A∩B| / |A∪B| for two word sets.
// Returns 0 when both sets are empty.
func SetJaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

// SetOverlap returns |A∩B| / min(|A|,|B|) for two word sets, rewarding
// strict-subset relationships with a score of 1. Returns 0 when both sets
// are empty.
func SetOverlap(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}

	return float64(intersection) / float64(min(len(a), len(b)))
}

// TitleScore compares two optional titles over their whitespace word sets,
// taking the higher of Jaccard and overlap so a short title contained in a
// longer one still scores 1. The second return value is false when both
// titles are absent, meaning the field is incomparable and must be excluded
// from aggregation rather than scored as 0.
func TitleScore(a, b *string) (float64, bool) {
	if a == nil && b == nil {
		return 0, false
	}
	if a == nil || b == nil {
		return 0, true
	}

	wordsA := wordSet(*a)
	wordsB := wordSet(*b)
	return math.Max(SetJaccard(wordsA, wordsB), SetOverlap(wordsA, wordsB)), true
}

// HashtagScore compares two hashtag lists as sets using Jaccard. The second
// return value is false when both lists are empty (incomparable).
func HashtagScore(a, b []string) (float64, bool) {
	if len(a) == 0 && len(b) == 0 {
		return 0, false
	}
	return SetJaccard(toSet(a), toSet(b)), true
}

// DateProximity scores how close two observation dates are: 1 for the same
// day, linearly falling to 0 at 30 days apart. Dates are required fields, so
// this comparison is always defined.
func DateProximity(a, b time.Time) float64 {
	days := math.Abs(a.Sub(b).Hours()) / 24
	return math.Max(0, 1-days/30)
}

// WeightedScore aggregates field scores, renormalizing over the weights of
// the fields actually present. The caller excludes incomparable fields
// before aggregation, so an absent field shifts weight to the remaining
// fields rather than dragging the score down. Returns 0 when the total
// weight is 0.
func WeightedScore(parts []ScorePart) float64 {
	var sum, total float64
	for _, p := range parts {
		sum += p.Score * p.Weight
		total += p.Weight
	}

	if total == 0 {
		return 0
	}
	return sum / total
}

// SimilarityScore computes the weighted similarity between an incoming
// banner and a stored one: title 0.7, hashtags 0.2, date proximity 0.1,
// with incomparable fields excluded and the rest renormalized.
func SimilarityScore(incoming Comparand, existing Banner) float64 {
	parts := make([]ScorePart, 0, 3)

	if score, ok := TitleScore(incoming.Title, existing.Title); ok {
		parts = append(parts, ScorePart{Score: score, Weight: weightTitle})
	}

	if score, ok := HashtagScore(incoming.Hashtags, existing.Hashtags); ok {
		parts = append(parts, ScorePart{Score: score, Weight: weightHashtags})
	}

	parts = append(parts, ScorePart{
		Score:  DateProximity(incoming.ObservedAt, existing.FirstSeenAt),
		Weight: weightDate,
	})

	return WeightedScore(parts)
}

func wordSet(s string) map[string]struct{} {
	words := strings.Fields(s)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, item := range items {
		set[item] = struct{}{}
	}
	return set
}
