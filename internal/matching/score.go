// Package matching ranks catalog items against a photo by blending
// structural (difference hash) and color similarity.
package matching

import (
	"cmp"
	"image"
	"math"
	"slices"

	"github.com/erazemk/reunite/internal/imaging"
	"github.com/erazemk/reunite/internal/model"
)

const (
	// DefaultThreshold is the confidence a match must exceed to be reported.
	DefaultThreshold = 65
	// DefaultLimit is the number of matches reported.
	DefaultLimit = 3

	structWeight = 0.7
	colorWeight  = 0.3

	// colorNorm maps the maximum RGB distance (~441) onto a 0-100 scale.
	// Stored confidences depend on this exact value.
	colorNorm = 4.41
)

// Probe is the signature of a query photo, computed at both grid sizes so
// it can be compared against legacy and current records.
type Probe struct {
	Full   string       `json:"full"`
	Legacy string       `json:"legacy"`
	Color  *model.Color `json:"color,omitempty"`
}

// NewProbe computes both hashes and the dominant color of img.
func NewProbe(img image.Image) (Probe, error) {
	full, err := imaging.ComputeHash(img, model.FullGrid)
	if err != nil {
		return Probe{}, err
	}
	legacy, err := imaging.ComputeHash(img, model.LegacyGrid)
	if err != nil {
		return Probe{}, err
	}
	return Probe{Full: full, Legacy: legacy, Color: imaging.SampleDominantColor(img)}, nil
}

// hashFor returns the probe hash comparable with a stored signature kind.
func (p Probe) hashFor(kind model.SignatureKind) string {
	if kind == model.SignatureFull {
		return p.Full
	}
	return p.Legacy
}

// Match is a scored candidate.
type Match struct {
	Item        model.Item `json:"item"`
	Confidence  int        `json:"confidence"`
	StructScore int        `json:"struct_score"`
	ColorScore  float64    `json:"color_score"`
}

// Scorer filters and ranks candidates.
type Scorer struct {
	Threshold int
	Limit     int
}

// DefaultScorer returns a scorer with the standard threshold and limit.
func DefaultScorer() Scorer {
	return Scorer{Threshold: DefaultThreshold, Limit: DefaultLimit}
}

// Rank scores every approved, hash-bearing candidate, keeps those whose
// confidence is strictly above the threshold, and returns the best Limit
// matches in descending order of confidence. candidates is not modified.
func (s Scorer) Rank(p Probe, candidates []model.Item) []Match {
	var matches []Match
	for _, it := range candidates {
		m, ok := Score(p, it)
		if !ok || m.Confidence <= s.Threshold {
			continue
		}
		matches = append(matches, m)
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return cmp.Compare(b.Confidence, a.Confidence)
	})

	if s.Limit > 0 && len(matches) > s.Limit {
		matches = matches[:s.Limit]
	}
	return matches
}

// Score compares one candidate with the probe. It reports false for items
// that are not approved or carry no structural hash.
func Score(p Probe, it model.Item) (Match, bool) {
	if !it.IsApproved() {
		return Match{}, false
	}
	kind := it.Signature()
	if kind == model.SignatureNone {
		return Match{}, false
	}

	maxDist := kind.MaxDistance()
	dist := maxDist
	if q := p.hashFor(kind); q != "" && len(q) == len(it.StructuralHash) {
		dist = HammingDistance(q, it.StructuralHash)
	}

	st := StructScore(dist, maxDist)
	cs := ColorScore(p.Color, it.AverageColor)
	return Match{
		Item:        it,
		Confidence:  Confidence(st, cs),
		StructScore: st,
		ColorScore:  cs,
	}, true
}

// HammingDistance counts the positions at which a and b differ. Positions
// present in only one of them count as differing, so an empty hash is at
// maximal distance from any other.
func HammingDistance(a, b string) int {
	n := min(len(a), len(b))
	dist := max(len(a), len(b)) - n
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			dist++
		}
	}
	return dist
}

// StructScore converts a Hamming distance to a 0-100 similarity.
func StructScore(dist, maxDist int) int {
	if maxDist <= 0 {
		return 0
	}
	s := math.Floor(float64(maxDist-dist) / float64(maxDist) * 100)
	return max(0, int(s))
}

// ColorScore converts the RGB distance of two colors to a 0-100 similarity.
// A missing color on either side never penalizes: it scores 100.
func ColorScore(a, b *model.Color) float64 {
	if a == nil || b == nil {
		return 100
	}
	return math.Max(0, 100-a.Distance(*b)/colorNorm)
}

// Confidence blends structural and color similarity 70/30.
func Confidence(structScore int, colorScore float64) int {
	// Each product is rounded before the sum; the conversions forbid FMA.
	structPart := float64(float64(structScore) * structWeight)
	colorPart := float64(colorScore * colorWeight)
	return int(math.Floor(structPart + colorPart))
}
