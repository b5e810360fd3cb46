package catalog

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/jinzhu/inflection"
	lev "github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Scorer names accepted by ScorerByName and the configuration file
const (
	// ScorerDice selects the bigram Dice coefficient
	ScorerDice = "dice"
	// ScorerLevenshtein selects the Levenshtein ratio
	ScorerLevenshtein = "levenshtein"
)

// Scorer computes a similarity in [0,1] between two normalized column names.
// Implementations must be symmetric, deterministic and return 1 for identical input.
type Scorer interface {
	Score(a, b string) float64
}

// ScoreColumnPair returns the similarity of two column names in [0,1] using the
// Dice coefficient over character bigrams of the normalized names.
//
// Normalization lower-cases, folds accents and drops whitespace. Identical names
// score 1. A name with fewer than two characters has no bigram, so it scores 0
// against anything but itself: short names never score "near zero", they score zero.
func ScoreColumnPair(sourceColumnName, dictionaryColumnName string) float64 {
	n := nameNormalizer{}
	return DiceScorer{}.Score(n.normalize(sourceColumnName), n.normalize(dictionaryColumnName))
}

// DiceScorer is the Sørensen–Dice coefficient over character bigrams (with multiplicity).
type DiceScorer struct{}

// Score implements Scorer.
func (DiceScorer) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 2 || len(rb) < 2 {
		return 0
	}

	bigrams := make(map[[2]rune]int, len(ra)-1)
	for i := 0; i < len(ra)-1; i++ {
		bigrams[[2]rune{ra[i], ra[i+1]}]++
	}

	intersection := 0
	for i := 0; i < len(rb)-1; i++ {
		bigram := [2]rune{rb[i], rb[i+1]}
		if count := bigrams[bigram]; count > 0 {
			bigrams[bigram] = count - 1
			intersection++
		}
	}
	return 2 * float64(intersection) / float64(len(ra)+len(rb)-2)
}

// LevenshteinScorer scores by the Levenshtein ratio: (|a|+|b|-distance)/(|a|+|b|),
// where a substitution costs two edits.
type LevenshteinScorer struct{}

// Score implements Scorer.
func (LevenshteinScorer) Score(a, b string) float64 {
	if a == b {
		return 1
	}
	return lev.RatioForStrings([]rune(a), []rune(b), lev.DefaultOptions)
}

// ScorerByName returns the scorer registered under name.
func ScorerByName(name string) (Scorer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", ScorerDice:
		return DiceScorer{}, nil
	case ScorerLevenshtein:
		return LevenshteinScorer{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown scorer %q", ErrInvalidConfig, name)
	}
}

// pairKey is the cache key of a scored pair, ordered so (a,b) and (b,a) share an entry.
type pairKey struct {
	low, high string
}

func newPairKey(a, b string) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{low: a, high: b}
}

// cachedScorer memoizes another scorer. The cache is safe for concurrent use.
type cachedScorer struct {
	scorer Scorer
	cache  *lru.Cache[pairKey, float64]
}

// NewCachedScorer wraps scorer with an LRU cache holding up to size pairs.
// Results are identical to the wrapped scorer; the cache only saves work when the
// same dictionary is matched repeatedly.
func NewCachedScorer(scorer Scorer, size int) (Scorer, error) {
	if scorer == nil {
		return nil, fmt.Errorf("%w: scorer cannot be nil", ErrInvalidConfig)
	}
	cache, err := lru.New[pairKey, float64](size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &cachedScorer{scorer: scorer, cache: cache}, nil
}

// Score implements Scorer.
func (c *cachedScorer) Score(a, b string) float64 {
	key := newPairKey(a, b)
	if score, ok := c.cache.Get(key); ok {
		return score
	}
	score := c.scorer.Score(key.low, key.high)
	c.cache.Add(key, score)
	return score
}

// wordPattern matches the letter runs singularized by the normalizer.
var wordPattern = regexp.MustCompile(`\p{L}+`)

// nameNormalizer prepares column names for scoring.
type nameNormalizer struct {
	singularize bool
}

// normalize lower-cases, folds accents, optionally singularizes each word and removes whitespace.
func (n nameNormalizer) normalize(name string) string {
	s := foldAccents(strings.ToLower(name))
	if n.singularize {
		s = wordPattern.ReplaceAllStringFunc(s, inflection.Singular)
	}
	return strings.Join(strings.Fields(s), "")
}

// foldAccents decomposes, removes nonspacing marks and recomposes.
// The transformer chain holds state, so one is built per call.
func foldAccents(s string) string {
	t := transform.Chain(
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return folded
}
