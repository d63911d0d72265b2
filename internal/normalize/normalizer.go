package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/dialboard/backend/internal/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Kind selects which normalization rules apply to a raw field value
type Kind string

const (
	KindOperator Kind = "operator"
	KindStatus   Kind = "status"
	KindQueue    Kind = "queue"
	KindDuration Kind = "duration"
)

// Per-kind confidence thresholds below which a value is reported invalid
var validityThresholds = map[Kind]float64{
	KindOperator: 0.5,
	KindStatus:   0.7,
	KindQueue:    0.6,
	KindDuration: 0.5,
}

const duplicateNameThreshold = 0.8

var (
	namePattern    = regexp.MustCompile(`^[\p{L}][\p{L}' .-]*$`)
	colonPattern   = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)
	suffixPattern  = regexp.MustCompile(`^\d+[smSM]$`)
	integerPattern = regexp.MustCompile(`^\d+$`)
	decimalPattern = regexp.MustCompile(`^\d+\.\d+$`)
	multiSpace     = regexp.MustCompile(`\s+`)
)

// Normalizer turns messy raw field values into canonical ones, scoring each
// result with a confidence and human-readable warnings. It never fails: every
// input produces a NormalizationResult, possibly marked invalid.
//
// The operator path is stateful: previously seen canonical names feed the
// near-duplicate detection, so one Normalizer instance should live for the
// duration of a dataset pass.
type Normalizer struct {
	aliases AliasTable
	titler  cases.Caser

	mu            sync.Mutex
	seenOperators map[string]string // lower-cased -> canonical

	canonicalQueues map[string]string // lower-cased -> canonical
}

// NewNormalizer creates a Normalizer over the given alias tables
func NewNormalizer(aliases AliasTable) *Normalizer {
	queues := map[string]string{strings.ToLower(types.DefaultQueue): types.DefaultQueue}
	for _, canonical := range aliases.Queues {
		queues[strings.ToLower(canonical)] = canonical
	}

	return &Normalizer{
		aliases:         aliases,
		titler:          cases.Title(language.Und),
		seenOperators:   make(map[string]string),
		canonicalQueues: queues,
	}
}

// Normalize applies the rules for kind to a raw value. Total function:
// it never panics and never returns an error.
func (n *Normalizer) Normalize(kind Kind, raw string) types.NormalizationResult {
	trimmed := strings.TrimSpace(raw)

	if trimmed == "" {
		result := types.NormalizationResult{
			OriginalValue: raw,
			Confidence:    0,
			IsValid:       false,
			Warnings:      []string{fmt.Sprintf("empty %s value", kind)},
		}
		if kind == KindQueue {
			result.NormalizedValue = types.DefaultQueue
		}
		return result
	}

	switch kind {
	case KindOperator:
		return n.normalizeOperator(raw, trimmed)
	case KindStatus:
		return n.normalizeStatus(raw, trimmed)
	case KindQueue:
		return n.normalizeQueue(raw, trimmed)
	case KindDuration:
		return n.normalizeDuration(raw, trimmed)
	default:
		return types.NormalizationResult{
			OriginalValue: raw,
			Confidence:    0,
			IsValid:       false,
			Warnings:      []string{fmt.Sprintf("unknown field kind %q", kind)},
		}
	}
}

func (n *Normalizer) normalizeOperator(raw, trimmed string) types.NormalizationResult {
	lower := strings.ToLower(trimmed)

	normalized := ""
	confidence := 0.0

	n.mu.Lock()
	if canonical, ok := n.seenOperators[lower]; ok {
		normalized, confidence = canonical, 1.0
	}
	n.mu.Unlock()

	if normalized == "" {
		if canonical, ok := n.aliases.Operators[lower]; ok {
			if strings.EqualFold(trimmed, canonical) {
				normalized, confidence = canonical, 1.0
			} else {
				normalized, confidence = canonical, 0.9
			}
		} else {
			normalized = n.titler.String(collapseWhitespace(trimmed))
			confidence = Similarity(trimmed, normalized)
		}
	}

	result := types.NormalizationResult{
		OriginalValue:   raw,
		NormalizedValue: normalized,
		Confidence:      confidence,
		IsValid:         namePattern.MatchString(normalized) && confidence >= validityThresholds[KindOperator],
	}

	if !result.IsValid {
		result.Warnings = append(result.Warnings, fmt.Sprintf("operator name %q could not be normalized confidently", raw))
		result.Suggestions = append(result.Suggestions, "add an alias table entry for this spelling")
	}

	n.recordOperator(lower, normalized, result.IsValid, &result)
	return result
}

// recordOperator remembers a canonical name and flags near-duplicate
// spellings of names seen earlier in the same dataset
func (n *Normalizer) recordOperator(lower, normalized string, valid bool, result *types.NormalizationResult) {
	normalizedLower := strings.ToLower(normalized)

	n.mu.Lock()
	defer n.mu.Unlock()

	seen := make(map[string]struct{})
	for _, seenCanonical := range n.seenOperators {
		if seenCanonical == normalized {
			continue
		}
		if _, done := seen[seenCanonical]; done {
			continue
		}
		seen[seenCanonical] = struct{}{}

		if Similarity(normalizedLower, strings.ToLower(seenCanonical)) > duplicateNameThreshold {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("operator %q is very similar to existing operator %q", normalized, seenCanonical))
			result.Suggestions = append(result.Suggestions,
				fmt.Sprintf("verify whether %q and %q are the same person", normalized, seenCanonical))
			break
		}
	}

	if valid {
		n.seenOperators[lower] = normalized
		n.seenOperators[normalizedLower] = normalized
	}
}

func (n *Normalizer) normalizeStatus(raw, trimmed string) types.NormalizationResult {
	lower := strings.ToLower(trimmed)

	normalized := ""
	confidence := 0.0

	for _, status := range types.AllStatuses {
		if strings.EqualFold(trimmed, string(status)) {
			normalized, confidence = string(status), 1.0
			break
		}
	}

	if normalized == "" {
		if canonical, ok := n.aliases.Statuses[lower]; ok {
			normalized, confidence = canonical, 0.9
		} else {
			normalized = n.titler.String(collapseWhitespace(trimmed))
			confidence = Similarity(trimmed, normalized)
		}
	}

	valid := isCanonicalStatus(normalized) && confidence >= validityThresholds[KindStatus]

	result := types.NormalizationResult{
		OriginalValue:   raw,
		NormalizedValue: normalized,
		Confidence:      confidence,
		IsValid:         valid,
	}

	if !valid {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unrecognized call status %q", raw))
		if closest := closestStatus(lower); closest != "" {
			result.Suggestions = append(result.Suggestions, fmt.Sprintf("did you mean %q?", closest))
		}
	}

	return result
}

func (n *Normalizer) normalizeQueue(raw, trimmed string) types.NormalizationResult {
	lower := strings.ToLower(trimmed)

	normalized := ""
	confidence := 0.0

	if canonical, ok := n.canonicalQueues[lower]; ok {
		normalized, confidence = canonical, 1.0
	} else if canonical, ok := n.aliases.Queues[lower]; ok {
		normalized, confidence = canonical, 0.9
	} else {
		normalized = n.titler.String(collapseWhitespace(trimmed))
		confidence = Similarity(trimmed, normalized)
	}

	_, isCanonical := n.canonicalQueues[strings.ToLower(normalized)]
	valid := isCanonical && confidence >= validityThresholds[KindQueue]

	result := types.NormalizationResult{
		OriginalValue:   raw,
		NormalizedValue: normalized,
		Confidence:      confidence,
		IsValid:         valid,
	}

	if !valid {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unrecognized queue %q", raw))
		result.Suggestions = append(result.Suggestions, fmt.Sprintf("map %q to a canonical queue in the alias table", raw))
	}

	return result
}

func (n *Normalizer) normalizeDuration(raw, trimmed string) types.NormalizationResult {
	matches := colonPattern.MatchString(trimmed) ||
		suffixPattern.MatchString(trimmed) ||
		integerPattern.MatchString(trimmed) ||
		decimalPattern.MatchString(trimmed)

	confidence := 0.0
	if matches {
		confidence = 1.0
	}

	result := types.NormalizationResult{
		OriginalValue:   raw,
		NormalizedValue: strconv.Itoa(ParseDuration(trimmed)),
		Confidence:      confidence,
		IsValid:         matches && confidence >= validityThresholds[KindDuration],
	}

	if !result.IsValid {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unparseable duration %q, treated as 0s", raw))
	}

	return result
}

func isCanonicalStatus(s string) bool {
	for _, status := range types.AllStatuses {
		if s == string(status) {
			return true
		}
	}
	return false
}

// closestStatus returns the canonical status most similar to the input,
// or "" when nothing comes close enough to be a useful suggestion
func closestStatus(lower string) types.CallStatus {
	best := types.CallStatus("")
	bestScore := 0.4
	for _, status := range types.AllStatuses {
		if score := Similarity(lower, strings.ToLower(string(status))); score > bestScore {
			best, bestScore = status, score
		}
	}
	return best
}

func collapseWhitespace(s string) string {
	return multiSpace.ReplaceAllString(s, " ")
}
