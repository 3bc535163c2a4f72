package analysis

import (
	"regexp"
	"strconv"
	"strings"
)

// Fallback defaults. Every field of a Result is populated even when the raw
// chain output contains nothing recognizable.
const (
	defaultTitle       = "Produk Berkualitas"
	defaultDescription = "Produk berkualitas dengan harga terjangkau."
	defaultReasoning   = "Berdasarkan analisis market"

	defaultMinPrice         = 50_000
	defaultMaxPrice         = 500_000
	defaultRecommendedPrice = 150_000

	// Placeholder confidences until a calibrated model exists. Must stay
	// within [0,1].
	resultConfidence = 0.85
	priceConfidence  = 0.8

	// Chain-extracted prices below this are fragments of something else.
	extractPriceFloor = 1000

	maxTitleLen       = 200
	maxDescriptionLen = 1000
	maxHashtags       = 10
	maxKeyFeatures    = 5
)

var (
	defaultHashtags    = []string{"#produkberkualitas", "#murah", "#recommended"}
	defaultKeyFeatures = []string{"Kualitas terjamin", "Harga terjangkau", "Siap kirim"}
)

// PriceSuggestion is the extracted price recommendation. Min <= Recommended
// <= Max always holds in a returned value.
type PriceSuggestion struct {
	Min         int     `json:"min_price"`
	Max         int     `json:"max_price"`
	Recommended int     `json:"recommended_price"`
	Confidence  float64 `json:"confidence"`
	Reasoning   string  `json:"reasoning"`
}

// Result is the marketplace-ready listing produced by one analysis.
type Result struct {
	Category          Category        `json:"category"`
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	OriginalUserInput string          `json:"original_user_input,omitempty"`
	PriceSuggestion   PriceSuggestion `json:"price_suggestion"`
	Hashtags          []string        `json:"hashtags"`
	KeyFeatures       []string        `json:"key_features"`
	ConfidenceScore   float64         `json:"confidence_score"`
}

// Price label patterns per role, in priority order. Both English and
// Indonesian label spellings are accepted; the first match per role wins.
var (
	minPricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Min\s*Price[^:]*:\s*Rp\s*([\d.]+)`),
		regexp.MustCompile(`(?i)Minimum[^:]*:\s*Rp\s*([\d.]+)`),
		regexp.MustCompile(`(?i)Harga\s*Minimum[^:]*:\s*Rp\s*([\d.]+)`),
	}
	maxPricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Max\s*Price[^:]*:\s*Rp\s*([\d.]+)`),
		regexp.MustCompile(`(?i)Maximum[^:]*:\s*Rp\s*([\d.]+)`),
		regexp.MustCompile(`(?i)Harga\s*Maximum[^:]*:\s*Rp\s*([\d.]+)`),
	}
	recommendedPricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Recommended[^:]*:\s*Rp\s*([\d.]+)`),
		regexp.MustCompile(`(?i)Disarankan[^:]*:\s*Rp\s*([\d.]+)`),
		regexp.MustCompile(`(?i)Harga\s*Disarankan[^:]*:\s*Rp\s*([\d.]+)`),
	}
)

var hashtagPattern = regexp.MustCompile(`#\w+`)

var bulletPrefixPattern = regexp.MustCompile(`^[-•*✓✨⚡🎯🔧💪]\s*`)

// Extract converts the raw final chain output into a fully populated
// Result. It is pure and deterministic: identical raw text yields identical
// results, and it never fails. Every field that cannot be located falls
// back to a fixed schema-valid default.
func Extract(raw, originalUserInput string) *Result {
	lines := strings.Split(raw, "\n")

	title := extractTitle(lines)
	description := extractDescription(lines)
	if description == "" {
		if originalUserInput != "" {
			description = originalUserInput
		} else {
			description = defaultDescription
		}
	}

	minPrice, maxPrice, recommended := extractPrices(raw)
	reasoning := extractReasoning(lines)
	hashtags := extractHashtags(lines)
	features := extractKeyFeatures(lines)

	return &Result{
		Category:          matchCategory(raw),
		Title:             truncateRunes(title, maxTitleLen),
		Description:       truncateRunes(strings.TrimSpace(description), maxDescriptionLen),
		OriginalUserInput: originalUserInput,
		PriceSuggestion: PriceSuggestion{
			Min:         minPrice,
			Max:         maxPrice,
			Recommended: recommended,
			Confidence:  priceConfidence,
			Reasoning:   reasoning,
		},
		Hashtags:        hashtags,
		KeyFeatures:     features,
		ConfidenceScore: resultConfidence,
	}
}

// extractTitle scans for a title-marker line ("JUDUL:" or "TITLE:") and
// takes the remainder. Only values longer than 5 characters after markup
// stripping are accepted.
func extractTitle(lines []string) string {
	for _, line := range lines {
		upper := strings.ToUpper(line)
		if (strings.Contains(upper, "JUDUL") || strings.Contains(upper, "TITLE")) &&
			strings.Contains(line, ":") {
			part := stripMarkup(strings.SplitN(line, ":", 2)[1])
			if runeLen(part) > 5 {
				return part
			}
		}
	}
	return defaultTitle
}

// extractDescription collects the lines of the description section, which
// starts at a "DESKRIPSI:"/"DESCRIPTION:" marker and ends at the first
// features/hashtag/info marker. Markdown headers and emphasis are stripped.
func extractDescription(lines []string) string {
	inSection := false
	var collected []string

	for _, line := range lines {
		upper := strings.ToUpper(line)

		if (strings.Contains(upper, "DESKRIPSI") || strings.Contains(upper, "DESCRIPTION")) &&
			strings.Contains(line, ":") {
			inSection = true
			// Inline description on the marker line itself. Bracketed
			// placeholders like "[2-3 paragraf]" are template echoes.
			part := strings.TrimSpace(strings.SplitN(line, ":", 2)[1])
			if part != "" && !strings.HasPrefix(part, "[") {
				collected = append(collected, part)
			}
			continue
		}

		if inSection {
			if strings.Contains(upper, "FITUR") || strings.Contains(upper, "FEATURE") ||
				strings.Contains(upper, "HASHTAG") || strings.Contains(upper, "INFO:") {
				break
			}
			trimmed := strings.TrimSpace(line)
			if trimmed != "" && !strings.HasPrefix(trimmed, "#") {
				if clean := stripMarkup(trimmed); clean != "" {
					collected = append(collected, clean)
				}
			}
		}
	}

	return strings.TrimSpace(strings.Join(collected, "\n"))
}

// extractPrices tries each role's patterns in order, keeps the first
// accepted match per role, then repairs ordering: swap when min > max, and
// replace an out-of-range recommendation with the integer midpoint.
func extractPrices(raw string) (minPrice, maxPrice, recommended int) {
	minPrice = defaultMinPrice
	maxPrice = defaultMaxPrice
	recommended = defaultRecommendedPrice

	if v, ok := firstPriceMatch(raw, minPricePatterns); ok {
		minPrice = v
	}
	if v, ok := firstPriceMatch(raw, maxPricePatterns); ok {
		maxPrice = v
	}
	if v, ok := firstPriceMatch(raw, recommendedPricePatterns); ok {
		recommended = v
	}

	if minPrice > maxPrice {
		minPrice, maxPrice = maxPrice, minPrice
	}
	if recommended < minPrice || recommended > maxPrice {
		recommended = (minPrice + maxPrice) / 2
	}
	return minPrice, maxPrice, recommended
}

func firstPriceMatch(raw string, patterns []*regexp.Regexp) (int, bool) {
	for _, pattern := range patterns {
		match := pattern.FindStringSubmatch(raw)
		if match == nil {
			continue
		}
		// Dots are thousand separators in Indonesian price notation.
		value, err := strconv.Atoi(strings.ReplaceAll(match[1], ".", ""))
		if err != nil {
			continue
		}
		if value > extractPriceFloor {
			return value, true
		}
	}
	return 0, false
}

func extractReasoning(lines []string) string {
	for _, line := range lines {
		lower := strings.ToLower(line)
		if strings.Contains(lower, "reasoning") || strings.Contains(lower, "alasan") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) > 1 {
				return strings.TrimSpace(parts[1])
			}
		}
	}
	return defaultReasoning
}

func extractHashtags(lines []string) []string {
	var hashtags []string
	for _, line := range lines {
		hashtags = append(hashtags, hashtagPattern.FindAllString(line, -1)...)
	}
	if len(hashtags) == 0 {
		hashtags = append(hashtags, defaultHashtags...)
	}
	if len(hashtags) > maxHashtags {
		hashtags = hashtags[:maxHashtags]
	}
	return hashtags
}

// extractKeyFeatures collects bulleted lines from the features section,
// which starts at a FITUR/FEATURE marker and ends at the hashtag line.
func extractKeyFeatures(lines []string) []string {
	inSection := false
	var features []string

	for _, line := range lines {
		upper := strings.ToUpper(line)

		if strings.Contains(upper, "FITUR") || strings.Contains(upper, "FEATURE") {
			inSection = true
			continue
		}

		if inSection {
			trimmed := strings.TrimSpace(line)
			if strings.Contains(upper, "HASHTAG") || strings.HasPrefix(trimmed, "#") {
				break
			}
			if bulletPrefixPattern.MatchString(trimmed) {
				feature := stripMarkup(bulletPrefixPattern.ReplaceAllString(trimmed, ""))
				if runeLen(feature) > 3 {
					features = append(features, feature)
				}
			}
		}
	}

	if len(features) == 0 {
		features = append(features, defaultKeyFeatures...)
	}
	if len(features) > maxKeyFeatures {
		features = features[:maxKeyFeatures]
	}
	return features
}

// stripMarkup removes markdown emphasis markers and surrounding whitespace.
func stripMarkup(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "*", "")
	return strings.TrimSpace(s)
}

func runeLen(s string) int {
	return len([]rune(s))
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
