package classification

import (
	"fmt"
	"math"
	"strings"
)

// Bucket is a confidence range used to pick a comment template
type Bucket int

const (
	BucketWeak     Bucket = iota // below 60
	BucketModerate               // [60, 75)
	BucketStrong                 // [75, 90)
	BucketVeryHigh               // 90 and above
)

func (b Bucket) String() string {
	switch b {
	case BucketVeryHigh:
		return "very_high"
	case BucketStrong:
		return "strong"
	case BucketModerate:
		return "moderate"
	default:
		return "weak"
	}
}

// BucketOf maps a confidence to its bucket. Boundaries belong to the higher bucket.
func BucketOf(confidence float64) Bucket {
	switch {
	case confidence >= 90:
		return BucketVeryHigh
	case confidence >= 75:
		return BucketStrong
	case confidence >= 60:
		return BucketModerate
	default:
		return BucketWeak
	}
}

var organicTemplates = map[Bucket]string{
	BucketVeryHigh: "[EXCELLENT] Excellent %s! Very strong organic indicators.",
	BucketStrong:   "[GOOD] Good %s! Strong organic characteristics detected.",
	BucketModerate: "[ORGANIC] Likely Organic %s. Moderate organic indicators present.",
	BucketWeak:     "[CAUTION] Borderline %s. Weak organic signals detected.",
}

var inorganicTemplates = map[Bucket]string{
	BucketVeryHigh: "[CONVENTIONAL] Conventional %s. Strong indicators of conventional farming.",
	BucketStrong:   "[CONVENTIONAL] Likely Conventional %s. Significant markers detected.",
	BucketModerate: "[CAUTION] Possibly Conventional %s. Moderate indicators.",
	BucketWeak:     "[UNCERTAIN] Uncertain Classification. Mixed signals detected.",
}

// Template returns the raw template for a branch and bucket
func Template(isOrganic bool, b Bucket) string {
	if isOrganic {
		return organicTemplates[b]
	}
	return inorganicTemplates[b]
}

// Comment builds the analysis narrative for a result
func Comment(subjectLabel string, isOrganic bool, organicScore, inorganicScore float64) string {
	tmpl := Template(isOrganic, BucketOf(math.Max(organicScore, inorganicScore)))
	return render(tmpl, subjectLabel)
}

// render fills the subject label into a template. The weak inorganic
// template carries no placeholder.
func render(tmpl, subjectLabel string) string {
	if !strings.Contains(tmpl, "%s") {
		return tmpl
	}
	return fmt.Sprintf(tmpl, subjectLabel)
}
