package match

import (
	"net/url"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Candidate is the projection of a stored login the ranker needs. The ID is
// opaque to this package and carried through so callers can map ranked
// results back onto their records.
type Candidate struct {
	ID       string
	Title    string
	Username string
	URL      string
}

// SortField selects the primary within-bucket ordering attribute.
type SortField string

const (
	SortFieldTitle    SortField = "title"
	SortFieldUsername SortField = "username"
)

// RankOptions tune bucket ordering. The zero value sorts by username under
// the undetermined locale and returns every bucket.
type RankOptions struct {
	Field         SortField
	BestMatchOnly bool
	Locale        language.Tag
}

const (
	maxScore   = 100
	scoreStep  = 5
	bucketSize = maxScore/scoreStep + 1
)

// Score rates how precisely an entry URL targets the requested page. The
// result is a multiple of 5 in [0,100]; rules are tried most specific first
// and the first hit wins. A zero score keeps the entry in the result set but
// ranks it last.
func Score(entryURL, host, submitURL, baseSubmitURL string) int {
	normalized, base, ok := normalizeEntryURL(entryURL)
	if !ok {
		return 0
	}
	raw := strings.TrimSuffix(entryURL, "/")

	entryHost := hostOf(normalized)
	if !strings.Contains(entryHost, ".") && entryHost != "localhost" {
		return 0
	}

	switch {
	case submitURL == normalized:
		return 100
	case strings.HasPrefix(submitURL, normalized) && normalized != host && baseSubmitURL != normalized:
		return 90
	case strings.HasPrefix(submitURL, base) && normalized != host && baseSubmitURL != base:
		return 80
	case normalized == host || raw == host:
		return 70
	case normalized == baseSubmitURL:
		return 60
	case strings.HasPrefix(normalized, submitURL):
		return 50
	case strings.HasPrefix(normalized, baseSubmitURL) && baseSubmitURL != host:
		return 40
	case strings.HasPrefix(submitURL, normalized):
		return 30
	case strings.HasPrefix(submitURL, base):
		return 20
	case strings.HasPrefix(normalized, host):
		return 10
	case strings.HasPrefix(host, normalized):
		return 5
	}
	return 0
}

// Rank orders candidates by score bucket, highest first. Within a bucket the
// configured field decides order under locale-aware collation with the
// username as tiebreak. With BestMatchOnly set only the highest non-empty
// bucket is returned.
func Rank(candidates []Candidate, host, submitURL string, opts RankOptions) []Candidate {
	if len(candidates) == 0 {
		return nil
	}

	submit, baseSubmit := normalizeSubmitURL(submitURL)

	buckets := make([][]Candidate, bucketSize)
	for _, candidate := range candidates {
		score := Score(candidate.URL, host, submit, baseSubmit)
		idx := score / scoreStep
		buckets[idx] = append(buckets[idx], candidate)
	}

	collator := newCollator(opts.Locale)
	primary := primaryField(opts.Field)

	ordered := make([]Candidate, 0, len(candidates))
	for idx := bucketSize - 1; idx >= 0; idx-- {
		bucket := buckets[idx]
		if len(bucket) == 0 {
			continue
		}
		sortBucket(bucket, collator, primary)
		ordered = append(ordered, bucket...)
		if opts.BestMatchOnly {
			break
		}
	}
	return ordered
}

func sortBucket(bucket []Candidate, collator *collate.Collator, field SortField) {
	less := func(left, right Candidate) bool {
		a, b := fieldValue(left, field), fieldValue(right, field)
		if cmp := collator.CompareString(a, b); cmp != 0 {
			return cmp < 0
		}
		return collator.CompareString(left.Username, right.Username) < 0
	}
	// Insertion sort keeps equal elements stable; buckets are small.
	for i := 1; i < len(bucket); i++ {
		for j := i; j > 0 && less(bucket[j], bucket[j-1]); j-- {
			bucket[j], bucket[j-1] = bucket[j-1], bucket[j]
		}
	}
}

func fieldValue(candidate Candidate, field SortField) string {
	if field == SortFieldTitle {
		return candidate.Title
	}
	return candidate.Username
}

func primaryField(field SortField) SortField {
	if field == SortFieldTitle {
		return SortFieldTitle
	}
	return SortFieldUsername
}

func newCollator(tag language.Tag) *collate.Collator {
	if tag == (language.Tag{}) {
		tag = language.Und
	}
	return collate.New(tag)
}

// normalizeEntryURL renders an entry URL the way the scorer compares it:
// https default scheme, explicit "/" path when bare, no trailing slash. The
// second result is the scheme+authority prefix used for base comparisons.
func normalizeEntryURL(raw string) (normalized string, base string, ok bool) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", "", false
	}
	if parsed.Host == "" && !strings.Contains(raw, "://") {
		parsed, err = url.Parse("https://" + raw)
		if err != nil {
			return "", "", false
		}
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}
	if parsed.Path == "" && parsed.RawQuery == "" && parsed.Fragment == "" {
		parsed.Path = "/"
	}

	normalized = strings.TrimSuffix(parsed.String(), "/")

	stripped := *parsed
	stripped.Path = ""
	stripped.RawPath = ""
	stripped.RawQuery = ""
	stripped.Fragment = ""
	base = strings.TrimSuffix(stripped.String(), "/")
	return normalized, base, true
}

// NormalizeSubmitURL prepares the submit URL and its scheme+authority base
// for scoring, defaulting the scheme to https the way entry URLs are
// normalized.
func NormalizeSubmitURL(raw string) (string, string) {
	return normalizeSubmitURL(raw)
}

func normalizeSubmitURL(raw string) (string, string) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return strings.TrimSuffix(raw, "/"), strings.TrimSuffix(raw, "/")
	}
	if parsed.Scheme == "" {
		parsed.Scheme = "https"
	}

	submit := strings.TrimSuffix(parsed.String(), "/")

	stripped := *parsed
	stripped.Path = ""
	stripped.RawPath = ""
	stripped.RawQuery = ""
	stripped.Fragment = ""
	base := strings.TrimSuffix(stripped.String(), "/")
	return submit, base
}

func hostOf(normalized string) string {
	parsed, err := url.Parse(normalized)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}
