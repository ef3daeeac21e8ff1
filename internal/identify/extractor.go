package identify

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"bibdup/internal/records"
)

// IdentifierSet holds every matching signal extractable from one record.
// Empty fields disable the strategies that require them.
type IdentifierSet struct {
	DOI           string
	ISBN          string
	ISSN          string
	PMID          string
	PMCID         string
	ArXivID       string
	OriginalURL   string
	NormalizedURL string

	Title           string
	NormalizedTitle string
	FirstAuthor     string
	Year            int
	ItemType        string
}

var (
	doiPrefixPattern = regexp.MustCompile(`^https?://(dx\.)?doi\.org/`)
	isbnStripPattern = regexp.MustCompile(`[-\s]+`)

	pmidPattern  = regexp.MustCompile(`(?i)\bPMID:?\s*(\d+)`)
	pmcidPattern = regexp.MustCompile(`(?i)\bPMC(?:ID)?:?\s*((?:PMC)?\d+)`)

	arxivNewPattern    = regexp.MustCompile(`(?i)\barXiv:?\s*(\d{4}\.\d{4,5}(?:v\d+)?)`)
	arxivLegacyPattern = regexp.MustCompile(`(?i)\barXiv:?\s*([a-z-]+(?:\.[A-Za-z]{2})?/\d{7})`)
	arxivURLPattern    = regexp.MustCompile(`(?i)arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5}(?:v\d+)?|[a-z-]+(?:\.[A-Za-z]{2})?/\d{7})`)

	yearPattern = regexp.MustCompile(`(19|20)\d{2}`)
)

// DOIPattern re-validates a DOI found by a containment search.
var DOIPattern = regexp.MustCompile(`(?i)\b10\.\d{4,9}/\S+`)

// Extract derives an IdentifierSet from a record. It never fails: any signal
// that cannot be derived is simply absent from the result.
func Extract(rec records.Record) IdentifierSet {
	set := IdentifierSet{
		ItemType: rec.Field(records.FieldItemType),
	}

	set.DOI = normalizeDOI(rec.Field(records.FieldDOI))
	set.ISBN = normalizeISBN(rec.Field(records.FieldISBN))
	set.ISSN = strings.TrimSpace(rec.Field(records.FieldISSN))

	extra := rec.Field(records.FieldExtra)
	rawURL := rec.Field(records.FieldURL)

	set.PMID = firstSubmatch(pmidPattern, extra)
	set.PMCID = normalizePMCID(firstSubmatch(pmcidPattern, extra))
	set.ArXivID = extractArXivID(extra, rawURL)

	if trimmed := strings.TrimSpace(rawURL); trimmed != "" {
		set.OriginalURL = trimmed
		set.NormalizedURL = NormalizeURL(trimmed)
	}

	if title := strings.TrimSpace(rec.Field(records.FieldTitle)); title != "" {
		set.Title = title
		set.NormalizedTitle = NormalizeTitle(title)
	}

	set.Year = extractYear(rec.Field(records.FieldDate))
	set.FirstAuthor = firstAuthor(rec.Creators())

	return set
}

func normalizeDOI(raw string) string {
	doi := strings.TrimSpace(raw)
	if doi == "" {
		return ""
	}
	return doiPrefixPattern.ReplaceAllString(doi, "")
}

func normalizeISBN(raw string) string {
	isbn := strings.TrimSpace(raw)
	if isbn == "" {
		return ""
	}
	return isbnStripPattern.ReplaceAllString(isbn, "")
}

func normalizePMCID(raw string) string {
	if raw == "" {
		return ""
	}
	digits := strings.TrimPrefix(strings.ToUpper(raw), "PMC")
	if digits == "" {
		return ""
	}
	return "PMC" + digits
}

func extractArXivID(extra, rawURL string) string {
	for _, source := range []string{extra, rawURL} {
		if id := firstSubmatch(arxivNewPattern, source); id != "" {
			return id
		}
		if id := firstSubmatch(arxivLegacyPattern, source); id != "" {
			return id
		}
	}
	if id := firstSubmatch(arxivURLPattern, rawURL); id != "" {
		return id
	}
	return ""
}

func firstSubmatch(pattern *regexp.Regexp, input string) string {
	if input == "" {
		return ""
	}
	match := pattern.FindStringSubmatch(input)
	if len(match) < 2 {
		return ""
	}
	return match[1]
}

// extractYear parses the record's date field, falling back to a regex scan for
// a four-digit year when the date does not parse or falls outside the
// plausible range.
func extractYear(rawDate string) int {
	date := strings.TrimSpace(rawDate)
	if date == "" {
		return 0
	}

	layouts := []string{
		"2006-01-02",
		"2006-01",
		"2006",
		"January 2, 2006",
		"Jan 2, 2006",
		time.RFC3339,
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, date); err == nil {
			if year := parsed.Year(); yearPlausible(year) {
				return year
			}
			break
		}
	}

	if match := yearPattern.FindString(date); match != "" {
		year, err := strconv.Atoi(match)
		if err == nil && yearPlausible(year) {
			return year
		}
	}
	return 0
}

func yearPlausible(year int) bool {
	return year >= 1000 && year <= time.Now().Year()+10
}

// firstAuthor returns the first creator's surname, or the full name when no
// surname field exists.
func firstAuthor(creators []records.Creator) string {
	if len(creators) == 0 {
		return ""
	}
	first := creators[0]
	if surname := strings.TrimSpace(first.LastName); surname != "" {
		return surname
	}
	return strings.TrimSpace(first.FullName)
}
