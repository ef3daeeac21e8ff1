package identify

import (
	"net/url"
	"strings"
)

// trackingParams lists query parameters stripped during URL normalization.
// utm_* parameters are matched by prefix.
var trackingParams = map[string]struct{}{
	"ref":         {},
	"ref_src":     {},
	"fbclid":      {},
	"gclid":       {},
	"dclid":       {},
	"msclkid":     {},
	"igshid":      {},
	"mc_cid":      {},
	"mc_eid":      {},
	"_hsenc":      {},
	"_hsmi":       {},
	"spm":         {},
	"WT.mc_id":    {},
	"source":      {},
	"campaign_id": {},
}

func isTrackingParam(name string) bool {
	if strings.HasPrefix(strings.ToLower(name), "utm_") {
		return true
	}
	_, ok := trackingParams[name]
	return ok
}

// NormalizeURL canonicalizes a URL for duplicate comparison: tracking query
// parameters are removed first, the host is lowercased with a leading "www."
// stripped, and a single trailing slash is trimmed from the path. Parameter
// stripping must precede slash trimming so no "?"-only artifact is left
// behind. Unparseable input is returned trimmed but otherwise untouched.
func NormalizeURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return trimmed
	}

	parsed.RawQuery = stripTrackingParams(parsed.RawQuery)
	parsed.Fragment = ""

	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")
	parsed.Host = host
	parsed.Scheme = strings.ToLower(parsed.Scheme)

	if strings.HasSuffix(parsed.Path, "/") && parsed.Path != "/" {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	} else if parsed.Path == "/" && parsed.RawQuery == "" {
		parsed.Path = ""
	}

	return parsed.String()
}

// stripTrackingParams filters tracking parameters while preserving the order
// of the remaining ones.
func stripTrackingParams(rawQuery string) string {
	if rawQuery == "" {
		return ""
	}
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		name := pair
		if idx := strings.IndexByte(pair, '='); idx >= 0 {
			name = pair[:idx]
		}
		decoded, err := url.QueryUnescape(name)
		if err != nil {
			decoded = name
		}
		if isTrackingParam(decoded) {
			continue
		}
		kept = append(kept, pair)
	}
	return strings.Join(kept, "&")
}
