package match

import (
	"net/netip"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Characters that never appear in a well-formed stored URL. Entries carrying
// them are rejected outright instead of being fed into host comparison.
const illegalURLChars = "<>^`{|}"

// RegistrableDomain returns the public suffix plus one label of host, e.g.
// another.example.co.uk -> example.co.uk. IP literals are returned unchanged
// and hosts without a recognizable suffix yield an empty string.
func RegistrableDomain(host string) string {
	host = normalizeHost(host)
	if host == "" {
		return ""
	}
	if _, err := netip.ParseAddr(host); err == nil {
		return host
	}

	suffix, icann := publicsuffix.PublicSuffix(host)
	if !icann || suffix == "" || suffix == host {
		return ""
	}

	remainder := strings.TrimSuffix(host, "."+suffix)
	if remainder == host {
		return ""
	}
	labels := strings.Split(remainder, ".")
	return labels[len(labels)-1] + "." + suffix
}

// URLsCompatible reports whether a stored entry URL may serve the requested
// page. Checks run cheapest first and any failure short-circuits:
// explicit port and scheme agreement, raw-character sanity, registrable
// domain equality, and finally one-directional subdomain wildcarding (the
// page host must end with the entry host, never the reverse).
//
// When the page denotes a local file the only accepted entry URL is an exact
// string match against the submit URL; domain logic is meaningless there.
func URLsCompatible(entryURL, pageURL, submitURL string, matchScheme bool) bool {
	if entryURL == "" {
		return false
	}

	entry := parseEntryURL(entryURL, matchScheme)

	if strings.Contains(pageURL, "file://") {
		return entryURL == submitURL
	}

	if entry == nil || entry.Hostname() == "" {
		return false
	}

	page, err := url.Parse(pageURL)
	if err != nil {
		return false
	}

	if port := entry.Port(); port != "" && port != "0" && port != page.Port() {
		return false
	}

	if matchScheme && entry.Scheme != "" && !strings.EqualFold(entry.Scheme, page.Scheme) {
		return false
	}

	if strings.ContainsAny(entryURL, illegalURLChars) {
		return false
	}

	pageHost := normalizeHost(page.Hostname())
	entryHost := normalizeHost(entry.Hostname())
	if RegistrableDomain(pageHost) != RegistrableDomain(entryHost) {
		return false
	}

	return strings.HasSuffix(pageHost, entryHost)
}

// RelaxHost strips the left-most label from host for progressive fallback
// matching. It refuses to reduce a host below two labels, so a registrable
// domain is never relaxed into a bare public suffix. The second return value
// reports whether anything was stripped.
func RelaxHost(host string) (string, bool) {
	pos := strings.Index(host, ".")
	if pos < 0 {
		return host, false
	}
	if strings.Count(host, ".") > 1 {
		relaxed := host[pos+1:]
		return relaxed, relaxed != ""
	}
	return host, false
}

func parseEntryURL(raw string, matchScheme bool) *url.URL {
	if strings.Contains(raw, "://") {
		parsed, err := url.Parse(raw)
		if err != nil {
			return nil
		}
		return parsed
	}

	// Scheme-less stored URLs are parsed permissively the way a user typed
	// them; under strict scheme matching they are treated as https.
	parsed, err := url.Parse("http://" + raw)
	if err != nil {
		return nil
	}
	if matchScheme {
		parsed.Scheme = "https"
	}
	return parsed
}

func normalizeHost(host string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(host), "."))
}
