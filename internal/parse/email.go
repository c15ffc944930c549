// Package parse splits raw address strings into local and domain parts.
// It performs no I/O; rule validation lives in the check package.
package parse

import (
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/idna"
)

// Email is the internal representation of a split address.
type Email struct {
	Raw           string // the original, trimmed input
	Local         string // the part before the last @, exactly as written
	Domain        string // lower-case ASCII/Punycode form (for DNS/SMTP)
	DomainUnicode string // Unicode form (for display/typo detection)
	Quoted        bool   // local part is a quoted-string
	Valid         bool   // false if Raw cannot be split
	Problem       string // why Valid is false
}

// NewEmail splits the given address string.
// If splitting fails, Valid=false and Problem describes why, but Raw is
// always populated. Internationalized local parts (RFC 6531) and
// internationalized domain names (IDNA2008) are supported.
func NewEmail(raw string) Email {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return invalid(raw, "empty address")
	}
	if !utf8.ValidString(raw) {
		return invalid(raw, "address is not valid UTF-8")
	}
	for _, r := range raw {
		if unicode.IsControl(r) {
			return invalid(raw, "address contains control character")
		}
	}

	atIdx := strings.LastIndex(raw, "@")
	switch {
	case atIdx < 0:
		return invalid(raw, "missing @")
	case atIdx == 0:
		return invalid(raw, "local part is empty")
	case atIdx == len(raw)-1:
		return invalid(raw, "domain is empty")
	}

	local := raw[:atIdx]
	domain := raw[atIdx+1:]
	quoted := len(local) >= 2 && strings.HasPrefix(local, `"`) && strings.HasSuffix(local, `"`)

	if !quoted && strings.Contains(local, "@") {
		return invalid(raw, "address contains more than one @")
	}

	// Quoted-string syntax (escapes, balanced quotes) is left to net/mail.
	// Dot-atom local parts get precise messages from the rule checks.
	if quoted {
		if _, err := mail.ParseAddress("<" + local + "@" + asciiPlaceholder(domain) + ">"); err != nil {
			return invalid(raw, "malformed quoted local part")
		}
	}

	asciiDomain, unicodeDomain, ok := convertDomain(strings.ToLower(domain))
	if !ok {
		return invalid(raw, "domain is not a valid internationalized name")
	}

	return Email{
		Raw:           raw,
		Local:         local,
		Domain:        asciiDomain,
		DomainUnicode: unicodeDomain,
		Quoted:        quoted,
		Valid:         true,
	}
}

func invalid(raw, problem string) Email {
	return Email{Raw: raw, Valid: false, Problem: problem}
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// asciiPlaceholder lets net/mail judge only the local part: domains with
// Unicode labels are replaced by a neutral ASCII domain.
func asciiPlaceholder(domain string) string {
	if isASCII(domain) && domain != "" {
		return domain
	}
	return "example.invalid"
}

// convertDomain converts a domain to both ASCII/Punycode and Unicode forms.
// Returns (ascii, unicode, ok). ok is false if the domain contains
// non-ASCII characters that fail IDNA2008 validation.
func convertDomain(domain string) (ascii, unicode string, ok bool) {
	// IP literals are passed through untouched
	if strings.HasPrefix(domain, "[") && strings.HasSuffix(domain, "]") {
		return domain, domain, true
	}

	if !isASCII(domain) {
		a, err := idna.Lookup.ToASCII(domain)
		if err != nil {
			return "", "", false
		}
		return a, domain, true
	}

	// Pure ASCII domain: try to get Unicode display form
	// (handles existing Punycode like xn--mnchen-3ya.de -> münchen.de)
	u, err := idna.Display.ToUnicode(domain)
	if err != nil {
		u = domain
	}
	return domain, u, true
}
