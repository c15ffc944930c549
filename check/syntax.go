package check

import (
	"strings"
	"unicode"

	"github.com/optimode/mxprobe/internal/parse"
	"github.com/optimode/mxprobe/types"
)

// FormatError reports why an address failed syntax validation.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return "invalid address format: " + e.Reason
}

// Parse validates raw according to RFC 5321/5322 with RFC 6531 (SMTPUTF8)
// and IDNA2008 support, and splits it into a ParsedAddress.
// The domain is lower-cased; the local part keeps its case.
// Parse performs no I/O and always returns the same answer for the same input.
func Parse(raw string) (types.ParsedAddress, error) {
	email := parse.NewEmail(raw)
	if !email.Valid {
		return types.ParsedAddress{}, &FormatError{Input: raw, Reason: email.Problem}
	}

	if reason := validateLengths(email); reason != "" {
		return types.ParsedAddress{}, &FormatError{Input: raw, Reason: reason}
	}
	if !email.Quoted {
		if reason := validateLocal(email.Local); reason != "" {
			return types.ParsedAddress{}, &FormatError{Input: raw, Reason: reason}
		}
	}
	if reason := validateDomain(email); reason != "" {
		return types.ParsedAddress{}, &FormatError{Input: raw, Reason: reason}
	}

	return types.ParsedAddress{
		Local:         email.Local,
		Domain:        email.Domain,
		DomainUnicode: email.DomainUnicode,
		Normalized:    email.Local + "@" + email.Domain,
	}, nil
}

// validateLengths enforces the RFC 5321 octet limits on the wire form.
func validateLengths(email parse.Email) string {
	if len(email.Local) > 64 {
		return "local part exceeds 64 characters"
	}
	if len(email.Domain) > 253 {
		return "domain exceeds 253 characters"
	}
	if len(email.Local)+1+len(email.Domain) > 254 {
		return "address exceeds 254 characters"
	}
	return ""
}

// validateLocal validates an unquoted local part.
// Returns error text, or "" if ok.
func validateLocal(local string) string {
	// RFC 5321 ASCII special characters (besides alphanumeric)
	const asciiSpecial = "!#$%&'*+/=?^_`{|}~-."

	for _, ch := range local {
		if ch > 127 {
			// SMTPUTF8: any non-control Unicode character
			if unicode.IsControl(ch) || unicode.IsSpace(ch) || unicode.Is(unicode.Cf, ch) {
				return "local part contains invalid character: " + string(ch)
			}
			continue
		}
		if (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9') {
			continue
		}
		if !strings.ContainsRune(asciiSpecial, ch) {
			return "local part contains invalid character: " + string(ch)
		}
	}

	if strings.HasPrefix(local, ".") || strings.HasSuffix(local, ".") {
		return "local part cannot start or end with a dot"
	}
	if strings.Contains(local, "..") {
		return "local part cannot contain consecutive dots"
	}
	return ""
}

// validateDomain validates the domain part. Label lengths are measured on
// the ASCII (Punycode) form sent on the wire; character rules use the
// Unicode form so messages show what the user typed. IDNA2008 validation
// was already done during splitting.
// Returns error text, or "" if ok.
func validateDomain(email parse.Email) string {
	if strings.HasPrefix(email.Domain, "[") {
		return "address literals are not supported"
	}

	for _, label := range strings.Split(email.Domain, ".") {
		if len(label) > 63 {
			return "domain label exceeds 63 characters"
		}
	}

	labels := strings.Split(email.DomainUnicode, ".")
	if len(labels) < 2 {
		return "domain must have at least two labels"
	}

	for _, label := range labels {
		if label == "" {
			return "domain contains empty label (consecutive dots)"
		}
		if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
			return "domain label cannot start or end with a hyphen"
		}
		for _, ch := range label {
			if !unicode.IsLetter(ch) && !unicode.IsDigit(ch) && !unicode.Is(unicode.Mn, ch) && ch != '-' {
				return "domain label contains invalid character: " + string(ch)
			}
		}
	}

	tld := labels[len(labels)-1]
	if strings.IndexFunc(tld, func(r rune) bool { return !unicode.IsDigit(r) }) < 0 {
		return "TLD cannot be all digits"
	}
	return ""
}
