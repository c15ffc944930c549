package check

import (
	"strings"

	"github.com/optimode/mxprobe/internal/disposable"
	"github.com/optimode/mxprobe/internal/levenshtein"
	"github.com/optimode/mxprobe/types"
)

// DomainConfig is the domain hint configuration.
type DomainConfig struct {
	CheckDisposable bool
	SuggestTypos    bool
	TypoThreshold   int
}

// DomainHints are advisory annotations. They never change a verdict.
type DomainHints struct {
	Disposable bool
	Suggestion string
}

// DomainChecker flags disposable providers and likely typos of major ones.
type DomainChecker struct {
	cfg       DomainConfig
	providers []string
}

// knownProviders are the targets for typo suggestions.
var knownProviders = []string{
	"gmail.com", "googlemail.com",
	"yahoo.com", "yahoo.co.uk", "yahoo.fr", "yahoo.de",
	"outlook.com", "hotmail.com", "hotmail.co.uk", "live.com",
	"icloud.com", "me.com",
	"protonmail.com", "proton.me",
	"aol.com",
	"zoho.com",
	"yandex.com", "yandex.ru",
	"gmx.com", "gmx.net", "gmx.de",
	"fastmail.com",
	"freemail.hu", "citromail.hu",
}

func NewDomainChecker(cfg DomainConfig) *DomainChecker {
	if cfg.TypoThreshold <= 0 {
		cfg.TypoThreshold = 2
	}
	return &DomainChecker{cfg: cfg, providers: knownProviders}
}

// Hints inspects addr's domain. Typo matching uses the Unicode form.
func (c *DomainChecker) Hints(addr types.ParsedAddress) DomainHints {
	var h DomainHints
	if c.cfg.CheckDisposable {
		h.Disposable = disposable.IsDisposable(addr.Domain)
	}
	if c.cfg.SuggestTypos && !h.Disposable {
		domain := addr.DomainUnicode
		if domain == "" {
			domain = addr.Domain
		}
		if s, ok := levenshtein.Closest(strings.ToLower(domain), c.providers, c.cfg.TypoThreshold); ok {
			h.Suggestion = addr.Local + "@" + s
		}
	}
	return h
}
