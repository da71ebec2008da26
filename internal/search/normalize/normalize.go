// Package normalize turns free-text user input into a canonical search key.
package normalize

import (
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"credsearch/internal/search/models"
)

// MaxInputLength bounds the accepted input, in characters.
const MaxInputLength = 500

var domainPattern = regexp.MustCompile(`^(https?://)?(?:www\.)?[a-z0-9.-]+\.[a-z]{2,}(?:/\S*)?$`)

// Engine resolves raw input against the domain pattern and two ordered rule
// tables. It holds no mutable state and is safe for concurrent use.
type Engine struct {
	aliases []Rule
	known   []Rule
	logger  *slog.Logger
}

type Option func(*Engine)

// WithRules replaces the alias and known-domain tables.
func WithRules(aliases, known []Rule) Option {
	return func(e *Engine) {
		e.aliases = aliases
		e.known = known
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		aliases: AliasRules,
		known:   KnownDomainRules,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Normalize returns the search key for raw, or false when the input is not
// actionable.
func (e *Engine) Normalize(raw string) (models.SearchKey, bool) {
	term := strings.ToLower(strings.TrimSpace(raw))
	if term == "" {
		return "", false
	}
	if n := utf8.RuneCountInString(term); n > MaxInputLength {
		e.logger.Debug("input too long", "length", n)
		return "", false
	}

	// The domain pattern is checked first, so ".gov.br" stays a literal key
	// while ".gov" becomes "*.gov".
	if IsDomainLike(term) {
		return models.SearchKey(canonicalHost(term)), true
	}

	if ext, ok := extensionOf(term); ok {
		if ext == "" || strings.ContainsFunc(ext, unicode.IsSpace) {
			return "", false
		}
		return models.SearchKey(models.WildcardPrefix + ext), true
	}

	if r, ok := matchRules(e.aliases, term); ok {
		e.logger.Debug("alias rule matched", "term", term, "pattern", r.Pattern, "domain", r.Domain)
		return models.SearchKey(r.Domain), true
	}
	if r, ok := matchRules(e.known, term); ok {
		e.logger.Debug("known domain matched", "term", term, "pattern", r.Pattern, "domain", r.Domain)
		return models.SearchKey(r.Domain), true
	}

	if !strings.Contains(term, ".") && utf8.RuneCountInString(term) > 2 {
		guess := term + ".com"
		e.logger.Debug("guessing .com domain", "term", term, "domain", guess)
		return models.SearchKey(guess), true
	}

	return "", false
}

// IsDomainLike reports whether s looks like a domain or URL: optional scheme,
// optional "www.", label characters, a dot, a TLD of two or more letters and
// an optional path. The check is case-insensitive and rejects whitespace.
func IsDomainLike(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || strings.ContainsFunc(s, unicode.IsSpace) {
		return false
	}
	return domainPattern.MatchString(s)
}

// canonicalHost strips scheme, path and a leading "www." so that URL variants
// of one domain collapse onto a single key. "www." stays when removing it
// would leave something that is no longer a domain.
func canonicalHost(term string) string {
	host := strings.TrimPrefix(strings.TrimPrefix(term, "http://"), "https://")
	host, _, _ = strings.Cut(host, "/")
	if rest, ok := strings.CutPrefix(host, "www."); ok && IsDomainLike(rest) {
		host = rest
	}
	return host
}

// extensionOf accepts ".ext" and the already-canonical "*.ext".
func extensionOf(term string) (string, bool) {
	if ext, ok := strings.CutPrefix(term, models.WildcardPrefix); ok {
		return ext, true
	}
	return strings.CutPrefix(term, ".")
}

func containsEither(a, b string) bool {
	return strings.Contains(a, b) || strings.Contains(b, a)
}
