package store

import (
	"strings"

	"credsearch/internal/search/models"
)

// Branch names, used in logs and metric labels.
const (
	BranchExtension = "extension"
	BranchExact     = "exact"
	BranchSubdomain = "subdomain"
	BranchLabel     = "label"
	BranchGov       = "gov"
	BranchPrefix    = "prefix"
)

const (
	minLabelLength  = 4
	maxPrefixLength = 8
	govSuffix       = "gov.br"
	healthGovSuffix = "saude.gov.br"
)

// Limits caps the row count of the wide branches.
type Limits struct {
	Rows   int // extension and label branches
	Prefix int // progressive-prefix branch
	Gov    int // government-domain branch
}

var DefaultLimits = Limits{Rows: 50000, Prefix: 20000, Gov: 15000}

// MatchKind says how a pattern is compared with the lower-cased domain.
type MatchKind int

const (
	MatchEqual MatchKind = iota
	MatchLike
)

// Match is one predicate on LOWER(domain). Like patterns use SQL LIKE syntax.
type Match struct {
	Kind    MatchKind
	Pattern string
}

// Branch is one independent sub-query: the OR of its matches.
type Branch struct {
	Name          string
	Matches       []Match
	Limit         int // 0 means unlimited
	OrderByDomain bool
}

func equal(v string) Match { return Match{Kind: MatchEqual, Pattern: v} }
func like(p string) Match  { return Match{Kind: MatchLike, Pattern: p} }

// Plan lists the sub-queries for key. A wildcard key yields a single
// extension branch. A literal key always yields the exact and subdomain
// branches; the label-derived branches need a main label of at least four
// characters, and the government branch needs a gov.br key.
func Plan(key models.SearchKey, limits Limits) []Branch {
	if key.IsWildcard() {
		return []Branch{{
			Name:          BranchExtension,
			Matches:       []Match{like("%." + key.Extension())},
			Limit:         limits.Rows,
			OrderByDomain: true,
		}}
	}

	term := key.String()
	label := key.MainLabel()
	runes := []rune(label)
	longLabel := len(runes) >= minLabelLength

	plan := []Branch{
		{Name: BranchExact, Matches: []Match{equal(term)}},
		{Name: BranchSubdomain, Matches: []Match{like("%." + term)}},
	}

	if longLabel {
		plan = append(plan, Branch{
			Name:    BranchLabel,
			Matches: []Match{like("%" + label + "%")},
			Limit:   limits.Rows,
		})
	}

	if strings.Contains(term, govSuffix) || strings.Contains(term, healthGovSuffix) {
		plan = append(plan, Branch{
			Name: BranchGov,
			Matches: []Match{
				like("%" + label + "%." + govSuffix),
				like("%" + label + "%." + healthGovSuffix),
				like(label + "%." + govSuffix),
				like(label + "%." + healthGovSuffix),
			},
			Limit: limits.Gov,
		})
	}

	if longLabel {
		upper := min(len(runes), maxPrefixLength)
		matches := make([]Match, 0, upper-minLabelLength+1)
		for n := minLabelLength; n <= upper; n++ {
			matches = append(matches, like("%"+string(runes[:n])+"%"))
		}
		plan = append(plan, Branch{
			Name:    BranchPrefix,
			Matches: matches,
			Limit:   limits.Prefix,
		})
	}

	return plan
}
