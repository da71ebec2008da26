package normalize

// Rule maps a lookup pattern to the canonical domain it stands for.
// Rule lists are evaluated top to bottom and the first match wins, so the
// order of the tables below is part of the resolution behavior.
type Rule struct {
	Pattern string
	Domain  string
}

// AliasRules covers institutional and government abbreviations.
var AliasRules = []Rule{
	{Pattern: "sisreg", Domain: "sisregiii.saude.gov.br"},
	{Pattern: "sisregii", Domain: "sisregiii.saude.gov.br"},
	{Pattern: "sisregiii", Domain: "sisregiii.saude.gov.br"},
	{Pattern: "datasus", Domain: "datasus.saude.gov.br"},
	{Pattern: "cnes", Domain: "cnes.datasus.gov.br"},
	{Pattern: "anvisa", Domain: "anvisa.gov.br"},
	{Pattern: "cfm", Domain: "cfm.org.br"},
	{Pattern: "sus", Domain: "sus.gov.br"},
	{Pattern: "saude", Domain: "saude.gov.br"},
	{Pattern: "receita", Domain: "receita.fazenda.gov.br"},
	{Pattern: "inss", Domain: "inss.gov.br"},
	{Pattern: "caixa", Domain: "caixa.gov.br"},
	{Pattern: "bb", Domain: "bb.com.br"},
	{Pattern: "nubank", Domain: "nubank.com.br"},
	{Pattern: "detran", Domain: "detran.gov.br"},
}

// KnownDomainRules covers popular consumer services.
var KnownDomainRules = []Rule{
	{Pattern: "facebook", Domain: "facebook.com"},
	{Pattern: "instagram", Domain: "instagram.com"},
	{Pattern: "google", Domain: "google.com"},
	{Pattern: "gmail", Domain: "gmail.com"},
	{Pattern: "netflix", Domain: "netflix.com"},
	{Pattern: "youtube", Domain: "youtube.com"},
	{Pattern: "amazon", Domain: "amazon.com"},
	{Pattern: "microsoft", Domain: "microsoft.com"},
	{Pattern: "apple", Domain: "apple.com"},
	{Pattern: "twitter", Domain: "twitter.com"},
	{Pattern: "linkedin", Domain: "linkedin.com"},
	{Pattern: "github", Domain: "github.com"},
}

// matchRules runs the exact pass over the whole table, then the containment
// pass (term contains pattern, or pattern contains term).
func matchRules(rules []Rule, term string) (Rule, bool) {
	for _, r := range rules {
		if r.Pattern == term {
			return r, true
		}
	}
	for _, r := range rules {
		if containsEither(term, r.Pattern) {
			return r, true
		}
	}
	return Rule{}, false
}
