package taxonomy

import (
	"regexp"
	"strings"
)

// keywords maps each domain to the words and phrases that signal it.
var keywords = map[Tag][]string{
	Eligibility: {
		"member_id", "member id", "member", "members", "active", "inactive", "status",
		"plan_type", "plan type", "effective_date", "effective date", "enrolled", "enrollment",
		"eligible", "eligibility", "termination date",
	},
	Claims: {
		"claim_id", "claim", "claims", "cpt_code", "cpt code", "cpt", "diagnosis", "icd-10",
		"billed_amount", "billed amount", "billed", "provider_npi", "adjudication", "adjudicated",
		"denied", "denial", "paid amount",
	},
	Benefits: {
		"copay", "copays", "coinsurance", "deductible", "deductibles", "prior_auth",
		"out_of_pocket", "out of pocket", "coverage", "covered", "benefit", "benefits",
		"gold ppo", "silver hmo", "bronze epo", "platinum ppo", "telehealth",
	},
	Pharmacy: {
		"drug", "drugs", "medication", "medications", "prescription", "prescriptions",
		"formulary", "tier", "tiers", "fda", "generic", "brand name", "step therapy",
		"metformin", "insulin", "statin", "statins", "pharmacy",
	},
	Compliance: {
		"cms", "policy", "policies", "regulation", "regulations", "requirement", "requirements",
		"mandate", "mandates", "standard", "standards", "rule", "final rule", "hipaa",
		"compliance", "prior authorization",
	},
	Providers: {
		"provider", "providers", "npi", "specialty", "specialist", "specialists", "network",
		"in-network", "quality_rating", "quality rating", "accepting_patients",
		"accepting patients", "accepting", "cardiologist", "cardiologists", "doctor", "doctors",
		"physician", "physicians",
	},
}

// patterns holds one compiled whole-word, case-insensitive alternation per domain.
var patterns = compileKeywords(keywords)

func compileKeywords(table map[Tag][]string) map[Tag]*regexp.Regexp {
	out := make(map[Tag]*regexp.Regexp, len(table))
	for tag, words := range table {
		quoted := make([]string, len(words))
		for i, w := range words {
			quoted[i] = regexp.QuoteMeta(w)
		}
		out[tag] = regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}
	return out
}

// Keywords returns a copy of the keyword list for a domain.
func Keywords(t Tag) []string {
	return append([]string(nil), keywords[t]...)
}

// Scores counts keyword hits per domain. Domains without hits are absent.
func Scores(question string) map[Tag]int {
	scores := make(map[Tag]int)
	if strings.TrimSpace(question) == "" {
		return scores
	}
	for _, tag := range Tags() {
		if n := len(patterns[tag].FindAllStringIndex(question, -1)); n > 0 {
			scores[tag] = n
		}
	}
	return scores
}

// Classify maps a question to the domains with the highest keyword count.
// No hits yields an empty result. Domains tied at the maximum are all
// returned, in declaration order.
func Classify(question string) []Tag {
	scores := Scores(question)

	best := 0
	for _, n := range scores {
		best = max(best, n)
	}
	if best == 0 {
		return nil
	}

	var detected []Tag
	for _, tag := range Tags() {
		if scores[tag] == best {
			detected = append(detected, tag)
		}
	}
	return detected
}
