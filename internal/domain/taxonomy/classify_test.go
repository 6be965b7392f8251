package taxonomy

import (
	"slices"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     []Tag
	}{
		{"empty", "", nil},
		{"whitespace only", "   \t\n", nil},
		{"no keywords", "What is the weather like today?", nil},
		{"single pharmacy", "What drugs require step therapy?", []Tag{Pharmacy}},
		{"compliance", "What are new CMS prior authorization requirements?", []Tag{Compliance}},
		{"benefits outweighs pharmacy", "Is metformin covered for Gold PPO plans?", []Tag{Benefits}},
		{"providers", "Find cardiologists in Oakland accepting Gold PPO", []Tag{Providers}},
		{"case insensitive", "FORMULARY TIER for INSULIN", []Tag{Pharmacy}},
		{
			// member, covered and metformin each score one: all tied domains are returned.
			"tie returns all tied domains",
			"Is metformin covered for member WHP100001?",
			[]Tag{Eligibility, Benefits, Pharmacy},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.question)
			if !slices.Equal(got, tt.want) {
				t.Errorf("Classify(%q) = %v, want %v", tt.question, got, tt.want)
			}
		})
	}
}

func TestClassify_WholeWordOnly(t *testing.T) {
	// "drugstore" and "tiers2" must not count as pharmacy keywords.
	if got := Classify("drugstore hours for tiers2"); len(got) != 0 {
		t.Errorf("expected no domains for partial words, got %v", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	questions := []string{
		"Is metformin covered for member WHP100001?",
		"Are telehealth services still covered in 2025?",
		"claim denied for cpt code 99213",
	}
	for _, q := range questions {
		first := Classify(q)
		for range 20 {
			if got := Classify(q); !slices.Equal(got, first) {
				t.Fatalf("Classify(%q) not deterministic: %v vs %v", q, got, first)
			}
		}
	}
}

func TestScores(t *testing.T) {
	scores := Scores("claim denied: claim_id C-1, billed amount $200, copay $20")
	if scores[Claims] != 4 {
		t.Errorf("claims score = %d, want 4", scores[Claims])
	}
	if scores[Benefits] != 1 {
		t.Errorf("benefits score = %d, want 1", scores[Benefits])
	}
	if _, ok := scores[Pharmacy]; ok {
		t.Error("pharmacy should be absent")
	}
}

func TestKeywords_EveryTagHasEntries(t *testing.T) {
	for _, tag := range Tags() {
		if len(Keywords(tag)) == 0 {
			t.Errorf("no keywords for %s", tag)
		}
	}
}
