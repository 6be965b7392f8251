package taxonomy

// Source describes one upstream data feed of the corpus.
type Source struct {
	ID             string
	Name           string
	Domain         Tag
	SourceType     SourceType
	Classification Classification
	Path           string
	Format         string
}

// Sources returns the static catalog of corpus feeds, one per domain.
// Each source's type follows its path and its classification follows its domain.
func Sources() []Source {
	defs := []struct {
		id, name string
		domain   Tag
		path     string
		format   string
	}{
		{"member_eligibility", "Member Eligibility", Eligibility, "internal/member_eligibility.csv", "csv"},
		{"claims_history", "Claims History", Claims, "internal/claims_history.json", "json"},
		{"benefits_summary", "Benefits Summary", Benefits, "internal/benefits_summary.csv", "csv"},
		{"cms_policy_updates", "CMS Policy Updates", Compliance, "external/cms_policy_updates.xml", "xml"},
		{"fda_drug_database", "FDA Drug Database", Pharmacy, "external/fda_drug_database.json", "json"},
		{"provider_directory", "Provider Directory", Providers, "external/provider_directory.json", "json"},
	}
	out := make([]Source, 0, len(defs))
	for _, d := range defs {
		out = append(out, Source{
			ID:             d.id,
			Name:           d.name,
			Domain:         d.domain,
			SourceType:     SourceTypeForPath(d.path),
			Classification: ClassificationFor(d.domain),
			Path:           d.path,
			Format:         d.format,
		})
	}
	return out
}
