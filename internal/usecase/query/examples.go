package query

// DefaultExampleQueries are suggested questions shown to API clients.
var DefaultExampleQueries = []string{
	"Is metformin covered for Gold PPO plans?",
	"What are the CMS prior authorization requirements?",
	"Which cardiologists are in network?",
	"What drugs require step therapy?",
	"What are the telehealth coverage rules for 2025?",
}
