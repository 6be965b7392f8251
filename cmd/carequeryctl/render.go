package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/kailas-cloud/carequery/internal/domain/answer"
	"github.com/kailas-cloud/carequery/internal/domain/batch"
	"github.com/kailas-cloud/carequery/pkg/client"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	labelColor  = color.New(color.Bold)
	dimColor    = color.New(color.Faint)
	okColor     = color.New(color.FgGreen)
	warnColor   = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed, color.Bold)
)

// maxReportedFailures bounds the per-record lines in the load summary.
const maxReportedFailures = 20

type sourceView struct {
	ID     string
	Domain string
	Source string
	Score  float64
}

type answerView struct {
	Question string
	Answer   string
	Sources  []sourceView
	Domains  []string
	Seconds  float64
}

func viewFromResult(r answer.Result, seconds float64) answerView {
	v := answerView{Question: r.Question(), Answer: r.Answer(), Seconds: seconds}
	for _, m := range r.Sources() {
		doc := m.Document()
		v.Sources = append(v.Sources, sourceView{
			ID: doc.ID(), Domain: string(doc.Domain()), Source: doc.SourceSystem(), Score: m.Score(),
		})
	}
	for _, t := range r.DomainsSearched() {
		v.Domains = append(v.Domains, string(t))
	}
	return v
}

func viewFromResponse(r client.QueryResponse) answerView {
	v := answerView{Question: r.Question, Answer: r.Answer, Domains: r.DomainsSearched, Seconds: r.QueryTimeSeconds}
	for _, s := range r.Sources {
		v.Sources = append(v.Sources, sourceView{ID: s.ID, Domain: s.Domain, Source: s.Source, Score: s.Score})
	}
	return v
}

func renderAnswer(w io.Writer, v answerView) {
	headerColor.Fprintln(w, "Question")
	fmt.Fprintf(w, "  %s\n\n", v.Question)

	headerColor.Fprintln(w, "Answer")
	for _, line := range strings.Split(strings.TrimSpace(v.Answer), "\n") {
		fmt.Fprintf(w, "  %s\n", line)
	}
	fmt.Fprintln(w)

	headerColor.Fprintf(w, "Sources (%d)\n", len(v.Sources))
	if len(v.Sources) == 0 {
		dimColor.Fprintln(w, "  none")
	}
	for i, s := range v.Sources {
		labelColor.Fprintf(w, "  [%d] ", i+1)
		fmt.Fprintf(w, "%s ", s.Source)
		dimColor.Fprintf(w, "(%s, %s, score %.3f)\n", s.ID, s.Domain, s.Score)
	}
	fmt.Fprintln(w)

	domains := "all"
	if len(v.Domains) > 0 {
		domains = strings.Join(v.Domains, ", ")
	}
	labelColor.Fprint(w, "Domains searched: ")
	fmt.Fprintln(w, domains)
	labelColor.Fprint(w, "Time: ")
	fmt.Fprintf(w, "%.3fs\n", v.Seconds)
}

func renderLoadSummary(w io.Writer, path string, results []batch.Result) {
	summary := batch.Summarize(results)

	headerColor.Fprintf(w, "Loaded %s\n", path)
	okColor.Fprintf(w, "  ok       %d\n", summary[batch.StatusOK])
	warnColor.Fprintf(w, "  skipped  %d\n", summary[batch.StatusSkipped])
	errorColor.Fprintf(w, "  errors   %d\n", summary[batch.StatusError])

	var failed []batch.Result
	for _, r := range results {
		if r.Status() != batch.StatusOK {
			failed = append(failed, r)
		}
	}
	sort.SliceStable(failed, func(i, j int) bool { return failed[i].Status() < failed[j].Status() })
	for i, r := range failed {
		if i == maxReportedFailures {
			dimColor.Fprintf(w, "  ... %d more\n", len(failed)-maxReportedFailures)
			break
		}
		c := warnColor
		if r.Status() == batch.StatusError {
			c = errorColor
		}
		c.Fprintf(w, "  %-7s ", r.Status())
		fmt.Fprintf(w, "%s: %v\n", r.ID(), r.Err())
	}
}

type statsView struct {
	Driver    string
	Index     string
	Dimension int
	Count     int64
}

func renderStats(w io.Writer, s statsView) {
	headerColor.Fprintln(w, "Corpus index")
	labelColor.Fprint(w, "  driver     ")
	fmt.Fprintln(w, s.Driver)
	labelColor.Fprint(w, "  index      ")
	fmt.Fprintln(w, s.Index)
	labelColor.Fprint(w, "  dimension  ")
	fmt.Fprintln(w, s.Dimension)
	labelColor.Fprint(w, "  documents  ")
	fmt.Fprintln(w, s.Count)
}
