package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/kailas-cloud/carequery/internal/bootstrap"
	"github.com/kailas-cloud/carequery/internal/domain/search/request"
	"github.com/kailas-cloud/carequery/internal/events"
	"github.com/kailas-cloud/carequery/internal/usecase/query"
	"github.com/kailas-cloud/carequery/pkg/client"
)

func runLoad(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("load", flag.ContinueOnError)
	file := fs.String("file", "", "corpus file (JSON array or JSONL of {id, text, metadata})")
	workers := fs.Int("workers", 0, "embedding workers (default from config)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	path := *file
	if path == "" {
		path = e.cfg.Corpus.Path
	}
	if path == "" {
		return fmt.Errorf("-file is required: %w", errUsage)
	}
	if *workers > 0 {
		e.cfg.Corpus.Workers = *workers
	}

	embedders := bootstrap.NewEmbedders(ctx, e.cfg, e.backend.KV, e.logger)
	loader := bootstrap.NewLoader(e.cfg, e.backend, embedders, e.logger)

	results, err := bootstrap.LoadFile(ctx, loader, path)
	if err != nil {
		return err
	}
	renderLoadSummary(os.Stdout, path, results)
	return nil
}

func runAsk(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	question := fs.String("q", "", "question to ask")
	topK := fs.Int("k", 0, "number of sources to retrieve (default from config)")
	domain := fs.String("domain", "", "restrict to a domain")
	sourceType := fs.String("source-type", "", "restrict to internal or external sources")
	classification := fs.String("classification", "", "restrict to a data classification")
	remote := fs.String("remote", "", "ask a running API server at this URL instead of in-process")
	apiKey := fs.String("api-key", os.Getenv("CAREQUERY_API_KEY"), "API key for -remote")
	if err := fs.Parse(args); err != nil {
		return err
	}
	q := strings.TrimSpace(*question)
	if q == "" {
		q = strings.TrimSpace(strings.Join(fs.Args(), " "))
	}
	if q == "" {
		return fmt.Errorf("-q is required: %w", errUsage)
	}

	var k *int
	if *topK > 0 {
		k = topK
	}

	var view answerView
	if *remote != "" {
		c, err := client.New(*remote, client.WithAPIKey(*apiKey))
		if err != nil {
			return err
		}
		res, err := c.Query(ctx, client.QueryRequest{
			Question: q, TopK: k, Domain: *domain, SourceType: *sourceType, Classification: *classification,
		})
		if err != nil {
			return err
		}
		view = viewFromResponse(res)
	} else {
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		req, err := request.New(request.Params{
			Question: q, TopK: k, Domain: *domain, SourceType: *sourceType, Classification: *classification,
		}, bootstrap.Limits(e.cfg.Pipeline))
		if err != nil {
			return err
		}

		embedders := bootstrap.NewEmbedders(ctx, e.cfg, e.backend.KV, e.logger)
		completer := bootstrap.NewCompleter(ctx, e.cfg, e.backend.KV, e.logger)
		svc := bootstrap.NewQueryService(e.cfg, e.backend, embedders, completer, events.Noop{})

		res, err := svc.Execute(ctx, req)
		if err != nil {
			return err
		}
		view = viewFromResult(res, query.FormatElapsed(res.Elapsed()))
	}

	renderAnswer(os.Stdout, view)
	return nil
}

func runStats(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	e, err := openEnv(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	n, err := e.backend.Vectors.Count(ctx)
	if err != nil {
		return fmt.Errorf("count documents: %w", err)
	}
	renderStats(os.Stdout, statsView{
		Driver:    e.backend.Driver,
		Index:     e.backend.Index,
		Dimension: e.cfg.Embedding.Vectorizer.Dimensions,
		Count:     n,
	})
	return nil
}
