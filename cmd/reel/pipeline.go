package main

import (
	"context"
	"errors"
	"time"

	"github.com/mkowalski/newsreel/internal/aggregate"
	"github.com/mkowalski/newsreel/internal/config"
	"github.com/mkowalski/newsreel/internal/dedup"
	"github.com/mkowalski/newsreel/internal/llm"
	"github.com/mkowalski/newsreel/internal/logging"
	"github.com/mkowalski/newsreel/internal/news"
	"github.com/mkowalski/newsreel/internal/script"
	"github.com/mkowalski/newsreel/internal/store"
)

// providerSpacing is the client-side gap between provider calls. Keeps
// burst retries under free-tier rate limits.
const providerSpacing = 750 * time.Millisecond

// pipeline wires every stage one reel process needs.
type pipeline struct {
	cfg      config.Config
	index    dedup.Index
	store    *store.Store
	coord    *aggregate.Coordinator
	agg      *aggregate.Aggregator
	builder  *script.Builder
	primary  llm.Provider
	fallback llm.Provider
}

func newPipeline(ctx context.Context, cfg config.Config) *pipeline {
	primary, fallback := buildProviders(cfg)
	index := openIndex(ctx, cfg)

	return &pipeline{
		cfg:   cfg,
		index: index,
		store: openStore(cfg),
		coord: aggregate.NewCoordinator(
			buildSources(cfg),
			time.Duration(cfg.News.FetchTimeout)*time.Second,
			cfg.News.MaxConcurrentFetches,
		),
		agg:      aggregate.New(index, news.DefaultFilter(), cfg.News.MaxAge(), cfg.News.MaxStories),
		builder:  script.NewBuilder(cfg),
		primary:  primary,
		fallback: fallback,
	}
}

// newScriptPipeline wires only the generation half; used by 'reel script'
// where aggregation already happened.
func newScriptPipeline(cfg config.Config) *pipeline {
	primary, fallback := buildProviders(cfg)
	return &pipeline{
		cfg:      cfg,
		store:    openStore(cfg),
		builder:  script.NewBuilder(cfg),
		primary:  primary,
		fallback: fallback,
	}
}

func (p *pipeline) Close() {
	if p.index != nil {
		if err := p.index.Close(); err != nil {
			logging.Warn("Index close failed", "error", err)
		}
	}
	if err := p.store.Close(); err != nil {
		logging.Warn("Store close failed", "error", err)
	}
}

func (p *pipeline) options(plan script.Plan) llm.Options {
	return llm.Options{
		MaxRetries:      p.cfg.Providers.MaxRetries,
		RequestTimeout:  p.cfg.Providers.Timeout(),
		Streaming:       p.cfg.Providers.Streaming,
		RequestInterval: providerSpacing,
		DebugMode:       p.cfg.Providers.DebugMode,
		Validate:        plan.ValidateResponse,
	}
}

// runCounts carries aggregation counters into the run record.
type runCounts struct {
	startedAt  time.Time
	fetched    int
	duplicates int
}

// cycle runs fetch, aggregate, generate, persist once. The returned id is
// the stored script's row id. script.ErrEmptySelection means the cycle
// found nothing new to narrate; the run record still lands.
func (p *pipeline) cycle(ctx context.Context) (script.Record, int64, error) {
	started := time.Now()

	raw := p.coord.FetchAll(ctx)
	sel, err := p.agg.Aggregate(ctx, raw, time.Now())
	if err != nil {
		return script.Record{}, 0, err
	}

	return p.generate(ctx, sel.Items, runCounts{
		startedAt:  started,
		fetched:    sel.Fetched,
		duplicates: sel.Duplicates,
	})
}

// generate builds the request for items, drives the provider chain, and
// persists the script, its JSON artifact, and the run record.
func (p *pipeline) generate(ctx context.Context, items []news.Item, counts runCounts) (script.Record, int64, error) {
	req, plan, err := p.builder.Build(items)
	if err != nil {
		if errors.Is(err, script.ErrEmptySelection) {
			p.saveRun(store.RunRecord{
				StartedAt:  counts.startedAt,
				Fetched:    counts.fetched,
				Duplicates: counts.duplicates,
				Status:     store.RunEmpty,
			})
		}
		return script.Record{}, 0, err
	}

	orch := llm.NewOrchestrator(p.primary, p.fallback, p.options(plan))
	res, err := orch.Generate(ctx, req)
	if err != nil {
		p.dumpAttempts(res)
		p.saveRun(store.RunRecord{
			StartedAt:  counts.startedAt,
			Fetched:    counts.fetched,
			Selected:   len(items),
			Duplicates: counts.duplicates,
			Status:     store.RunFailed,
			Error:      err.Error(),
		})
		return script.Record{}, 0, err
	}
	if res.Degraded {
		p.dumpAttempts(res)
	}

	rec, err := script.Assemble(res, plan, items, p.cfg, time.Now())
	if err != nil {
		p.saveRun(store.RunRecord{
			StartedAt:  counts.startedAt,
			Fetched:    counts.fetched,
			Selected:   len(items),
			Duplicates: counts.duplicates,
			Status:     store.RunFailed,
			Error:      err.Error(),
		})
		return script.Record{}, 0, err
	}

	id, err := p.store.SaveScript(rec)
	if err != nil {
		logging.Error("Script save failed", "error", err)
	}
	if path, err := writeScriptJSON(p.cfg.Store.ScriptsDir, id, rec); err != nil {
		logging.Warn("Script artifact write failed", "error", err)
	} else {
		logging.Info("Script artifact written", "path", path)
	}

	p.saveRun(store.RunRecord{
		StartedAt:  counts.startedAt,
		Fetched:    counts.fetched,
		Selected:   len(items),
		Duplicates: counts.duplicates,
		ScriptID:   id,
		Status:     store.RunOK,
	})
	return rec, id, nil
}

// dumpAttempts writes the per-attempt record when debug mode is on.
func (p *pipeline) dumpAttempts(res llm.Result) {
	if !p.cfg.Providers.DebugMode || len(res.Attempts) == 0 {
		return
	}
	path, err := writeDebugAttempts(p.cfg.Store.ScriptsDir, res.Attempts)
	if err != nil {
		logging.Warn("Attempt dump failed", "error", err)
		return
	}
	logging.Info("Attempt dump written", "path", path, "attempts", len(res.Attempts))
}

func (p *pipeline) saveRun(run store.RunRecord) {
	if _, err := p.store.SaveRun(run); err != nil {
		logging.Warn("Run record save failed", "error", err)
	}
}
