// Package strategy orchestrates the call-backspread pipeline: expiry
// calendar, candidate universe, gateway fetch, per-expiry leg selection, and
// manifest construction. Instrument kind, strike ladder, and delta targets
// all arrive as parameters; earlier collectors hard-wired them per script.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/vol-trader-arslancm/BloombergData/internal/contracts"
	"github.com/vol-trader-arslancm/BloombergData/internal/expiry"
	"github.com/vol-trader-arslancm/BloombergData/internal/manifest"
	"github.com/vol-trader-arslancm/BloombergData/internal/marketdata"
	"github.com/vol-trader-arslancm/BloombergData/internal/selector"
)

// Params configures one pipeline run.
type Params struct {
	Start          time.Time
	End            time.Time
	Lookahead      time.Duration
	Legs           []selector.TargetLeg
	DeltaTolerance float64
	Strikes        []float64
	// HedgeQuantity is the signed front-month futures quantity per cycle;
	// zero disables the hedge leg.
	HedgeQuantity int
	Concurrency   int
}

// ExpiryOutcome records whether one expiry produced a complete cycle.
type ExpiryOutcome struct {
	Expiry expiry.Date `json:"expiry"`
	Found  bool        `json:"found"`
	// Reason is set when the cycle was skipped (unresolved legs).
	Reason string `json:"reason,omitempty"`
}

// Result is everything one run produced. Entries is the durable manifest:
// one entry per option leg plus, when hedging is enabled, one per hedge
// future.
type Result struct {
	RunID       string
	GeneratedAt time.Time
	Cycles      []selector.PositionCycle
	Entries     []manifest.Entry
	Outcomes    []ExpiryOutcome
}

// Found returns the number of expiries that produced a complete cycle.
func (r *Result) Found() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Found {
			n++
		}
	}
	return n
}

// Skipped returns the number of expiries discarded for unresolved legs.
func (r *Result) Skipped() int {
	return len(r.Outcomes) - r.Found()
}

// Pipeline runs the selection pipeline against an injected gateway. The
// gateway instance is explicit: there is no ambient session state.
type Pipeline struct {
	gateway marketdata.Gateway
	logger  *logrus.Logger
}

// New creates a Pipeline. A nil logger falls back to the logrus standard logger.
func New(gateway marketdata.Gateway, logger *logrus.Logger) *Pipeline {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pipeline{gateway: gateway, logger: logger}
}

// Run executes one full selection pass. Expiries are independent and are
// processed concurrently; an unresolved leg skips only its own expiry, while
// a gateway failure aborts the run. The returned Result is deterministic up
// to run metadata (RunID, GeneratedAt) for identical market data.
func (p *Pipeline) Run(ctx context.Context, params Params) (*Result, error) {
	if len(params.Legs) == 0 {
		return nil, errors.New("strategy: no legs configured")
	}
	for i, leg := range params.Legs {
		if err := leg.Validate(); err != nil {
			return nil, fmt.Errorf("strategy: leg %d: %w", i, err)
		}
	}
	if len(params.Strikes) == 0 {
		return nil, errors.New("strategy: empty strike ladder")
	}
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	expiries := expiry.Calendar(params.Start, params.End, params.Lookahead)
	futures := contracts.FutureUniverse(expiries)
	p.logger.WithFields(logrus.Fields{
		"expiries": len(expiries),
		"strikes":  len(params.Strikes),
	}).Info("starting selection pass")

	var (
		mu       sync.Mutex
		cycles   []selector.PositionCycle
		hedges   []manifest.Entry
		outcomes []ExpiryOutcome
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, exp := range expiries {
		exp := exp
		g.Go(func() error {
			cycle, err := p.selectExpiry(gctx, exp, params)
			if err != nil {
				var unresolved *selector.LegUnresolvedError
				if errors.As(err, &unresolved) {
					p.logger.WithField("expiry", exp.String()).Warn(unresolved.Error())
					mu.Lock()
					outcomes = append(outcomes, ExpiryOutcome{Expiry: exp, Reason: unresolved.Error()})
					mu.Unlock()
					return nil
				}
				return err
			}

			var hedge *manifest.Entry
			if params.HedgeQuantity != 0 {
				hedge, err = p.hedgeEntry(gctx, cycle, futures, params.HedgeQuantity)
				if err != nil {
					return err
				}
			}

			mu.Lock()
			cycles = append(cycles, cycle)
			if hedge != nil {
				hedges = append(hedges, *hedge)
			}
			outcomes = append(outcomes, ExpiryOutcome{Expiry: exp, Found: true})
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(cycles, func(i, j int) bool {
		return cycles[i].Expiry.Date.Before(cycles[j].Expiry.Date)
	})
	sort.Slice(outcomes, func(i, j int) bool {
		return outcomes[i].Expiry.Date.Before(outcomes[j].Expiry.Date)
	})

	entries, err := manifest.Build(cycles)
	if err != nil {
		return nil, err
	}
	entries = append(entries, hedges...)
	manifest.SortEntries(entries)

	result := &Result{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now().UTC(),
		Cycles:      cycles,
		Entries:     entries,
		Outcomes:    outcomes,
	}
	p.logger.WithFields(logrus.Fields{
		"found":   result.Found(),
		"skipped": result.Skipped(),
	}).Info("selection pass complete")
	return result, nil
}

// selectExpiry fetches one expiry's candidate chain and resolves its legs.
func (p *Pipeline) selectExpiry(ctx context.Context, exp expiry.Date, params Params) (selector.PositionCycle, error) {
	universe := contracts.OptionUniverse([]expiry.Date{exp}, params.Strikes)
	symbols := make([]string, len(universe))
	for i, spec := range universe {
		symbols[i] = spec.Symbol
	}

	results, err := p.gateway.BatchReferenceSnapshot(ctx, symbols, marketdata.OptionFields)
	if err != nil {
		return selector.PositionCycle{}, fmt.Errorf("expiry %s: %w", exp, err)
	}

	candidates := make([]selector.Candidate, 0, len(universe))
	for _, spec := range universe {
		res, ok := results[spec.Symbol]
		if !ok || res.NotFound {
			// Over-generated candidate that isn't listed; expected.
			continue
		}
		if res.Err != nil {
			return selector.PositionCycle{}, fmt.Errorf("expiry %s: symbol %s: %w", exp, spec.Symbol, res.Err)
		}
		candidates = append(candidates, selector.Candidate{Contract: spec, Snapshot: res.Snapshot})
	}

	return selector.Select(exp, candidates, params.Legs, params.DeltaTolerance)
}

// hedgeEntry resolves and prices the front-month futures hedge for a cycle.
func (p *Pipeline) hedgeEntry(ctx context.Context, cycle selector.PositionCycle, futures []contracts.Spec, quantity int) (*manifest.Entry, error) {
	front, ok := contracts.FrontMonth(futures, cycle.EntryDate)
	if !ok {
		return nil, fmt.Errorf("expiry %s: no front-month future after entry %s",
			cycle.Expiry, cycle.EntryDate.Format("2006-01-02"))
	}

	results, err := p.gateway.BatchReferenceSnapshot(ctx, []string{front.Symbol}, marketdata.FutureFields)
	if err != nil {
		return nil, fmt.Errorf("hedge %s: %w", front.Symbol, err)
	}
	res := results[front.Symbol]
	if res.NotFound {
		return nil, fmt.Errorf("hedge %s: security not found", front.Symbol)
	}
	if res.Err != nil {
		return nil, fmt.Errorf("hedge %s: %w", front.Symbol, res.Err)
	}

	entry, err := manifest.BuildHedge(cycle, front, res.Snapshot, quantity)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}
