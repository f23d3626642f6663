// Package selector picks concrete contracts for each configured strategy leg
// by nearest delta.
package selector

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/vol-trader-arslancm/BloombergData/internal/contracts"
	"github.com/vol-trader-arslancm/BloombergData/internal/expiry"
	"github.com/vol-trader-arslancm/BloombergData/internal/marketdata"
)

// DefaultTolerance is the maximum accepted |actual delta - target delta|.
// Exactly 0.05 is accepted.
const DefaultTolerance = 0.05

// deltaEpsilon guards the exact-tolerance comparison against float64
// rounding (0.55-0.50 is slightly above 0.05 in binary).
const deltaEpsilon = 1e-9

// Role describes the side of a leg. Descriptive only: P&L math uses the
// signed Quantity, never this label.
type Role string

const (
	// RoleLong marks a bought leg.
	RoleLong Role = "LONG"
	// RoleShort marks a sold leg.
	RoleShort Role = "SHORT"
)

// TargetLeg is one configured side of the strategy, e.g. target delta 0.50
// with quantity -1 (short one 50-delta call).
type TargetLeg struct {
	TargetDelta float64 `yaml:"target_delta" json:"target_delta"`
	Quantity    int     `yaml:"quantity" json:"quantity"`
	Role        Role    `yaml:"role" json:"role"`
}

// Validate checks the leg configuration for internal consistency.
func (l TargetLeg) Validate() error {
	if l.TargetDelta <= 0 || l.TargetDelta >= 1 {
		return fmt.Errorf("target_delta must be in (0,1), got %v", l.TargetDelta)
	}
	if l.Quantity == 0 {
		return fmt.Errorf("quantity must be non-zero")
	}
	if l.Role != RoleLong && l.Role != RoleShort {
		return fmt.Errorf("role must be %s or %s, got %q", RoleLong, RoleShort, l.Role)
	}
	if l.Role == RoleLong && l.Quantity < 0 || l.Role == RoleShort && l.Quantity > 0 {
		return fmt.Errorf("role %s inconsistent with quantity %d", l.Role, l.Quantity)
	}
	return nil
}

// Candidate pairs a generated contract with its quote snapshot on the
// prospective entry date.
type Candidate struct {
	Contract contracts.Spec
	Snapshot marketdata.QuoteSnapshot
}

// Eligible reports whether the candidate can be considered at all: delta
// known and positive (calls only), traded volume (unknown counts as zero)
// positive, and a known positive mid-or-last price.
func (c Candidate) Eligible() bool {
	if !c.Snapshot.Delta.Valid || c.Snapshot.Delta.Value <= 0 {
		return false
	}
	if c.Snapshot.Volume.Or(0) <= 0 {
		return false
	}
	price := c.Snapshot.MidOrLast()
	return price.Valid && price.Value > 0
}

// SelectedPosition is one resolved leg: the contract, its entry snapshot, and
// the target it satisfies.
type SelectedPosition struct {
	Contract    contracts.Spec
	Entry       marketdata.QuoteSnapshot
	Leg         TargetLeg
	ActualDelta float64
	DeltaError  float64
	EntryPrice  float64
}

// PositionCycle is one expiry's complete strategy instance: exactly one
// SelectedPosition per configured leg. Partial cycles are never produced.
type PositionCycle struct {
	Expiry    expiry.Date
	EntryDate time.Time
	Legs      []SelectedPosition
}

// LegUnresolvedError reports which legs of an expiry could not be satisfied.
// The whole cycle is discarded; the failure is a warning, not fatal to the
// batch.
type LegUnresolvedError struct {
	Expiry expiry.Date
	Failed []TargetLeg
}

func (e *LegUnresolvedError) Error() string {
	deltas := make([]string, len(e.Failed))
	for i, leg := range e.Failed {
		deltas[i] = fmt.Sprintf("%.0fΔ", leg.TargetDelta*100)
	}
	return fmt.Sprintf("expiry %s: unresolved leg(s) %s", e.Expiry, strings.Join(deltas, ", "))
}

// Select resolves every configured leg against the candidates of one expiry,
// all quoted on the same date. Selection minimizes |delta - target| over the
// eligible candidates, breaking exact ties by the lower strike so the result
// is independent of input order. A minimal difference above tolerance fails
// the leg; any failed leg fails the whole cycle with *LegUnresolvedError.
// A non-positive tolerance means DefaultTolerance.
func Select(exp expiry.Date, candidates []Candidate, legs []TargetLeg, tolerance float64) (PositionCycle, error) {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}

	eligible := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Eligible() {
			eligible = append(eligible, c)
		}
	}
	// Stable scan order so that equal-delta ties resolve to the lower strike
	// regardless of how the gateway returned the batch.
	sort.Slice(eligible, func(i, j int) bool {
		return eligible[i].Contract.Strike < eligible[j].Contract.Strike
	})

	cycle := PositionCycle{Expiry: exp}
	var failed []TargetLeg

	for _, leg := range legs {
		best, ok := nearestDelta(eligible, leg.TargetDelta)
		if !ok || best.diff > tolerance+deltaEpsilon {
			failed = append(failed, leg)
			continue
		}
		cycle.Legs = append(cycle.Legs, SelectedPosition{
			Contract:    best.candidate.Contract,
			Entry:       best.candidate.Snapshot,
			Leg:         leg,
			ActualDelta: best.candidate.Snapshot.Delta.Value,
			DeltaError:  best.diff,
			EntryPrice:  best.candidate.Snapshot.MidOrLast().Value,
		})
		if cycle.EntryDate.IsZero() {
			cycle.EntryDate = best.candidate.Snapshot.Date
		}
	}

	if len(failed) > 0 {
		return PositionCycle{}, &LegUnresolvedError{Expiry: exp, Failed: failed}
	}
	return cycle, nil
}

type scored struct {
	candidate Candidate
	diff      float64
}

// nearestDelta assumes candidates are sorted by strike ascending; the strict
// less-than keeps the first (lowest-strike) candidate on exact ties.
func nearestDelta(candidates []Candidate, target float64) (scored, bool) {
	best := scored{diff: math.MaxFloat64}
	found := false
	for _, c := range candidates {
		diff := math.Abs(c.Snapshot.Delta.Value - target)
		if diff < best.diff {
			best = scored{candidate: c, diff: diff}
			found = true
		}
	}
	return best, found
}
