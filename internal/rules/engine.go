package rules

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/fintaar/crossrail/internal/domain"
)

// ruleSet is one immutable generation of the loaded rules.
type ruleSet struct {
	rules []Rule
}

// Engine owns the rule set. Loads and management writes swap the set
// atomically; evaluation reads whichever generation is current at the
// start of the request and stays on it.
type Engine struct {
	mu    sync.Mutex // serialises load and management writes
	files map[RuleType]string
	set   atomic.Pointer[ruleSet]
}

// NewEngine builds an engine over one JSON file per rule type. Missing
// files load as empty sets.
func NewEngine(providerFile, marginFile string) (*Engine, error) {
	e := &Engine{files: map[RuleType]string{
		TypeProviderSelection: providerFile,
		TypeMarginAdjustment:  marginFile,
	}}
	if err := e.Load(); err != nil {
		return nil, err
	}
	return e, nil
}

// Load re-reads every rule file and swaps the combined set in
// atomically. A structurally invalid rule is skipped and logged; a
// malformed file fails the load and the previous set stays in place.
func (e *Engine) Load() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var all []Rule
	for typ, path := range e.files {
		if path == "" {
			continue
		}
		rules, err := loadFile(path, typ)
		if err != nil {
			return err
		}
		all = append(all, rules...)
	}
	e.store(all)
	log.Info().Int("rules", len(all)).Msg("rule set loaded")
	return nil
}

func loadFile(path string, typ RuleType) ([]Rule, error) {
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var rules []Rule
	if err := json.Unmarshal(raw, &rules); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	out := rules[:0]
	for _, r := range rules {
		if r.RuleType == "" {
			r.RuleType = typ
		}
		if err := r.Validate(); err != nil {
			log.Error().Str("rule", r.RuleID).Err(&domain.RuleEvaluationError{RuleID: r.RuleID, Err: err}).Msg("rule rejected at load")
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// store sorts and swaps a new generation. Callers hold e.mu.
func (e *Engine) store(rules []Rule) {
	sorted := append([]Rule(nil), rules...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Priority != sorted[j].Priority {
			return sorted[i].Priority > sorted[j].Priority
		}
		return sorted[i].RuleID < sorted[j].RuleID
	})
	e.set.Store(&ruleSet{rules: sorted})
}

// List returns the current rules, optionally filtered by type.
func (e *Engine) List(typ RuleType) []Rule {
	cur := e.set.Load()
	out := make([]Rule, 0, len(cur.rules))
	for _, r := range cur.rules {
		if typ == "" || r.RuleType == typ {
			out = append(out, r)
		}
	}
	return out
}

// Add validates and inserts a rule.
func (e *Engine) Add(r Rule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.set.Load()
	for _, existing := range cur.rules {
		if existing.RuleID == r.RuleID {
			return &domain.ReferenceDataConflictError{Table: "rules", Key: r.RuleID, Reason: "already exists"}
		}
	}
	if r.Metadata.CreatedAt.IsZero() {
		r.Metadata.CreatedAt = time.Now().UTC()
	}
	e.store(append(append([]Rule(nil), cur.rules...), r))
	log.Info().Str("rule", r.RuleID).Str("type", string(r.RuleType)).Msg("rule added")
	return nil
}

// Delete removes a rule by id.
func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.set.Load()
	next := make([]Rule, 0, len(cur.rules))
	found := false
	for _, r := range cur.rules {
		if r.RuleID == id {
			found = true
			continue
		}
		next = append(next, r)
	}
	if !found {
		return &domain.NotFoundError{Kind: "rule", ID: id}
	}
	e.store(next)
	log.Info().Str("rule", id).Msg("rule deleted")
	return nil
}

// Toggle flips a rule's enabled flag and returns the new state.
func (e *Engine) Toggle(id string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	cur := e.set.Load()
	next := append([]Rule(nil), cur.rules...)
	for i := range next {
		if next[i].RuleID == id {
			next[i].Enabled = !next[i].Enabled
			e.store(next)
			log.Info().Str("rule", id).Bool("enabled", next[i].Enabled).Msg("rule toggled")
			return next[i].Enabled, nil
		}
	}
	return false, &domain.NotFoundError{Kind: "rule", ID: id}
}

// Matching returns the enabled, in-window rules of the given type whose
// conditions hold for ctx, ordered by priority descending (rule id
// breaks ties for determinism).
func (e *Engine) Matching(typ RuleType, ctx Context, now time.Time) []Rule {
	cur := e.set.Load()
	var out []Rule
	for _, r := range cur.rules {
		if r.RuleType != typ || !r.ActiveAt(now) {
			continue
		}
		if r.matches(ctx) {
			out = append(out, r)
		}
	}
	return out
}
