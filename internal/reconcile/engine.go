package reconcile

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Mainfreight/integration-jira-cloud/internal/finding"
	"github.com/Mainfreight/integration-jira-cloud/internal/tracker"
)

// Outcome is the per-finding reconciliation result.
type Outcome string

const (
	OutcomeCreated          Outcome = "created"
	OutcomeUpdated          Outcome = "updated"
	OutcomeUnchanged        Outcome = "unchanged"
	OutcomeReopened         Outcome = "reopened"
	OutcomeResolved         Outcome = "resolved"
	OutcomeSkipped          Outcome = "skipped"
	OutcomeErroredRetryable Outcome = "errored_retryable"
	OutcomeErroredFatal     Outcome = "errored_fatal"
)

// Result records what reconciliation did for one (plugin, asset) pair. Asset
// is empty for parent-level results.
type Result struct {
	PluginID string
	Asset    string
	Outcome  Outcome
	Err      error
}

// Engine matches incoming findings against tracker state, one plugin id at a
// time. It keeps a per-run working set only: parent lookups are memoized and
// every reconciled (plugin, asset) pair is remembered for the close sweep.
// The tracker remains the system of record across runs.
type Engine struct {
	trk    tracker.Tracker
	log    *zap.Logger
	policy Policy

	// createIssues false suppresses all mutations (setup/dry-run mode).
	createIssues bool

	parents map[string]*tracker.ParentIssue
	seen    map[string]map[string]bool
}

// New creates an Engine. createIssues false turns the run into a read-only
// walk: lookups still happen, but findings whose issues would need a create,
// reopen, or update are skipped, and no stale issues are closed.
func New(trk tracker.Tracker, log *zap.Logger, createIssues bool, policy Policy) *Engine {
	return &Engine{
		trk:          trk,
		log:          log,
		policy:       policy,
		createIssues: createIssues,
		parents:      make(map[string]*tracker.ParentIssue),
		seen:         make(map[string]map[string]bool),
	}
}

// Reconcile applies one finding to the tracker. It usually reports a single
// result for the (plugin, asset) pair, plus a parent-level Created result when
// the parent task was filed for the first time this run. Callers must have
// deduplicated findings by key: the engine issues exactly one create/update
// sequence per (plugin, asset).
func (e *Engine) Reconcile(ctx context.Context, f finding.Finding) []Result {
	res := Result{PluginID: f.PluginID, Asset: f.Asset}

	if e.seen[f.PluginID] == nil {
		e.seen[f.PluginID] = make(map[string]bool)
	}
	e.seen[f.PluginID][f.Asset] = true

	parent, created, err := e.parentFor(ctx, f)
	if err != nil {
		return []Result{e.errored(res, "resolving parent issue", err)}
	}
	if parent == nil {
		e.log.Info("skipping finding, issue creation disabled",
			zap.String("plugin", f.PluginID), zap.String("asset", f.Asset))
		res.Outcome = OutcomeSkipped
		return []Result{res}
	}

	var results []Result
	if created {
		results = append(results, Result{PluginID: f.PluginID, Outcome: OutcomeCreated})
	}

	if !e.createIssues {
		return append(results, e.observe(ctx, res, parent, f))
	}

	// A resolved parent that the scan reports again must come back before its
	// subtasks can.
	if parent.Status == tracker.StatusResolved {
		err := withRetry(ctx, e.policy, func() error {
			return e.trk.Transition(ctx, parent.Key, tracker.StatusOpen)
		})
		if err != nil {
			return append(results, e.errored(res, "reopening parent issue", err))
		}
		parent.Status = tracker.StatusOpen
		e.log.Info("reopened parent issue",
			zap.String("key", parent.Key), zap.String("plugin", f.PluginID))
	}

	var sub *tracker.Subtask
	err = withRetry(ctx, e.policy, func() error {
		s, err := e.trk.FindSubtask(ctx, parent, f.Asset)
		sub = s
		return err
	})
	if err != nil {
		return append(results, e.errored(res, "finding subtask", err))
	}

	switch {
	case sub == nil:
		err := withRetry(ctx, e.policy, func() error {
			s, err := e.trk.CreateSubtask(ctx, parent, f)
			sub = s
			return err
		})
		if err != nil {
			return append(results, e.errored(res, "creating subtask", err))
		}
		e.log.Info("created subtask",
			zap.String("key", sub.Key),
			zap.String("plugin", f.PluginID),
			zap.String("asset", f.Asset))
		res.Outcome = OutcomeCreated

	case sub.Status == tracker.StatusResolved:
		err := withRetry(ctx, e.policy, func() error {
			return e.trk.Transition(ctx, sub.Key, tracker.StatusOpen)
		})
		if err != nil {
			return append(results, e.errored(res, "reopening subtask", err))
		}
		// Best effort; a failed comment does not change the outcome.
		note := fmt.Sprintf("Scan reports this vulnerability on %s again.", f.Asset)
		if err := e.trk.Comment(ctx, sub.Key, note); err != nil {
			e.log.Warn("commenting on reopened subtask failed",
				zap.String("key", sub.Key), zap.Error(err))
		}
		e.log.Info("reopened subtask",
			zap.String("key", sub.Key),
			zap.String("plugin", f.PluginID),
			zap.String("asset", f.Asset))
		res.Outcome = OutcomeReopened

	case sub.Summary != f.Summary:
		err := withRetry(ctx, e.policy, func() error {
			return e.trk.UpdateSubtaskSummary(ctx, sub, f.Summary)
		})
		if err != nil {
			return append(results, e.errored(res, "updating subtask", err))
		}
		res.Outcome = OutcomeUpdated

	default:
		res.Outcome = OutcomeUnchanged
	}

	return append(results, res)
}

// observe is the read-only walk for no-create runs: it looks the subtask up
// and reports Unchanged when the issue tree is already current, Skipped when a
// writing run would have had to create, reopen, or update something.
func (e *Engine) observe(ctx context.Context, res Result, parent *tracker.ParentIssue, f finding.Finding) Result {
	var sub *tracker.Subtask
	err := withRetry(ctx, e.policy, func() error {
		s, err := e.trk.FindSubtask(ctx, parent, f.Asset)
		sub = s
		return err
	})
	if err != nil {
		return e.errored(res, "finding subtask", err)
	}

	if parent.Status == tracker.StatusOpen && sub != nil &&
		sub.Status == tracker.StatusOpen && sub.Summary == f.Summary {
		res.Outcome = OutcomeUnchanged
		return res
	}
	e.log.Info("skipping tracker change, issue creation disabled",
		zap.String("plugin", f.PluginID), zap.String("asset", f.Asset))
	res.Outcome = OutcomeSkipped
	return res
}

// parentFor returns the memoized parent issue for the finding's plugin,
// querying or creating it on first use. The bool reports that the parent was
// created by this call. A nil parent with nil error means creation is disabled
// and no issue exists. Failed lookups and creations are not memoized, so a
// later finding for the same plugin attempts them again.
func (e *Engine) parentFor(ctx context.Context, f finding.Finding) (*tracker.ParentIssue, bool, error) {
	if p, ok := e.parents[f.PluginID]; ok {
		return p, false, nil
	}

	var parent *tracker.ParentIssue
	err := withRetry(ctx, e.policy, func() error {
		p, err := e.trk.FindParent(ctx, f.PluginID)
		parent = p
		return err
	})
	if err != nil {
		return nil, false, err
	}

	created := false
	if parent == nil {
		if !e.createIssues {
			e.parents[f.PluginID] = nil
			return nil, false, nil
		}
		err := withRetry(ctx, e.policy, func() error {
			p, err := e.trk.CreateParent(ctx, f)
			parent = p
			return err
		})
		if err != nil {
			return nil, false, err
		}
		created = true
		e.log.Info("created parent issue",
			zap.String("key", parent.Key), zap.String("plugin", f.PluginID))
	}
	e.parents[f.PluginID] = parent
	return parent, created, nil
}

// CloseStale resolves open subtasks whose (plugin, asset) produced no finding
// in this run, then resolves parents left with no open subtasks. It walks
// every open parent the tracker knows about, so plugins that vanished from
// the scan entirely are closed too.
//
// The returned error is non-nil only for fatal tracker failures; retryable
// failures degrade to errored results and the sweep continues.
func (e *Engine) CloseStale(ctx context.Context) ([]Result, error) {
	if !e.createIssues {
		e.log.Info("issue creation disabled, skipping stale-issue sweep")
		return nil, nil
	}

	var results []Result

	var parents []tracker.ParentIssue
	err := withRetry(ctx, e.policy, func() error {
		ps, err := e.trk.SearchOpenParents(ctx)
		parents = ps
		return err
	})
	if err != nil {
		if tracker.Fatal(err) {
			return results, fmt.Errorf("listing open parent issues: %w", err)
		}
		e.log.Warn("listing open parent issues failed, skipping sweep", zap.Error(err))
		results = append(results, Result{Outcome: OutcomeErroredRetryable, Err: err})
		return results, nil
	}

	for i := range parents {
		p := &parents[i]

		var subs []tracker.Subtask
		err := withRetry(ctx, e.policy, func() error {
			ss, err := e.trk.ListOpenSubtasks(ctx, p)
			subs = ss
			return err
		})
		if err != nil {
			if tracker.Fatal(err) {
				return results, fmt.Errorf("listing subtasks of %s: %w", p.Key, err)
			}
			results = append(results, Result{PluginID: p.PluginID, Outcome: OutcomeErroredRetryable, Err: err})
			continue
		}

		stillOpen := 0
		for _, s := range subs {
			if e.seen[p.PluginID][s.Asset] {
				stillOpen++
				continue
			}
			err := withRetry(ctx, e.policy, func() error {
				return e.trk.Transition(ctx, s.Key, tracker.StatusResolved)
			})
			if err != nil {
				if tracker.Fatal(err) {
					return results, fmt.Errorf("resolving subtask %s: %w", s.Key, err)
				}
				results = append(results, Result{PluginID: p.PluginID, Asset: s.Asset, Outcome: OutcomeErroredRetryable, Err: err})
				stillOpen++
				continue
			}
			e.log.Info("resolved subtask, no longer reported by scan",
				zap.String("key", s.Key),
				zap.String("plugin", p.PluginID),
				zap.String("asset", s.Asset))
			results = append(results, Result{PluginID: p.PluginID, Asset: s.Asset, Outcome: OutcomeResolved})
		}

		// Parents close only once every subtask is resolved.
		if stillOpen > 0 {
			continue
		}
		err = withRetry(ctx, e.policy, func() error {
			return e.trk.Transition(ctx, p.Key, tracker.StatusResolved)
		})
		if err != nil {
			if tracker.Fatal(err) {
				return results, fmt.Errorf("resolving parent %s: %w", p.Key, err)
			}
			results = append(results, Result{PluginID: p.PluginID, Outcome: OutcomeErroredRetryable, Err: err})
			continue
		}
		e.log.Info("resolved parent issue, all subtasks resolved",
			zap.String("key", p.Key), zap.String("plugin", p.PluginID))
		results = append(results, Result{PluginID: p.PluginID, Outcome: OutcomeResolved})
	}

	return results, nil
}

func (e *Engine) errored(res Result, op string, err error) Result {
	res.Err = fmt.Errorf("%s: %w", op, err)
	if tracker.Fatal(err) {
		res.Outcome = OutcomeErroredFatal
		e.log.Error("fatal tracker failure",
			zap.String("plugin", res.PluginID),
			zap.String("asset", res.Asset),
			zap.Error(res.Err))
	} else {
		res.Outcome = OutcomeErroredRetryable
		e.log.Warn("tracker failure, continuing with remaining findings",
			zap.String("plugin", res.PluginID),
			zap.String("asset", res.Asset),
			zap.Error(res.Err))
	}
	return res
}
