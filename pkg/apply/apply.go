// Package apply commits transformed configuration to a target device inside
// an exclusive edit session.
//
// The protocol is strictly ordered: lock, roll back to the committed
// baseline, merge the template, merge vlans, merge interfaces, then commit
// (or, for a dry run, compute the diff). Any failure stops the sequence. The
// candidate is rolled back whenever nothing was committed, and the session is
// unlocked on every path.
package apply

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/sirupsen/logrus"

	"github.com/newtron-network/tnmigrate/pkg/device"
	"github.com/newtron-network/tnmigrate/pkg/util"
)

// SessionState is a point in the life of an edit session.
type SessionState string

const (
	StateOpened     SessionState = "opened"
	StateRolledBack SessionState = "rolled-back-to-baseline"
	StateLoaded     SessionState = "loaded"
	StateCommitted  SessionState = "committed"
	StateAborted    SessionState = "aborted"
	StateClosed     SessionState = "closed"
)

// Load stages reported in util.ConfigLoadError.
const (
	StageRollback   = "rollback"
	StageTemplate   = "template"
	StageVlans      = "vlans"
	StageInterfaces = "interfaces"
	StageDiff       = "diff"
)

// DefaultReleaseTimeout bounds the rollback and unlock that close a session.
const DefaultReleaseTimeout = 30 * time.Second

// Request describes one apply.
type Request struct {
	Vlans      *etree.Element
	Interfaces *etree.Element

	// TemplatePath names a Jinja2 template merged before the subtrees. Empty
	// skips the template stage.
	TemplatePath string
	TemplateData map[string]any

	DryRun bool
}

// CommitResult reports how far a session progressed.
type CommitResult struct {
	Device    string
	DryRun    bool
	Committed bool
	// Diff is the candidate-vs-baseline diff, set for dry runs.
	Diff string
	// States lists every state the session passed through, in order.
	States []SessionState
}

// State returns the latest state reached.
func (r *CommitResult) State() SessionState {
	if len(r.States) == 0 {
		return ""
	}
	return r.States[len(r.States)-1]
}

// Reached reports whether the session passed through s.
func (r *CommitResult) Reached(s SessionState) bool {
	for _, st := range r.States {
		if st == s {
			return true
		}
	}
	return false
}

// String renders the state history, e.g. "tn4-a [opened -> aborted -> closed]".
func (r *CommitResult) String() string {
	states := make([]string, len(r.States))
	for i, st := range r.States {
		states[i] = string(st)
	}
	return fmt.Sprintf("%s [%s]", r.Device, strings.Join(states, " -> "))
}

func (r *CommitResult) transition(s SessionState) {
	r.States = append(r.States, s)
}

// Applier runs the commit protocol.
type Applier struct {
	// ReleaseTimeout bounds the closing rollback and unlock. They run even
	// when the caller's context is already done.
	ReleaseTimeout time.Duration
}

// New creates an Applier with default timeouts.
func New() *Applier {
	return &Applier{ReleaseTimeout: DefaultReleaseTimeout}
}

// Apply merges req into target's candidate configuration and commits it,
// unless req.DryRun. The result is returned on failure too; its States show
// where the session stopped.
func (a *Applier) Apply(ctx context.Context, target device.Device, req Request) (*CommitResult, error) {
	res := &CommitResult{Device: target.Address(), DryRun: req.DryRun}
	log := util.WithDevice(target.Address())

	var template string
	if req.TemplatePath != "" {
		var err error
		template, err = RenderTemplate(req.TemplatePath, req.TemplateData)
		if err != nil {
			return res, &util.ConfigLoadError{Device: res.Device, Stage: StageTemplate, Err: err}
		}
	}

	sess := target.EditSession()
	res.transition(StateOpened)
	locked := false
	defer func() {
		a.release(ctx, sess, res, locked, log)
	}()

	if err := sess.Lock(ctx); err != nil {
		return res, classify(err, func(err error) error {
			return &util.LockError{Device: res.Device, Err: err}
		})
	}
	locked = true
	log.Debug("Configuration locked")

	if err := sess.RollbackToBaseline(ctx); err != nil {
		return res, loadError(res.Device, StageRollback, err)
	}
	res.transition(StateRolledBack)

	if req.TemplatePath != "" {
		if err := sess.MergeText(ctx, template, TemplateFormat(req.TemplatePath)); err != nil {
			return res, loadError(res.Device, StageTemplate, err)
		}
	}
	if req.Vlans != nil {
		if err := sess.MergeTree(ctx, req.Vlans); err != nil {
			return res, loadError(res.Device, StageVlans, err)
		}
	} else {
		log.Debug("No vlans subtree to merge")
	}
	if req.Interfaces != nil {
		if err := sess.MergeTree(ctx, req.Interfaces); err != nil {
			return res, loadError(res.Device, StageInterfaces, err)
		}
	} else {
		log.Debug("No interfaces subtree to merge")
	}
	res.transition(StateLoaded)

	if req.DryRun {
		diff, err := sess.Diff(ctx)
		if err != nil {
			return res, loadError(res.Device, StageDiff, err)
		}
		res.Diff = diff
		return res, nil
	}

	if err := sess.Commit(ctx); err != nil {
		return res, classify(err, func(err error) error {
			return &util.CommitError{Device: res.Device, Err: err}
		})
	}
	res.Committed = true
	res.transition(StateCommitted)
	log.Info("Configuration committed")
	return res, nil
}

// release discards an uncommitted candidate and unlocks. Failures are logged;
// they never replace the error that ended the session.
func (a *Applier) release(ctx context.Context, sess device.EditSession, res *CommitResult, locked bool, log *logrus.Entry) {
	timeout := a.ReleaseTimeout
	if timeout <= 0 {
		timeout = DefaultReleaseTimeout
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if !res.Committed {
		if locked {
			if err := sess.RollbackToBaseline(ctx); err != nil {
				log.Warnf("Failed to discard candidate configuration: %v", err)
			}
		}
		res.transition(StateAborted)
	}

	if err := sess.Unlock(ctx); err != nil {
		if locked {
			log.Warnf("Failed to release configuration lock: %v", err)
		} else {
			log.Debugf("Unlock without lock: %v", err)
		}
	}
	res.transition(StateClosed)
}

func loadError(dev, stage string, err error) error {
	return classify(err, func(err error) error {
		return &util.ConfigLoadError{Device: dev, Stage: stage, Err: err}
	})
}

// classify passes timeouts through unchanged and wraps everything else.
func classify(err error, wrap func(error) error) error {
	if errors.Is(err, util.ErrTimeout) {
		return err
	}
	return wrap(err)
}
