package migrate

import (
	"errors"
	"time"

	"github.com/newtron-network/tnmigrate/pkg/apply"
	"github.com/newtron-network/tnmigrate/pkg/inventory"
	"github.com/newtron-network/tnmigrate/pkg/transform"
	"github.com/newtron-network/tnmigrate/pkg/util"
)

// Status is the final state of one pair.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusDryRun    Status = "dry-run"
	StatusFailed    Status = "failed"
)

// Stages a pair can fail in.
const (
	StageConnect      = "connect"
	StageFetch        = "fetch"
	StageTransform    = "transform"
	StageSnapshot     = "snapshot"
	StageLock         = "lock"
	StageLoad         = "load"
	StageCommit       = "commit"
	StageApply        = "apply"
	StagePostSnapshot = "post-snapshot"
)

// Outcome reports what happened to one device pair.
type Outcome struct {
	Pair           inventory.Pair
	SourceHostname string
	TargetHostname string
	DryRun         bool

	Status Status
	Stage  string // failing stage, empty unless Status is StatusFailed
	Err    error

	Warnings []string
	Dropped  []string
	Renamed  []transform.Rename

	// Diff is the candidate diff of a dry run.
	Diff string
	// Commit is the applier's session record, nil if the pair never got
	// that far.
	Commit *apply.CommitResult

	Duration time.Duration
}

// Failed reports whether the pair failed.
func (o *Outcome) Failed() bool {
	return o.Status == StatusFailed
}

// Committed reports whether the target's configuration was changed.
func (o *Outcome) Committed() bool {
	return o.Commit != nil && o.Commit.Committed
}

// RenamedNames renders Renamed as "from -> to" strings.
func (o *Outcome) RenamedNames() []string {
	if len(o.Renamed) == 0 {
		return nil
	}
	names := make([]string, len(o.Renamed))
	for i, r := range o.Renamed {
		names[i] = r.From + " -> " + r.To
	}
	return names
}

func (o *Outcome) fail(stage string, err error) *Outcome {
	o.Status = StatusFailed
	o.Stage = stage
	o.Err = err
	return o
}

// CountFailed returns how many outcomes failed.
func CountFailed(outcomes []*Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o != nil && o.Failed() {
			n++
		}
	}
	return n
}

// applyStage maps an applier error to the step that failed.
func applyStage(err error) string {
	switch {
	case errors.Is(err, util.ErrLocked):
		return StageLock
	case errors.Is(err, util.ErrConfigLoad):
		return StageLoad
	case errors.Is(err, util.ErrCommit):
		return StageCommit
	default:
		return StageApply
	}
}
