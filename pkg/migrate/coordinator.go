// Package migrate drives device-pair migrations: connect both devices,
// transform the source configuration, snapshot, apply it to the target and
// snapshot again.
package migrate

import (
	"context"
	"os/user"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/newtron-network/tnmigrate/pkg/apply"
	"github.com/newtron-network/tnmigrate/pkg/audit"
	"github.com/newtron-network/tnmigrate/pkg/configtree"
	"github.com/newtron-network/tnmigrate/pkg/device"
	"github.com/newtron-network/tnmigrate/pkg/inventory"
	"github.com/newtron-network/tnmigrate/pkg/metrics"
	"github.com/newtron-network/tnmigrate/pkg/snapshot"
	"github.com/newtron-network/tnmigrate/pkg/tracing"
	"github.com/newtron-network/tnmigrate/pkg/transform"
	"github.com/newtron-network/tnmigrate/pkg/util"
)

// Sinks receive the three snapshots of an executed migration. A nil sink
// skips that snapshot.
type Sinks struct {
	SourcePre  snapshot.Sink // source before migration
	TargetPre  snapshot.Sink // target before migration
	TargetPost snapshot.Sink // target after commit
}

// Config configures a Coordinator.
type Config struct {
	Dialer device.Dialer

	// One set of credentials per device generation.
	SourceCreds device.Credentials
	TargetCreds device.Credentials

	Applier      *apply.Applier
	TemplatePath string
	Sinks        Sinks

	// Parallel bounds how many pairs Run migrates at once; values below 2
	// run sequentially.
	Parallel int

	Progress ProgressReporter
	Metrics  *metrics.Collector

	// User is recorded in audit events; defaults to the OS user.
	User string
}

// TemplateData is passed to the common template.
type TemplateData struct {
	SourceAddress  string
	TargetAddress  string
	SourceHostname string
	Hostname       string // target hostname
}

// Context returns the template variables: hostname, source_hostname,
// source_address and target_address.
func (d TemplateData) Context() map[string]any {
	return map[string]any{
		"hostname":        d.Hostname,
		"source_hostname": d.SourceHostname,
		"source_address":  d.SourceAddress,
		"target_address":  d.TargetAddress,
	}
}

// Coordinator runs migrations.
type Coordinator struct {
	cfg Config
}

// New creates a Coordinator.
func New(cfg Config) *Coordinator {
	if cfg.Applier == nil {
		cfg.Applier = apply.New()
	}
	if cfg.Progress == nil {
		cfg.Progress = nopProgress{}
	}
	if cfg.User == "" {
		if u, err := user.Current(); err == nil {
			cfg.User = u.Username
		}
	}
	return &Coordinator{cfg: cfg}
}

// Run migrates every pair and returns one outcome per pair, in input order.
// A failed pair never stops the others.
func (c *Coordinator) Run(ctx context.Context, pairs []inventory.Pair, dryRun bool) []*Outcome {
	start := time.Now()
	total := len(pairs)
	c.cfg.Progress.RunStart(pairs, dryRun)

	outcomes := make([]*Outcome, total)
	var g errgroup.Group
	g.SetLimit(max(1, c.cfg.Parallel))
	for i, pair := range pairs {
		g.Go(func() error {
			c.cfg.Progress.PairStart(pair, i, total)
			outcomes[i] = c.MigrateOne(ctx, pair, dryRun)
			c.cfg.Progress.PairEnd(outcomes[i], i, total)
			return nil
		})
	}
	g.Wait()

	c.cfg.Metrics.RunFinished(time.Now())
	c.cfg.Progress.RunEnd(outcomes, time.Since(start))
	return outcomes
}

// MigrateOne migrates a single pair. Connections it opens are closed before
// it returns.
func (c *Coordinator) MigrateOne(ctx context.Context, pair inventory.Pair, dryRun bool) (out *Outcome) {
	start := time.Now()
	out = &Outcome{Pair: pair, DryRun: dryRun}
	log := util.WithPair(pair.Source, pair.Target)

	ctx, span := tracing.Start(ctx, "migrate-pair",
		attribute.String("source", pair.Source),
		attribute.String("target", pair.Target),
		attribute.Bool("dry_run", dryRun))
	defer func() {
		out.Duration = time.Since(start)
		span.SetAttributes(attribute.String("status", string(out.Status)))
		tracing.End(span, out.Err)
		c.record(out)
	}()

	src, err := c.dial(ctx, pair.Source, c.cfg.SourceCreds)
	if err != nil {
		log.Warnf("Failed to connect to %s, migration aborted: %v", pair.Source, err)
		return out.fail(StageConnect, err)
	}
	defer closeDevice(src, log)

	tgt, err := c.dial(ctx, pair.Target, c.cfg.TargetCreds)
	if err != nil {
		log.Warnf("Failed to connect to %s, migration aborted: %v", pair.Target, err)
		return out.fail(StageConnect, err)
	}
	defer closeDevice(tgt, log)

	out.SourceHostname = hostname(ctx, src, log)
	out.TargetHostname = hostname(ctx, tgt, log)
	log = log.WithField("device", out.TargetHostname)

	var tree *configtree.Tree
	err = step(ctx, "fetch", func(ctx context.Context) (err error) {
		tree, err = src.GetConfig(ctx, device.FormatXML)
		return err
	})
	if err != nil {
		return out.fail(StageFetch, err)
	}

	var res *transform.Result
	err = step(ctx, "transform", func(context.Context) (err error) {
		res, err = transform.Transform(tree)
		return err
	})
	if err != nil {
		return out.fail(StageTransform, err)
	}
	out.Warnings = res.Warnings
	out.Dropped = res.Dropped
	out.Renamed = res.Renamed
	for _, w := range res.Warnings {
		log.Warn(w)
	}
	if len(res.Dropped) > 0 {
		log.Warnf("Dropped %d interface(s) with no target equivalent: %v", len(res.Dropped), res.Dropped)
	}

	if !dryRun {
		err = step(ctx, "snapshot", func(ctx context.Context) error {
			if err := takeSnapshot(ctx, src, c.cfg.Sinks.SourcePre); err != nil {
				return err
			}
			return takeSnapshot(ctx, tgt, c.cfg.Sinks.TargetPre)
		})
		if err != nil {
			return out.fail(StageSnapshot, err)
		}
	}

	err = step(ctx, "apply", func(ctx context.Context) (err error) {
		out.Commit, err = c.cfg.Applier.Apply(ctx, tgt, apply.Request{
			Vlans:        res.Vlans,
			Interfaces:   res.Interfaces,
			TemplatePath: c.cfg.TemplatePath,
			TemplateData: TemplateData{
				SourceAddress:  pair.Source,
				TargetAddress:  pair.Target,
				SourceHostname: out.SourceHostname,
				Hostname:       out.TargetHostname,
			}.Context(),
			DryRun: dryRun,
		})
		return err
	})
	if out.Commit != nil {
		out.Diff = out.Commit.Diff
	}
	if err != nil {
		return out.fail(applyStage(err), err)
	}

	if dryRun {
		out.Status = StatusDryRun
		return out
	}

	err = step(ctx, "post-snapshot", func(ctx context.Context) error {
		return takeSnapshot(ctx, tgt, c.cfg.Sinks.TargetPost)
	})
	if err != nil {
		log.Warnf("Configuration committed but the post-migration snapshot failed: %v", err)
		return out.fail(StagePostSnapshot, err)
	}

	out.Status = StatusSucceeded
	log.Info("Migration complete")
	return out
}

func (c *Coordinator) dial(ctx context.Context, address string, creds device.Credentials) (dev device.Device, err error) {
	err = step(ctx, "connect", func(ctx context.Context) (err error) {
		dev, err = c.cfg.Dialer.Dial(ctx, address, creds)
		return err
	}, attribute.String("address", address))
	return dev, err
}

// record feeds metrics and the audit log.
func (c *Coordinator) record(out *Outcome) {
	c.cfg.Metrics.ObserveMigration(metrics.Migration{
		Status:   string(out.Status),
		Stage:    out.Stage,
		Duration: out.Duration,
		Warnings: len(out.Warnings),
		Dropped:  len(out.Dropped),
		Renamed:  len(out.Renamed),
	})

	event := audit.NewEvent(c.cfg.User, audit.OpMigrate).
		WithPair(out.Pair.Source, out.Pair.Target).
		WithDevice(out.TargetHostname).
		WithStatus(string(out.Status), out.Stage).
		WithWarnings(out.Warnings).
		WithInterfaces(out.Dropped, out.RenamedNames()).
		WithDuration(out.Duration).
		WithExecuteMode(!out.DryRun)
	if out.Failed() {
		event.WithError(out.Err)
	} else {
		event.WithSuccess()
	}
	if err := audit.Log(event); err != nil {
		util.Warnf("Failed to write audit event: %v", err)
	}
}

// step runs fn inside a child span.
func step(ctx context.Context, name string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := tracing.Start(ctx, name, attrs...)
	err := fn(ctx)
	tracing.End(span, err)
	return err
}

func takeSnapshot(ctx context.Context, dev device.Device, sink snapshot.Sink) error {
	if sink == nil {
		return nil
	}
	return snapshot.Snapshot(ctx, dev, sink)
}

// hostname resolves a device's hostname for logs and templates, falling back
// to its address.
func hostname(ctx context.Context, dev device.Device, log *logrus.Entry) string {
	name, err := dev.Hostname(ctx)
	if err != nil || name == "" {
		log.Debugf("Hostname of %s unavailable, using address: %v", dev.Address(), err)
		return dev.Address()
	}
	return name
}

func closeDevice(dev device.Device, log *logrus.Entry) {
	if err := dev.Close(); err != nil {
		log.Debugf("Closing %s: %v", dev.Address(), err)
	}
}
