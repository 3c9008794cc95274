// run.go drives one action run: resolve inputs, dispatch every target in
// order, normalize the results, and report the status mapping.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/viper"

	"github.com/aboul/komodo-actions/internal/config"
	"github.com/aboul/komodo-actions/internal/dispatch"
	"github.com/aboul/komodo-actions/internal/komodo"
	"github.com/aboul/komodo-actions/internal/logging"
	"github.com/aboul/komodo-actions/internal/report"
	"github.com/aboul/komodo-actions/internal/results"
)

// outputName is the run output consumers read the mapping from.
const outputName = "updates"

// emptyTargetsSentinel is written when the target list resolves empty. The
// dispatch loop still runs (as a no-op), so the empty mapping written after
// the loop supersedes this value; consumers see the last write win.
const emptyTargetsSentinel = "Nothing to update here"

func runAction(ctx context.Context, opts *config.Options, env *viper.Viper, stdout io.Writer) error {
	log, err := logging.New(opts.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	if err := opts.Resolve(env); err != nil {
		return err
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	sink := report.NewSink(env.GetString, stdout)

	if len(opts.Targets) == 0 {
		log.Infow("no targets matched", "patterns", opts.Patterns)
		if err := sink.SetOutput(outputName, emptyTargetsSentinel); err != nil {
			return err
		}
	}

	if opts.DryRun {
		log.Infow("dry-run: skipping dispatch", "kind", opts.Kind, "targets", len(opts.Targets))
		return sink.SetOutput(outputName, "{}")
	}

	client := komodo.NewClient(opts.URL, opts.APIKey, opts.APISecret,
		komodo.WithPollInterval(opts.PollInterval),
		komodo.WithLogger(log),
	)
	dispatcher := dispatch.New(client, log)

	payloads, err := dispatcher.Run(ctx, dispatch.Kind(opts.Kind), opts.Targets)
	if err != nil {
		return err
	}

	mapping := results.Reduce(results.Collect(payloads))
	encoded, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("encode status mapping: %w", err)
	}
	log.Infow("run complete", "targets", len(opts.Targets), "updates", mapping.Len())

	if err := sink.SetOutput(outputName, string(encoded)); err != nil {
		return err
	}
	return sink.AppendSummary(report.SummaryTable(mapping))
}
