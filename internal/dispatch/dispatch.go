// Package dispatch maps an operation kind onto the matching orchestrator
// call and walks the target list strictly in order.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/aboul/komodo-actions/internal/komodo"
)

// Kind selects which remote operation a run performs. Input validation is
// deliberately deferred to dispatch time: an unknown kind fails on the first
// target, not during resolution.
type Kind string

const (
	KindStack     Kind = "stack"
	KindProcedure Kind = "procedure"
)

// Executor submits one orchestrator execution and blocks until the resulting
// update(s) settle. *komodo.Client satisfies this.
type Executor interface {
	ExecuteAndPoll(ctx context.Context, reqType string, params any) (json.RawMessage, error)
}

type Dispatcher struct {
	exec Executor
	log  *zap.SugaredLogger
}

func New(exec Executor, log *zap.SugaredLogger) *Dispatcher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Dispatcher{exec: exec, log: log}
}

type stackParams struct {
	Stack string `json:"stack"`
}

type procedureParams struct {
	Procedure string `json:"procedure"`
}

// Dispatch invokes exactly one remote call for the target and waits for it
// to settle.
func (d *Dispatcher) Dispatch(ctx context.Context, kind Kind, target string) (json.RawMessage, error) {
	switch kind {
	case KindStack:
		d.log.Infow("deploying stack", "stack", target)
		return d.exec.ExecuteAndPoll(ctx, komodo.RequestDeployStack, stackParams{Stack: target})
	case KindProcedure:
		d.log.Infow("running procedure", "procedure", target)
		return d.exec.ExecuteAndPoll(ctx, komodo.RequestRunProcedure, procedureParams{Procedure: target})
	default:
		return nil, fmt.Errorf("unsupported kind %q (expected %q or %q)", kind, KindStack, KindProcedure)
	}
}

// Run dispatches every target sequentially in list order. The first failure
// aborts the loop; targets after it are never attempted and the results of
// the ones before it are discarded by the caller.
func (d *Dispatcher) Run(ctx context.Context, kind Kind, targets []string) ([]json.RawMessage, error) {
	payloads := make([]json.RawMessage, 0, len(targets))
	for _, target := range targets {
		payload, err := d.Dispatch(ctx, kind, target)
		if err != nil {
			return nil, err
		}
		payloads = append(payloads, payload)
	}
	return payloads, nil
}
