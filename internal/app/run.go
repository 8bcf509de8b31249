package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/specialistvlad/blueprintgo/internal/ctxlog"
	"github.com/specialistvlad/blueprintgo/internal/graph"
	"github.com/specialistvlad/blueprintgo/internal/hcl"
	"github.com/specialistvlad/blueprintgo/internal/livechannel"
)

// Live events printed while following an execution.
var followedEvents = []string{
	livechannel.StatusEvent,
	"execution_start",
	"execution_cached",
	"executing",
	"progress",
	"executed",
	"execution_error",
}

// errExecutionFailed is returned when the backend reports an execution error
// while following.
var errExecutionFailed = errors.New("execution failed")

type liveEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// Run executes the configured command.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.ctx = ctx
	a.logger.Debug("App.Run method started.", "command", a.config.Command)

	if err := a.healthCheckServer(); err != nil {
		return err
	}

	var err error
	switch a.config.Command {
	case CommandCatalog:
		err = a.runCatalog(ctx)
	case CommandSubmit:
		err = a.runSubmit(ctx)
	default:
		err = fmt.Errorf("unknown command %q", a.config.Command)
	}

	a.logger.Debug("App.Run method finished.", "error", err)
	return err
}

// runCatalog loads the catalog and prints it in the backend's wire form.
func (a *App) runCatalog(ctx context.Context) error {
	if err := a.editor.LoadCatalog(ctx, a.catalogs); err != nil {
		return err
	}
	cat, err := a.editor.Catalog()
	if err != nil {
		return err
	}
	return a.writeJSON(cat.Records())
}

// runSubmit loads a graph document, rebuilds it through the editor and hands
// it to the backend. With -dry-run the submission is printed instead.
func (a *App) runSubmit(ctx context.Context) error {
	if err := a.editor.LoadCatalog(ctx, a.catalogs); err != nil {
		return err
	}

	payload, err := hcl.LoadDocument(ctx, a.config.GraphFile)
	if err != nil {
		return err
	}
	if err := a.editor.Import(payload); err != nil {
		return fmt.Errorf("failed to import graph document: %w", err)
	}
	a.logger.Info("Graph document loaded.", "path", a.config.GraphFile, "nodes", len(payload.Nodes))

	if a.config.DryRun {
		a.logger.Info("Dry run, graph not submitted.")
		return a.writeJSON(graph.Submission{Graphs: []graph.Payload{a.editor.Serialize()}})
	}

	var done <-chan error
	if a.live != nil {
		done = a.followLive()
		if err := a.live.Connect(ctx); err != nil {
			return err
		}
	}

	if err := a.editor.Submit(ctx); err != nil {
		return err
	}
	if !a.config.Follow {
		return nil
	}
	return a.waitForCompletion(ctx, done)
}

// followLive prints every followed live event and returns a channel that
// receives the outcome of the execution: nil when the backend reports it
// is idle again, errExecutionFailed on an execution error.
func (a *App) followLive() <-chan error {
	done := make(chan error, 1)
	finish := func(err error) {
		select {
		case done <- err:
		default:
		}
	}

	var mu sync.Mutex
	for _, event := range followedEvents {
		event := event
		a.live.On(event, func(data any) {
			mu.Lock()
			if err := a.writeJSON(liveEvent{Event: event, Data: data}); err != nil {
				a.logger.Warn("Failed to print live event.", "event", event, "error", err)
			}
			mu.Unlock()

			switch event {
			case "executing":
				if m, ok := data.(map[string]any); ok && m["node"] == nil {
					finish(nil)
				}
			case "execution_error":
				finish(fmt.Errorf("%w: %v", errExecutionFailed, data))
			}
		})
	}
	return done
}

func (a *App) waitForCompletion(ctx context.Context, done <-chan error) error {
	a.logger.Info("Following execution.", "client_id", a.live.ClientID())

	var timeout <-chan time.Time
	if a.config.FollowTimeout > 0 {
		timer := time.NewTimer(a.config.FollowTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case err := <-done:
		if err == nil {
			a.logger.Info("Execution finished.")
		}
		return err
	case <-timeout:
		return fmt.Errorf("timed out after %s waiting for execution to finish", a.config.FollowTimeout)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *App) writeJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	b = append(b, '\n')
	_, err = a.outW.Write(b)
	return err
}
