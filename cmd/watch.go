package main

import (
	"context"
	"errors"
	"sync"

	"github.com/desertthunder/subctl/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Watch prints every status line the server pushes until interrupted or the connection is
// lost for good.
func (r *Runner) Watch(ctx context.Context, cmd *cli.Command) error {
	session := r.newSession()
	r.logger.Info("watching", "url", r.config.BaseURL(), "session", session.ID())
	r.writePlainHeader("Watching " + r.config.BaseURL())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return r.newSupervisor().Run(gctx, session)
	})
	g.Go(func() error {
		r.follow(gctx, session, nil)
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// follow prints new session lines until ctx ends. ready, when set, is closed once the stream connects.
func (r *Runner) follow(ctx context.Context, session *tasks.Session, ready chan<- struct{}) {
	var seq uint64
	var once sync.Once
	var progress string

	for {
		seq = r.printSince(session, seq)

		view := session.Snapshot()
		if ready != nil && view.Connected {
			once.Do(func() { close(ready) })
		}
		if p := view.Progress; p.Visible && p.Label != progress {
			progress = p.Label
			r.writePlain("Progress: %s\n", progress)
		}

		select {
		case <-ctx.Done():
			r.printSince(session, seq)
			return
		case <-session.Changes():
		}
	}
}
