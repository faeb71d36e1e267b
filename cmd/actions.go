package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/subctl/internal/formatter"
	"github.com/desertthunder/subctl/internal/shared"
	"github.com/desertthunder/subctl/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

// Scan requests a status scan and renders every result, failed paths included.
func (r *Runner) Scan(ctx context.Context, cmd *cli.Command) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	output := cmd.String("output")

	session := r.newSession()
	if err := session.BeginScan(); err != nil {
		return err
	}

	results, err := r.actions.Scan(ctx)
	session.CompleteScan(results, err)

	if err != nil || (format == formatter.FormatText && output == "") {
		r.printSince(session, 0)
		r.printNotice(session)
		return err
	}

	if output != "" {
		if err := formatter.WriteScanExport(output, format, results); err != nil {
			return err
		}
		r.logger.Info("scan exported", "path", output, "format", format)
		return r.writePlain("Scan results written to %s\n", output)
	}

	data, err := formatter.ExportScan(format, results)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// Download asks the server to start a task. With --follow it streams progress until the
// task settles and fails when the outcome is unknown.
func (r *Runner) Download(ctx context.Context, cmd *cli.Command) error {
	session := r.newSession()

	if !cmd.Bool("follow") {
		err := r.requestDownload(ctx, session)
		r.printSince(session, 0)
		r.printNotice(session)
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ready := make(chan struct{})
	phase := tasks.Idle

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := r.newSupervisor().Run(gctx, session)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		r.follow(gctx, session, ready)
		return nil
	})
	g.Go(func() error {
		defer cancel()

		select {
		case <-gctx.Done():
			return nil
		case <-ready:
		}

		if err := r.requestDownload(gctx, session); err != nil {
			return err
		}

		var err error
		phase, err = session.WaitTask(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	err := g.Wait()
	r.printNotice(session)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil && phase != tasks.Finished && phase != tasks.Error {
		return err
	}

	switch phase {
	case tasks.Finished:
		return nil
	case tasks.Error:
		return fmt.Errorf("%w: %s", shared.ErrTransport, tasks.AnnotationOutcomeUnknown)
	default:
		return fmt.Errorf("%w: download did not finish", shared.ErrServiceUnavailable)
	}
}

func (r *Runner) requestDownload(ctx context.Context, session *tasks.Session) error {
	if err := session.BeginDownload(); err != nil {
		return err
	}
	message, err := r.actions.Download(ctx)
	session.CompleteDownload(message, err)
	return err
}

// WebhookTest asks the server to send a test notification.
func (r *Runner) WebhookTest(ctx context.Context, cmd *cli.Command) error {
	session := r.newSession()
	message, err := r.actions.TestWebhook(ctx)
	session.CompleteWebhookTest(message, err)

	r.printSince(session, 0)
	r.printNotice(session)
	return err
}
