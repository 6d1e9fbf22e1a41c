package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/raoulx24/framesync/internal/frame"
)

func importAction(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return errors.New("import: missing <path>")
	}

	a, _, err := newApp(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var last string
	a.loop.Add("report", func(frame.Frame) {
		if line := a.imports.StatusLine(); line != last {
			fmt.Println(line)
			last = line
		}
		if _, ok := a.imports.LastReport(); ok {
			cancel()
		}
	})

	if !a.imports.Request(path) {
		return fmt.Errorf("import: could not start %s", path)
	}

	if err := a.loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	rep, ok := a.imports.LastReport()
	if !ok {
		// Interrupted before the job finished.
		return ctx.Err()
	}
	if rep.Failed() {
		return fmt.Errorf("import %s: %w", path, rep.Err)
	}

	fmt.Printf("imported %s as %s\n", rep.Value.Asset, rep.Value.Version.Dir)
	for _, v := range rep.Value.Pruned {
		fmt.Printf("pruned %s\n", v.Dir)
	}
	return nil
}
