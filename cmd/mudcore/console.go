package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/udisondev/mudcore/internal/command"
	"github.com/udisondev/mudcore/internal/model"
)

const prompt = "> "

// runConsole feeds lines from in to the dispatcher as player until EOF
// or ctx is cancelled.
func runConsole(ctx context.Context, in io.Reader, out io.Writer, d *command.Dispatcher, player *model.Player) error {
	var mu sync.Mutex
	write := func(s string) {
		mu.Lock()
		defer mu.Unlock()
		fmt.Fprintln(out, s)
	}
	player.SetOutput(write)
	for _, msg := range player.DrainMessages() {
		write(msg)
	}

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	d.Dispatch(ctx, player, "look")
	fmt.Fprint(out, prompt)
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				slog.Info("console closed")
				select {
				case err := <-readErr:
					if err != nil {
						return fmt.Errorf("reading console: %w", err)
					}
				default:
				}
				return nil
			}
			if line == "quit" {
				write("Goodbye.")
				return nil
			}
			res := d.Dispatch(ctx, player, line)
			if !res.OK() && res.Message != "" {
				write(res.Message)
			}
			slog.Debug("command dispatched",
				"command", res.Command,
				"status", res.Status,
				"duration", res.Duration)
			mu.Lock()
			fmt.Fprint(out, prompt)
			mu.Unlock()
		}
	}
}
