package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"
)

// startMonitorCommand returns a CLI command that starts the monitoring
// loop: periodic scan cycles, notification dispatch, and housekeeping.
//
// Usage example:
//
//	addresswatch start
//
// The process runs indefinitely until it receives an interrupt (SIGINT or SIGTERM).
func startMonitorCommand(rt Runtime) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Starts the address monitoring loop with scheduled scans and notification dispatch.",
		Usage:       "Initializes and runs the monitor. Terminates gracefully on Ctrl+C or termination signals.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			if err := rt.Start(ctx); err != nil {
				return err
			}
			defer rt.Close()

			<-quit
			return nil
		},
	}
}
