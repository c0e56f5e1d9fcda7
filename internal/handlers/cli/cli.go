package cli

import (
	"context"
	"os"

	"addresswatch/internal/addrscan"
	"addresswatch/internal/maintenance"
	"addresswatch/internal/registry"

	"github.com/urfave/cli/v3"
)

// Runtime is the long-running part of the application: the scheduler that
// drives scan cycles, notification dispatch, and housekeeping.
type Runtime interface {
	Start(ctx context.Context) error
	Close()
}

// Run initializes and executes the addresswatch CLI application.
//
// It registers all available commands, including:
//
//   - `start`: Runs the monitoring loop until interrupted.
//   - `watch` / `unwatch`: Manage which addresses a user watches.
//   - `addresses`: List a user's watched addresses.
//   - `interval`: Set a user's scan interval.
//   - `scan`: Force an immediate scan of one address.
//   - `purge`: Remove data older than a retention period.
//
// Parameters:
//   - ctx: Context used to control the lifecycle of the CLI application.
//   - rt: The runtime started by the monitor command.
//   - rs: The registry service used by watch management commands.
//   - as: The scan service used by the scan command.
//   - ms: The maintenance service used by the purge command.
func Run(ctx context.Context, rt Runtime, rs registry.Service, as addrscan.Service, ms maintenance.Service) error {
	app := &cli.Command{
		EnableShellCompletion: true,
		Name:                  "addresswatch",
		Description:           "Command-line interface for managing and running the address monitor.",
		Usage:                 "addresswatch [command] [flags]",
		Commands: []*cli.Command{
			startMonitorCommand(rt),
			startWatchingAddressCommand(rs),
			stopWatchingAddressCommand(rs),
			listAddressesCommand(rs),
			setIntervalCommand(rs),
			forceScanCommand(as),
			purgeCommand(ms),
		},
	}

	return app.Run(ctx, os.Args)
}
