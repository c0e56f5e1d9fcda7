package cli

import (
	"context"
	"fmt"
	"strconv"

	"addresswatch/internal/addrscan"
	"addresswatch/internal/maintenance"

	"github.com/urfave/cli/v3"
)

// forceScanCommand returns a CLI command that scans one address
// immediately, bypassing interval gating.
//
// Usage example:
//
//	addresswatch scan --address 0xABC123...
func forceScanCommand(as addrscan.Service) *cli.Command {
	return &cli.Command{
		Name:        "scan",
		Description: "Scan one address immediately, ignoring the scan interval.",
		Usage:       "Runs a scan and prints the detected changes. Watchers are notified as usual.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Account address to scan",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			changes, err := as.ForceScan(ctx, c.String("address"))
			if err != nil {
				return err
			}

			if len(changes) == 0 {
				fmt.Println("no changes detected")
				return nil
			}

			for _, change := range changes {
				switch change.Type {
				case addrscan.ChangeTypeInitial:
					fmt.Printf("now monitoring: balance %s, %d transactions\n",
						change.NewBalance.StringFixed(4), change.TransactionCount)
				case addrscan.ChangeTypeBalance:
					fmt.Printf("balance: %s -> %s\n",
						change.OldBalance.StringFixed(4), change.NewBalance.StringFixed(4))
				case addrscan.ChangeTypeTransaction:
					fmt.Printf("transaction (%s): %s\n",
						change.Tx.Direction, change.Tx.Hash)
				}
			}
			return nil
		},
	}
}

// purgeCommand returns a CLI command that removes snapshots and sent
// notifications older than a retention period.
//
// Usage example:
//
//	addresswatch purge --days 30
func purgeCommand(ms maintenance.Service) *cli.Command {
	return &cli.Command{
		Name:        "purge",
		Description: "Remove snapshots and sent notifications older than the retention period.",
		Usage:       "Deletes aged data. Retention must be between 1 and 365 days.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "days",
				Usage:    "Retention period in days",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			days, err := strconv.Atoi(c.String("days"))
			if err != nil {
				return fmt.Errorf("invalid retention %q: %w", c.String("days"), err)
			}

			return ms.CleanupOldData(ctx, days)
		},
	}
}
