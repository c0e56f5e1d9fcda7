package cli

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"addresswatch/internal/registry"

	"github.com/urfave/cli/v3"
)

// parseUserID converts the --user flag value into a user identifier.
func parseUserID(raw string) (int64, error) {
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid user id %q: %w", raw, err)
	}
	return userID, nil
}

// startWatchingAddressCommand returns a CLI command that registers an
// address for monitoring on behalf of a user.
//
// Usage example:
//
//	addresswatch watch --user 12345 --address 0xABC123...
func startWatchingAddressCommand(rs registry.Service) *cli.Command {
	return &cli.Command{
		Name:        "watch",
		Description: "Register an address to be monitored on behalf of a user.",
		Usage:       "Registers an address for watching. Must provide both user and address.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Identifier of the user receiving notifications",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Account address to start watching",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "label",
				Usage: "Optional display name for the address",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			userID, err := parseUserID(c.String("user"))
			if err != nil {
				return err
			}

			return rs.StartWatching(ctx, userID, c.String("address"), c.String("label"))
		},
	}
}

// stopWatchingAddressCommand returns a CLI command that removes an
// address from a user's watches.
//
// Usage example:
//
//	addresswatch unwatch --user 12345 --address 0xABC123...
func stopWatchingAddressCommand(rs registry.Service) *cli.Command {
	return &cli.Command{
		Name:        "unwatch",
		Description: "Unregister an address from a user's watches.",
		Usage:       "Stops watching an address. Must provide both user and address.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Identifier of the user",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "address",
				Usage:    "Account address to stop watching",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			userID, err := parseUserID(c.String("user"))
			if err != nil {
				return err
			}

			return rs.StopWatching(ctx, userID, c.String("address"))
		},
	}
}

// listAddressesCommand returns a CLI command that prints every address a
// user currently watches.
//
// Usage example:
//
//	addresswatch addresses --user 12345
func listAddressesCommand(rs registry.Service) *cli.Command {
	return &cli.Command{
		Name:        "addresses",
		Description: "List every address a user currently watches.",
		Usage:       "Prints the user's watched addresses, one per line.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Identifier of the user",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			userID, err := parseUserID(c.String("user"))
			if err != nil {
				return err
			}

			entries, err := rs.ListAddresses(ctx, userID)
			if err != nil {
				return err
			}

			for _, entry := range entries {
				if entry.Label != "" {
					fmt.Printf("%s (%s)\n", entry.Address, entry.Label)
					continue
				}
				fmt.Println(entry.Address)
			}
			return nil
		},
	}
}

// setIntervalCommand returns a CLI command that sets a user's scan
// interval in seconds.
//
// Usage example:
//
//	addresswatch interval --user 12345 --seconds 300
func setIntervalCommand(rs registry.Service) *cli.Command {
	return &cli.Command{
		Name:        "interval",
		Description: "Set how often a user's watched addresses are scanned.",
		Usage:       "Stores the user's scan interval. Must be between 10 seconds and 24 hours.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "Identifier of the user",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "seconds",
				Usage:    "Scan interval in seconds",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			userID, err := parseUserID(c.String("user"))
			if err != nil {
				return err
			}

			seconds, err := strconv.ParseInt(c.String("seconds"), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid interval %q: %w", c.String("seconds"), err)
			}

			return rs.SetScanInterval(ctx, userID, time.Duration(seconds)*time.Second)
		},
	}
}
