package cli

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"addresswatch/internal/registry"
)

type registryServiceFake struct {
	watched   []string
	labels    []string
	unwatched []string
	intervals map[int64]time.Duration
	entries   []registry.WatchEntry
	err       error
}

func newRegistryServiceFake() *registryServiceFake {
	return &registryServiceFake{intervals: make(map[int64]time.Duration)}
}

func (f *registryServiceFake) StartWatching(_ context.Context, _ int64, address, label string) error {
	if f.err != nil {
		return f.err
	}
	f.watched = append(f.watched, address)
	f.labels = append(f.labels, label)
	return nil
}

func (f *registryServiceFake) StopWatching(_ context.Context, _ int64, address string) error {
	if f.err != nil {
		return f.err
	}
	f.unwatched = append(f.unwatched, address)
	return nil
}

func (f *registryServiceFake) ListAddresses(context.Context, int64) ([]registry.WatchEntry, error) {
	return f.entries, f.err
}

func (f *registryServiceFake) SetScanInterval(_ context.Context, userID int64, interval time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.intervals[userID] = interval
	return nil
}

func TestStartWatchingAddressCommand(t *testing.T) {
	t.Run("should create command with correct metadata", func(t *testing.T) {
		cmd := startWatchingAddressCommand(newRegistryServiceFake())

		assert.Equal(t, "watch", cmd.Name)
		require.Len(t, cmd.Flags, 3)

		userFlag := cmd.Flags[0].(*cli.StringFlag)
		assert.Equal(t, "user", userFlag.Name)
		assert.True(t, userFlag.Required)

		addressFlag := cmd.Flags[1].(*cli.StringFlag)
		assert.Equal(t, "address", addressFlag.Name)
		assert.True(t, addressFlag.Required)

		labelFlag := cmd.Flags[2].(*cli.StringFlag)
		assert.Equal(t, "label", labelFlag.Name)
		assert.False(t, labelFlag.Required)
	})

	t.Run("should execute action successfully with valid flags", func(t *testing.T) {
		service := newRegistryServiceFake()
		app := &cli.Command{Commands: []*cli.Command{startWatchingAddressCommand(service)}}

		err := app.Run(t.Context(), []string{"test", "watch", "--user", "42", "--address", "0xabc", "--label", "savings"})

		require.NoError(t, err)
		assert.Equal(t, []string{"0xabc"}, service.watched)
		assert.Equal(t, []string{"savings"}, service.labels)
	})

	t.Run("should reject a non-numeric user", func(t *testing.T) {
		app := &cli.Command{Commands: []*cli.Command{startWatchingAddressCommand(newRegistryServiceFake())}}

		err := app.Run(t.Context(), []string{"test", "watch", "--user", "bob", "--address", "0xabc"})

		assert.ErrorContains(t, err, "invalid user id")
	})

	t.Run("should return error when service fails", func(t *testing.T) {
		service := newRegistryServiceFake()
		service.err = errors.New("service error")
		app := &cli.Command{Commands: []*cli.Command{startWatchingAddressCommand(service)}}

		err := app.Run(t.Context(), []string{"test", "watch", "--user", "42", "--address", "0xabc"})

		assert.ErrorContains(t, err, "service error")
	})

	t.Run("should fail when address flag is missing", func(t *testing.T) {
		app := &cli.Command{Commands: []*cli.Command{startWatchingAddressCommand(newRegistryServiceFake())}}

		err := app.Run(t.Context(), []string{"test", "watch", "--user", "42"})

		assert.Error(t, err)
	})
}

func TestStopWatchingAddressCommand(t *testing.T) {
	t.Run("should execute action successfully with valid flags", func(t *testing.T) {
		service := newRegistryServiceFake()
		app := &cli.Command{Commands: []*cli.Command{stopWatchingAddressCommand(service)}}

		err := app.Run(t.Context(), []string{"test", "unwatch", "--user", "42", "--address", "0xabc"})

		require.NoError(t, err)
		assert.Equal(t, []string{"0xabc"}, service.unwatched)
	})
}

func TestSetIntervalCommand(t *testing.T) {
	t.Run("should convert seconds into a duration", func(t *testing.T) {
		service := newRegistryServiceFake()
		app := &cli.Command{Commands: []*cli.Command{setIntervalCommand(service)}}

		err := app.Run(t.Context(), []string{"test", "interval", "--user", "42", "--seconds", "300"})

		require.NoError(t, err)
		assert.Equal(t, 5*time.Minute, service.intervals[42])
	})

	t.Run("should reject a non-numeric interval", func(t *testing.T) {
		app := &cli.Command{Commands: []*cli.Command{setIntervalCommand(newRegistryServiceFake())}}

		err := app.Run(t.Context(), []string{"test", "interval", "--user", "42", "--seconds", "soon"})

		assert.ErrorContains(t, err, "invalid interval")
	})
}

func TestListAddressesCommand(t *testing.T) {
	t.Run("should surface service failures", func(t *testing.T) {
		service := newRegistryServiceFake()
		service.err = errors.New("storage down")
		app := &cli.Command{Commands: []*cli.Command{listAddressesCommand(service)}}

		err := app.Run(t.Context(), []string{"test", "addresses", "--user", "42"})

		assert.ErrorContains(t, err, "storage down")
	})
}
