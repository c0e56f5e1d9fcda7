package cli

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

type runtimeFake struct {
	startErr error
	started  bool
	closed   bool
}

func (f *runtimeFake) Start(context.Context) error {
	f.started = true
	return f.startErr
}

func (f *runtimeFake) Close() {
	f.closed = true
}

func TestRun(t *testing.T) {
	// Save original os.Args to restore after tests
	originalArgs := os.Args
	defer func() {
		os.Args = originalArgs
	}()

	t.Run("should create CLI app with correct metadata", func(t *testing.T) {
		rt := &runtimeFake{}

		os.Args = []string{"addresswatch", "--help"}

		err := Run(t.Context(), rt, newRegistryServiceFake(), &addrscanServiceFake{}, &maintenanceServiceFake{})

		assert.NoError(t, err)
	})

	t.Run("should handle start command failure", func(t *testing.T) {
		rt := &runtimeFake{startErr: assert.AnError}

		os.Args = []string{"addresswatch", "start"}

		err := Run(t.Context(), rt, newRegistryServiceFake(), &addrscanServiceFake{}, &maintenanceServiceFake{})

		assert.ErrorIs(t, err, assert.AnError)
		assert.True(t, rt.started)
		assert.False(t, rt.closed)
	})

	t.Run("should handle watch command with valid flags", func(t *testing.T) {
		rs := newRegistryServiceFake()

		os.Args = []string{"addresswatch", "watch", "--user", "42", "--address", "0x1234567890abcdef1234567890abcdef12345678"}

		err := Run(t.Context(), &runtimeFake{}, rs, &addrscanServiceFake{}, &maintenanceServiceFake{})

		assert.NoError(t, err)
		assert.Equal(t, []string{"0x1234567890abcdef1234567890abcdef12345678"}, rs.watched)
	})

	t.Run("should handle watch command with missing flags", func(t *testing.T) {
		os.Args = []string{"addresswatch", "watch"}

		err := Run(t.Context(), &runtimeFake{}, newRegistryServiceFake(), &addrscanServiceFake{}, &maintenanceServiceFake{})

		assert.Error(t, err)
	})
}
