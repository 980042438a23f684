package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"empack/internal/packwiz"
)

func TestPackwizRunnerRejectsEmptyCommand(t *testing.T) {
	runner := packwizRunner{metadata: packwiz.NewMetadata(t.TempDir())}
	err := runner.Run(nil)
	require.Error(t, err)
}

func TestPackwizRunnerRejectsUnknownVerb(t *testing.T) {
	runner := packwizRunner{metadata: packwiz.NewMetadata(t.TempDir())}
	err := runner.Run([]string{"bogus", "add", "id"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unrecognized")
}
