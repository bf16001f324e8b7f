package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVersionCommand(t *testing.T) {
	cmd := NewVersionCommand()

	require.NotNil(t, cmd)
	assert.Equal(t, "version", cmd.Use)
	assert.Len(t, cmd.Aliases, 1)
	assert.True(t, cmd.HasAlias("v"))
	assert.False(t, cmd.HasFlags())
	assert.Equal(t, "Show version information", cmd.Short)
	assert.False(t, cmd.HasSubCommands())
	assert.NotNil(t, cmd.Run)
	assert.Nil(t, cmd.RunE)
}

func TestVersionCommand_Output(t *testing.T) {
	cmd := NewVersionCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "redisbot dev")
	assert.Contains(t, out.String(), "  Go: go")
}
