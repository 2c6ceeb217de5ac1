package autostart

import (
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteService(t *testing.T) {
	var b strings.Builder
	require.NoError(t, writeService(&b, "/usr/local/bin/mapshare"))

	unit := b.String()
	assert.Contains(t, unit, "[Service]\n")
	assert.Contains(t, unit, "ExecStart=/usr/local/bin/mapshare serve\n")
	assert.Contains(t, unit, "WantedBy=default.target")
}

func TestForOS(t *testing.T) {
	assert.IsType(t, &LinuxAutoStarter{}, forOS("linux"))
	assert.IsType(t, &WindowsAutoStarter{}, forOS("windows"))

	as := forOS("plan9")
	assert.ErrorIs(t, as.Install("/bin/mapshare"), ErrUnsupported)
	assert.NoError(t, as.Uninstall())

	installed, err := as.IsInstalled()
	require.NoError(t, err)
	assert.False(t, installed)
}

func TestTaskQueryResult(t *testing.T) {
	installed, err := taskQueryResult(nil, nil)
	require.NoError(t, err)
	assert.True(t, installed)

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	missing := exec.Command("sh", "-c", "exit 1").Run()
	installed, err = taskQueryResult(missing, []byte("ERROR: The system cannot find the file specified."))
	require.NoError(t, err)
	assert.False(t, installed)

	denied := exec.Command("sh", "-c", "exit 5").Run()
	_, err = taskQueryResult(denied, []byte("ERROR: Access is denied."))
	assert.ErrorContains(t, err, "Access is denied")

	_, err = taskQueryResult(exec.ErrNotFound, nil)
	assert.ErrorIs(t, err, exec.ErrNotFound)
}
