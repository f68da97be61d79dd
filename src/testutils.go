package ax25

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// CaptureStdout runs command with os.Stdout going to a pipe and gives back
// what was written.  For testing the programs under cmd/, which print
// straight to stdout.
func CaptureStdout(t *testing.T, command func()) string {
	t.Helper()

	var oldStdout = os.Stdout
	defer func() {
		os.Stdout = oldStdout
	}()

	var r, w, err = os.Pipe()
	require.NoError(t, err)

	os.Stdout = w

	// Drain as we go so a chatty command can't fill the pipe and block.
	var output = make(chan []byte, 1)
	go func() {
		var b, _ = io.ReadAll(r)
		output <- b
	}()

	command()

	w.Close() //nolint:gosec

	return string(<-output)
}

func AssertOutputContains(t *testing.T, command func(), expectedOutputContains string) {
	t.Helper()

	assert.Contains(t, CaptureStdout(t, command), expectedOutputContains)
}
