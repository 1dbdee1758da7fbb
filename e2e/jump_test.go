//go:build e2e && unix

package main

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestJumpAndDeleteWordThenSave(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	_, err := tf.CreateTestWorkspace()
	require.NoError(t, err, "Failed to create test workspace")

	file, err := tf.CreateTestFile("notes.txt", "keep zebra keep\n")
	require.NoError(t, err, "Failed to create test file")

	err = tf.StartApp("-log", file+".log", file)
	require.NoError(t, err, "Failed to start app")
	require.True(t, tf.Ready(), "Should receive ready signal")
	require.True(t, tf.SeePlain("notes.txt"), "Should show the file pane")

	// ctrl+d opens a Delete Word session; "z" has one match so it commits at once
	require.NoError(t, tf.SendKeys("\x04"))
	require.True(t, tf.SeePlain("Delete Word"), "Should show the Delete Word mode")
	require.NoError(t, tf.Type("z"))

	require.NoError(t, tf.SendKeys(KeySave))
	require.True(t, tf.WaitForStatusMessage("Saved notes.txt", 3*time.Second), "Should report the save")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Equal(t, "keep  keep\n", string(data))
}

func TestJumpShowsTagsAcrossPanes(t *testing.T) {
	t.Parallel()
	tf := NewTUITest(t)
	defer tf.Cleanup()

	workspace, err := tf.CreateTestWorkspace()
	require.NoError(t, err, "Failed to create test workspace")

	_, err = tf.CreateTestFile("src/a.txt", "first pane text\n")
	require.NoError(t, err)
	_, err = tf.CreateTestFile("src/b.txt", "second pane text\n")
	require.NoError(t, err)

	// a directory argument opens every text file below it
	err = tf.StartApp("-log", workspace+"/acejump.log", workspace+"/src")
	require.NoError(t, err, "Failed to start app")
	require.True(t, tf.Ready(), "Should receive ready signal")
	require.True(t, tf.SeePlain("a.txt"), "Should show the first pane")
	require.True(t, tf.SeePlain("b.txt"), "Should show the second pane")

	require.NoError(t, tf.Jump())
	require.NoError(t, tf.Type("pan"))
	require.True(t, tf.SeePlain("query: pan"), "Should show the query")

	done := make(chan error, 1)
	go func() {
		done <- tf.cmd.Wait()
	}()

	// once the session is cancelled 'q' quits again
	require.NoError(t, tf.Escape())
	time.Sleep(200 * time.Millisecond)
	require.NoError(t, tf.Quit())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("app did not exit after escape and quit")
	}
}
