//go:build e2e && unix

package main

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/creack/pty"
)

var binPath = "acejump_e2e"

// control sequences the app binds
const (
	KeyCtrlC = "\x03"
	KeyEsc   = "\x1b"
	KeyJump  = "\n" // ctrl+j
	KeySave  = "\x13"
	KeyQuit  = "q"
)

// keep the last part of the output only; redraws grow it quickly
const maxOutput = 1 << 20

var ansiRe = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]|\x1b\][^\x07]*\x07|\x1b[()][A-Za-z]|\x1b[=>]|\r`)

// TUITestFramework runs the binary on a pseudo terminal and records
// everything it draws
type TUITestFramework struct {
	t         *testing.T
	cmd       *exec.Cmd
	pty       *os.File
	workspace string

	mu  sync.Mutex
	out bytes.Buffer
}

func NewTUITest(t *testing.T) *TUITestFramework {
	return &TUITestFramework{t: t}
}

// StartApp runs the binary with args in a 40x120 terminal. HOME and the
// config dir point at the workspace so a user config never leaks in.
func (tf *TUITestFramework) StartApp(args ...string) error {
	tf.cmd = exec.Command(binPath, args...)
	tf.cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"LC_ALL=C",
		"LANG=C",
		"HOME="+tf.workspace,
		"XDG_CONFIG_HOME="+tf.workspace,
		"ACEJUMP_E2E_TEST=1",
	)

	f, err := pty.StartWithSize(tf.cmd, &pty.Winsize{Rows: 40, Cols: 120})
	if err != nil {
		return err
	}
	tf.pty = f
	go tf.record()
	return nil
}

func (tf *TUITestFramework) record() {
	chunk := make([]byte, 4096)
	for {
		n, err := tf.pty.Read(chunk)
		if n > 0 {
			tf.mu.Lock()
			tf.out.Write(chunk[:n])
			if extra := tf.out.Len() - maxOutput; extra > 0 {
				tf.out.Next(extra)
			}
			tf.mu.Unlock()
		}
		if err != nil {
			return
		}
	}
}

func (tf *TUITestFramework) SendKeys(keys string) error {
	_, err := tf.pty.Write([]byte(keys))
	return err
}

func (tf *TUITestFramework) SendCtrlC() error { return tf.SendKeys(KeyCtrlC) }
func (tf *TUITestFramework) Jump() error      { return tf.SendKeys(KeyJump) }
func (tf *TUITestFramework) Escape() error    { return tf.SendKeys(KeyEsc) }
func (tf *TUITestFramework) Quit() error      { return tf.SendKeys(KeyQuit) }

// Type sends text rune by rune so each one arrives as its own key
func (tf *TUITestFramework) Type(text string) error {
	for _, r := range text {
		if err := tf.SendKeys(string(r)); err != nil {
			return err
		}
		time.Sleep(20 * time.Millisecond)
	}
	return nil
}

// Ready waits for the marker the app prints in e2e mode
func (tf *TUITestFramework) Ready() bool {
	return tf.waitFor(5*time.Second, func() string { return tf.Snapshot() }, "__READY__")
}

// SeePlain waits for text to show up once escape sequences are stripped
func (tf *TUITestFramework) SeePlain(text string) bool {
	return tf.waitFor(3*time.Second, tf.SnapshotPlain, text)
}

func (tf *TUITestFramework) WaitForStatusMessage(message string, timeout time.Duration) bool {
	return tf.waitFor(timeout, tf.SnapshotPlain, message)
}

func (tf *TUITestFramework) waitFor(timeout time.Duration, read func() string, text string) bool {
	deadline := time.Now().Add(timeout)
	for !strings.Contains(read(), text) {
		if time.Now().After(deadline) {
			return false
		}
		time.Sleep(25 * time.Millisecond)
	}
	return true
}

// Snapshot returns the raw output recorded so far
func (tf *TUITestFramework) Snapshot() string {
	tf.mu.Lock()
	defer tf.mu.Unlock()
	return tf.out.String()
}

func (tf *TUITestFramework) SnapshotPlain() string {
	return ansiRe.ReplaceAllString(tf.Snapshot(), "")
}

// DumpTailOnFail writes the last n bytes of plain output next to the test
func (tf *TUITestFramework) DumpTailOnFail(t *testing.T, name string, n int) {
	tail := tf.SnapshotPlain()
	if len(tail) > n {
		tail = tail[len(tail)-n:]
	}
	path := filepath.Join(t.TempDir(), name+".txt")
	if err := os.WriteFile(path, []byte(tail), 0644); err != nil {
		t.Logf("could not save output: %v", err)
		return
	}
	t.Logf("output tail in %s", path)
}

// Cleanup hangs up the terminal and kills the app if it is still running
func (tf *TUITestFramework) Cleanup() {
	if tf.pty != nil {
		tf.pty.Close()
	}
	if tf.cmd != nil && tf.cmd.Process != nil {
		tf.cmd.Process.Kill()
	}
}
