package remap

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/Pistonight/megaton/svc"
)

// fatalSentinel is what trapFatal panics with instead of exiting, so tests
// can assert that a path is fatal.
type fatalSentinel struct{}

// trapFatal swaps in a logger whose exit panics, and restores the previous
// logger when the test ends.
func trapFatal(t *testing.T) {
	t.Helper()
	prev := logger
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.ExitFunc = func(int) { panic(fatalSentinel{}) }
	SetLogger(l)
	t.Cleanup(func() { SetLogger(prev) })
}

// resetHandle clears the cached process handle around a test that
// exercises acquisition.
func resetHandle(t *testing.T) {
	t.Helper()
	curProcHandle = svc.InvalidHandle
	t.Cleanup(func() { curProcHandle = svc.InvalidHandle })
}
