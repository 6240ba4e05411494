package analytics

import (
	"errors"
	"testing"
)

type failingWriter struct {
	calls int
}

func (f *failingWriter) AppendChoice(string) error {
	f.calls++
	return errors.New("disk full")
}

func TestRecorderSwallowsWriterFailures(t *testing.T) {
	w := &failingWriter{}
	r := Recorder{W: w}

	// Must not panic or propagate anything.
	r.AppendChoice("nest:upgrade:2")
	if w.calls != 1 {
		t.Fatalf("expected one write attempt, got %d", w.calls)
	}
}

func TestNopAcceptsAnything(t *testing.T) {
	Nop{}.AppendChoice("whatever")
}
