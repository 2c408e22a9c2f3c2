package batch

import (
	"errors"
	"testing"
)

func TestNewOK(t *testing.T) {
	r := NewOK("3890-5-0")
	if r.ID() != "3890-5-0" {
		t.Errorf("ID() = %q", r.ID())
	}
	if r.Status() != StatusOK {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusOK)
	}
	if r.Err() != nil {
		t.Errorf("Err() = %v, want nil", r.Err())
	}
}

func TestNewError(t *testing.T) {
	err := errors.New("embedding failed")
	r := NewError("4742-2-0", err)
	if r.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", r.Status(), StatusError)
	}
	if !errors.Is(r.Err(), err) {
		t.Errorf("Err() = %v, want %v", r.Err(), err)
	}
}

func TestNewRemoved(t *testing.T) {
	r := NewRemoved("4013-2")
	if r.Status() != StatusRemoved || r.Err() != nil {
		t.Errorf("NewRemoved = %+v", r)
	}
}

func TestSummarize(t *testing.T) {
	rs := []Result{NewOK("a"), NewError("b", errors.New("x")), NewOK("c"), NewRemoved("d")}
	s := Summarize(rs)
	if s.Succeeded != 2 || s.Removed != 1 || s.Failed != 1 {
		t.Errorf("Summarize() = %+v, want {2 1 1}", s)
	}
}
