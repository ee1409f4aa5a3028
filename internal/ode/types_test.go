package ode

import (
	"errors"
	"math"
	"testing"
)

func TestStateClone(t *testing.T) {
	s := State{1, 2, 3}
	c := s.Clone()
	c[0] = 99
	if s[0] != 1 {
		t.Error("clone aliases the original")
	}
}

func TestStateIsValid(t *testing.T) {
	if !(State{1, -2, 0}).IsValid() {
		t.Error("finite state reported invalid")
	}
	if (State{1, math.NaN()}).IsValid() {
		t.Error("NaN state reported valid")
	}
	if (State{math.Inf(1)}).IsValid() {
		t.Error("Inf state reported valid")
	}
}

func TestStateNorm(t *testing.T) {
	if got := (State{3, 4}).Norm(); got != 5 {
		t.Errorf("norm: got %v, want 5", got)
	}
}

func TestSimErrorUnwraps(t *testing.T) {
	err := &SimError{Step: 12, Time: 3.5, Wrapped: ErrStepTooSmall}
	if !errors.Is(err, ErrStepTooSmall) {
		t.Error("SimError must unwrap to its cause")
	}
}
