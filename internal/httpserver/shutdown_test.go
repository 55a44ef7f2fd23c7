package httpserver

import (
	"context"
	"errors"
	"testing"
)

func TestDrainRunsEveryStep(t *testing.T) {
	var order []string
	step := func(name string, err error) func(context.Context) error {
		return func(context.Context) error {
			order = append(order, name)
			return err
		}
	}

	failure := errors.New("sweeper stuck")
	err := Drain(context.Background(),
		step("server", nil),
		nil,
		step("sweeper", failure),
		step("cleanup", nil),
	)

	if len(order) != 3 || order[0] != "server" || order[1] != "sweeper" || order[2] != "cleanup" {
		t.Fatalf("unexpected step order %v", order)
	}
	if !errors.Is(err, failure) {
		t.Fatalf("expected sweeper failure to surface, got %v", err)
	}
}

func TestDrainNoSteps(t *testing.T) {
	if err := Drain(context.Background()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}
