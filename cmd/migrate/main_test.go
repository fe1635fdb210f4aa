package main

import (
	"context"
	"errors"
	"testing"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		args    []string
		command string
		steps   int
		wantErr bool
	}{
		{args: nil, wantErr: true},
		{args: []string{"up"}, command: "up"},
		{args: []string{"version"}, command: "version"},
		{args: []string{"down"}, command: "down", steps: 1},
		{args: []string{"down", "3"}, command: "down", steps: 3},
		{args: []string{"down", "0"}, wantErr: true},
		{args: []string{"down", "x"}, wantErr: true},
		{args: []string{"sideways"}, wantErr: true},
	}
	for _, tc := range tests {
		command, steps, err := parseArgs(tc.args)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("%v: expected error", tc.args)
			}
			continue
		}
		if err != nil || command != tc.command || steps != tc.steps {
			t.Fatalf("%v: got %q/%d/%v", tc.args, command, steps, err)
		}
	}
}

type stubMigrator struct {
	applied   int
	downSteps int
	version   int64
	err       error
}

func (s *stubMigrator) Up(context.Context) (int, error) { return s.applied, s.err }

func (s *stubMigrator) Down(_ context.Context, steps int) (int, error) {
	s.downSteps = steps
	return steps, s.err
}

func (s *stubMigrator) Version(context.Context) (int64, string, error) {
	return s.version, "candles_updated_at", s.err
}

func TestRun(t *testing.T) {
	ctx := context.Background()

	msg, err := run(ctx, &stubMigrator{applied: 2}, cmdUp, 0)
	if err != nil || msg != "migrations up complete (2 applied)" {
		t.Fatalf("unexpected up result: %q %v", msg, err)
	}

	m := &stubMigrator{}
	msg, err = run(ctx, m, cmdDown, 2)
	if err != nil || m.downSteps != 2 || msg != "migrations down complete (2 rolled back)" {
		t.Fatalf("unexpected down result: %q %v", msg, err)
	}

	if msg, _ := run(ctx, &stubMigrator{}, cmdVersion, 0); msg != "no migrations applied" {
		t.Fatalf("unexpected version result: %q", msg)
	}
	if msg, _ := run(ctx, &stubMigrator{version: 2}, cmdVersion, 0); msg != "current version: 2 (candles_updated_at)" {
		t.Fatalf("unexpected version result: %q", msg)
	}

	if _, err := run(ctx, &stubMigrator{err: errors.New("boom")}, cmdUp, 0); err == nil {
		t.Fatal("expected error to propagate")
	}
}
