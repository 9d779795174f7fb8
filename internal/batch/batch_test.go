package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"walletclinic/internal/model"
	"walletclinic/internal/report"
)

func TestSplitRange(t *testing.T) {
	got, err := SplitRange(3, 9, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []IndexRange{{From: 3, To: 5}, {From: 6, To: 8}, {From: 9, To: 9}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ranges mismatch: %+v != %+v", got, want)
	}
	if _, err := SplitRange(5, 4, 1); err == nil {
		t.Fatalf("expected error for invalid range")
	}
	if _, err := SplitRange(0, 4, 0); err == nil {
		t.Fatalf("expected error for zero batch size")
	}
}

func TestReadInputs(t *testing.T) {
	got, err := ReadInputs(strings.NewReader("0xAA\n\n# comment\n  alice.base.eth  \n"))
	if err != nil {
		t.Fatalf("ReadInputs: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"0xAA", "alice.base.eth"}) {
		t.Fatalf("unexpected inputs %v", got)
	}
}

type memorySink struct {
	reports  []model.SummaryReport
	failures []model.BatchFailure
}

func (m *memorySink) PutReports(reports []model.SummaryReport) error {
	m.reports = append(m.reports, reports...)
	return nil
}

func (m *memorySink) PutFailures(failures []model.BatchFailure) error {
	m.failures = append(m.failures, failures...)
	return nil
}

type scriptedSummarizer struct {
	calls    map[string]int
	flaky    map[string]int
	invalid  map[string]bool
	stopping map[string]context.CancelFunc
}

func (s *scriptedSummarizer) Summary(_ context.Context, input string, _ report.Options) (model.SummaryReport, error) {
	if s.calls == nil {
		s.calls = make(map[string]int)
	}
	s.calls[input]++
	if cancel, ok := s.stopping[input]; ok {
		cancel()
	}
	if s.invalid[input] {
		return model.SummaryReport{}, fmt.Errorf("%w: %q", report.ErrInvalidInput, input)
	}
	if s.calls[input] <= s.flaky[input] {
		return model.SummaryReport{}, errors.New("upstream hiccup")
	}
	return model.SummaryReport{Address: input}, nil
}

func TestRunnerRetriesAndRecordsFailures(t *testing.T) {
	sink := &memorySink{}
	sum := &scriptedSummarizer{
		flaky:   map[string]int{"b": 1},
		invalid: map[string]bool{"bad": true},
	}
	runner := NewRunner(RunConfig{
		Inputs:       []string{"a", "b", "bad", "c"},
		BatchSize:    2,
		MaxRetries:   2,
		RetryBackoff: time.Millisecond,
	}, sum, sink, nil)

	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Reported != 3 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if sum.calls["b"] != 2 || sum.calls["bad"] != 1 {
		t.Fatalf("unexpected call counts %v", sum.calls)
	}
	if len(sink.failures) != 1 || !sink.failures[0].Invalid || sink.failures[0].Index != 2 {
		t.Fatalf("unexpected failures %+v", sink.failures)
	}
}

func TestRunnerResumesFromCheckpoint(t *testing.T) {
	cpPath := filepath.Join(t.TempDir(), "cp.json")
	inputs := []string{"a", "b", "c", "d", "e"}

	ctx, cancel := context.WithCancel(context.Background())
	first := &memorySink{}
	sum := &scriptedSummarizer{stopping: map[string]context.CancelFunc{"c": cancel}}
	runner := NewRunner(RunConfig{
		Inputs:            inputs,
		BatchSize:         2,
		CheckpointPath:    cpPath,
		CheckpointEnabled: true,
	}, sum, first, nil)
	if _, err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if len(first.reports) != 2 {
		t.Fatalf("first run should store the first batch, got %d", len(first.reports))
	}

	second := &memorySink{}
	runner = NewRunner(RunConfig{
		Inputs:            inputs,
		BatchSize:         2,
		CheckpointPath:    cpPath,
		CheckpointEnabled: true,
	}, &scriptedSummarizer{}, second, nil)
	stats, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Skipped != 2 || stats.Reported != 3 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if second.reports[0].Address != "c" {
		t.Fatalf("resume should start at c, got %s", second.reports[0].Address)
	}

	stats, err = NewRunner(RunConfig{
		Inputs:            []string{"x", "y"},
		BatchSize:         2,
		CheckpointPath:    cpPath,
		CheckpointEnabled: true,
	}, &scriptedSummarizer{}, &memorySink{}, nil).Run(context.Background())
	if err != nil || stats.Skipped != 0 || stats.Reported != 2 {
		t.Fatalf("changed input list should start over: %+v %v", stats, err)
	}
}
