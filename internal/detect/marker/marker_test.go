package marker_test

import (
	"errors"
	"regexp"
	"slices"
	"testing"

	"github.com/farcloser/logsift/internal/detect/marker"
	"github.com/farcloser/logsift/internal/types"
)

func feed(t *testing.T, detector types.Detector, lines []string, want []types.State) {
	t.Helper()

	for i, line := range lines {
		if got := detector.ReceiveLine(line); got != want[i] {
			t.Fatalf("ReceiveLine(%q) = %s, want %s", line, got, want[i])
		}
	}
}

func TestErrorDetectorLifecycle(t *testing.T) {
	detector := marker.Error(nil)

	feed(t, detector,
		[]string{"INFO boot", "ERROR db down", "    at com.acme.Db.open(Db.java:3)", "INFO noise", "ERROR next"},
		[]types.State{types.StateIdle, types.StateActive, types.StateActive, types.StateActive, types.StateFinished},
	)

	// Finished is sticky until drained.
	if got := detector.ReceiveLine("anything"); got != types.StateFinished {
		t.Fatalf("finished detector moved to %s", got)
	}

	issue, err := detector.PickIssue()
	if err != nil {
		t.Fatalf("PickIssue: %v", err)
	}

	if detector.State() != types.StateIdle {
		t.Errorf("state after pick = %s", detector.State())
	}

	if issue.Message != "db down" {
		t.Errorf("Message = %q", issue.Message)
	}

	if issue.Kind != types.KindException || issue.Severity != types.SeverityMedium {
		t.Errorf("Kind/Severity = %s/%s", issue.Kind, issue.Severity)
	}

	wantRaw := []string{"ERROR db down", "    at com.acme.Db.open(Db.java:3)", "INFO noise", "ERROR next"}
	if !slices.Equal(issue.RawLines, wantRaw) {
		t.Errorf("RawLines = %q", issue.RawLines)
	}

	if !slices.Equal(issue.StackLines, []string{"at com.acme.Db.open(Db.java:3)"}) {
		t.Errorf("StackLines = %q", issue.StackLines)
	}
}

func TestPickIssueWithoutIssue(t *testing.T) {
	detector := marker.Error(nil)

	if _, err := detector.PickIssue(); !errors.Is(err, types.ErrNoActiveIssue) {
		t.Fatalf("fresh detector: err = %v", err)
	}

	detector.ReceiveLine("ERROR one")

	if _, err := detector.PickIssue(); !errors.Is(err, types.ErrNoActiveIssue) {
		t.Fatalf("active detector: err = %v", err)
	}

	detector.ReceiveLine("ERROR two")

	if _, err := detector.PickIssue(); err != nil {
		t.Fatalf("finished detector: %v", err)
	}

	if _, err := detector.PickIssue(); !errors.Is(err, types.ErrNoActiveIssue) {
		t.Fatalf("drained detector: err = %v", err)
	}
}

func TestStartLineWithFrame(t *testing.T) {
	detector := marker.Error(nil)
	detector.ReceiveLine("ERROR boom at org.acme.Main.run(Main.java:9)")
	detector.ReceiveLine("ERROR")

	issue, err := detector.PickIssue()
	if err != nil {
		t.Fatal(err)
	}

	if issue.Kind != types.KindException {
		t.Errorf("Kind = %s", issue.Kind)
	}

	if !slices.Equal(issue.StackLines, []string{"at org.acme.Main.run(Main.java:9)"}) {
		t.Errorf("StackLines = %q", issue.StackLines)
	}
}

func TestProseIsNotAFrame(t *testing.T) {
	detector := marker.Error(nil)
	detector.ReceiveLine("ERROR failed at startup")
	detector.ReceiveLine("  retrying at noon")
	detector.ReceiveLine("ERROR")

	issue, err := detector.PickIssue()
	if err != nil {
		t.Fatal(err)
	}

	if issue.Kind != types.KindError || len(issue.StackLines) != 0 {
		t.Errorf("Kind = %s, StackLines = %q", issue.Kind, issue.StackLines)
	}
}

func TestReuseAfterPick(t *testing.T) {
	detector := marker.Error(nil)
	feed(t, detector,
		[]string{"ERROR first", "    at a.b.c", "ERROR"},
		[]types.State{types.StateActive, types.StateActive, types.StateFinished},
	)

	first, err := detector.PickIssue()
	if err != nil {
		t.Fatal(err)
	}

	feed(t, detector,
		[]string{"ERROR second", "ERROR"},
		[]types.State{types.StateActive, types.StateFinished},
	)

	second, err := detector.PickIssue()
	if err != nil {
		t.Fatal(err)
	}

	if first.ID == second.ID {
		t.Error("issues share an ID")
	}

	if second.Kind != types.KindError || len(second.StackLines) != 0 {
		t.Errorf("second issue inherited state: kind %s, stack %q", second.Kind, second.StackLines)
	}

	if !slices.Equal(second.RawLines, []string{"ERROR second", "ERROR"}) {
		t.Errorf("RawLines = %q", second.RawLines)
	}
}

func TestCrashKeepsKind(t *testing.T) {
	detector := marker.Crash(nil)
	feed(t, detector,
		[]string{"FATAL out of memory", "    at java.lang.Thread.run(Thread.java:1)", "Segmentation fault (core dumped)"},
		[]types.State{types.StateActive, types.StateActive, types.StateFinished},
	)

	issue, err := detector.PickIssue()
	if err != nil {
		t.Fatal(err)
	}

	if issue.Kind != types.KindCrash || issue.Severity != types.SeverityCritical {
		t.Errorf("Kind/Severity = %s/%s", issue.Kind, issue.Severity)
	}

	if len(issue.StackLines) != 1 {
		t.Errorf("StackLines = %q", issue.StackLines)
	}
}

func TestDistinctEndMarker(t *testing.T) {
	detector := marker.New(marker.Options{
		Name:  "deploy",
		Kind:  types.Kind("deploy"),
		Start: regexp.MustCompile(`deploy started`),
		End:   regexp.MustCompile(`deploy (?:finished|aborted)`),
		Severity: func(types.Kind) types.Severity {
			return types.SeverityLow
		},
	})

	feed(t, detector,
		[]string{"deploy started v2", "deploy started v3", "deploy aborted"},
		[]types.State{types.StateActive, types.StateActive, types.StateFinished},
	)

	issue, err := detector.PickIssue()
	if err != nil {
		t.Fatal(err)
	}

	if issue.Kind != "deploy" || issue.Severity != types.SeverityLow || issue.Message != "v2" {
		t.Errorf("issue = %s/%s/%q", issue.Kind, issue.Severity, issue.Message)
	}
}

func TestResetDropsIssue(t *testing.T) {
	detector := marker.Error(nil)
	detector.ReceiveLine("ERROR half")

	if detector.Reset() == nil {
		t.Fatal("Reset returned no issue for an active detector")
	}

	if detector.State() != types.StateIdle || detector.Reset() != nil {
		t.Error("Reset did not clear state")
	}
}

func TestMatches(t *testing.T) {
	detector := marker.Error(nil)

	if !detector.Matches("x ERROR y") || detector.Matches("ValueError: y") {
		t.Error("unexpected Matches result")
	}

	if detector.State() != types.StateIdle {
		t.Error("Matches changed detector state")
	}
}
