package model

import (
	"testing"
	"time"
)

// TestStatusString tests status text rendering.
func TestStatusString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		want   string
	}{
		{StatusCompleted, "completed"},
		{StatusPartial, "partial"},
		{StatusSkipped, "skipped"},
		{StatusFailed, "failed"},
		{Status(99), "unknown"},
	}

	for _, tt := range tests {
		if got := tt.status.String(); got != tt.want {
			t.Errorf("Status(%d).String() = %q, want %q", tt.status, got, tt.want)
		}
	}
}

// TestStatusExecuted tests that only completed and partial count as executed.
func TestStatusExecuted(t *testing.T) {
	t.Parallel()

	if !StatusCompleted.Executed() {
		t.Error("completed should be executed")
	}
	if !StatusPartial.Executed() {
		t.Error("partial should be executed")
	}
	if StatusSkipped.Executed() {
		t.Error("skipped should not be executed")
	}
	if StatusFailed.Executed() {
		t.Error("failed should not be executed")
	}
}

// TestCapabilityStateUsable tests which states can serve units.
func TestCapabilityStateUsable(t *testing.T) {
	t.Parallel()

	if !CapabilityAvailable.Usable() {
		t.Error("available should be usable")
	}
	if !CapabilityDegraded.Usable() {
		t.Error("degraded should be usable")
	}
	if CapabilityUnavailable.Usable() {
		t.Error("unavailable should not be usable")
	}
}

// TestParseMode tests mode parsing against the closed set.
func TestParseMode(t *testing.T) {
	t.Parallel()

	t.Run("accepts every registered mode", func(t *testing.T) {
		t.Parallel()

		for _, m := range AllModes {
			got, err := ParseMode(string(m))
			if err != nil {
				t.Errorf("ParseMode(%q) returned error: %v", m, err)
			}
			if got != m {
				t.Errorf("ParseMode(%q) = %q", m, got)
			}
		}
	})

	t.Run("rejects unknown mode instead of falling back to full", func(t *testing.T) {
		t.Parallel()

		if _, err := ParseMode("everything"); err == nil {
			t.Error("expected error for unrecognized mode")
		}
	})
}

// TestUnitResultSetScore tests score clamping to [0,100].
func TestUnitResultSetScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		score int
		want  int
	}{
		{"in range", 73, 73},
		{"below range", -5, 0},
		{"above range", 140, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := NewUnitResult("u-test")
			r.SetScore(tt.score)
			if r.Score == nil || *r.Score != tt.want {
				t.Errorf("SetScore(%d): got %v, want %d", tt.score, r.Score, tt.want)
			}
		})
	}
}

// TestUnitResultAddSource tests source bookkeeping.
func TestUnitResultAddSource(t *testing.T) {
	t.Parallel()

	r := NewUnitResult("u-test")
	r.AddSource("web-search", false)
	r.AddSource("search-performance", true)
	r.AddSource("web-search", false) // duplicate

	if len(r.SourcesUsed) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(r.SourcesUsed))
	}
	// Kept sorted for deterministic report rendering.
	if r.SourcesUsed[0] != "search-performance" || r.SourcesUsed[1] != "web-search" {
		t.Errorf("sources not sorted: %v", r.SourcesUsed)
	}
	if len(r.DegradedSources) != 1 || r.DegradedSources[0] != "search-performance" {
		t.Errorf("degraded sources wrong: %v", r.DegradedSources)
	}
	if !r.UsedSource("web-search") {
		t.Error("expected web-search to be recorded")
	}
	if r.UsedSource("link-authority") {
		t.Error("link-authority should not be recorded")
	}
}

// TestAnnotationRealtime tests realtime annotation construction.
func TestAnnotationRealtime(t *testing.T) {
	t.Parallel()

	got := AnnotationRealtime("page-performance")
	if got != Annotation("realtime-page-performance") {
		t.Errorf("unexpected annotation: %q", got)
	}
}

// TestRunReportToSnapshot tests snapshot conversion.
func TestRunReportToSnapshot(t *testing.T) {
	t.Parallel()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ur := NewUnitResult("search-visibility")
	ur.SetStatus(StatusCompleted)
	ur.SetScore(80)

	report := &RunReport{
		RunID:            "run-1",
		Site:             "example.com",
		Mode:             ModeFull,
		StartedAt:        started,
		UnitResults:      []*UnitResult{ur},
		DimensionScores:  map[Dimension]int{DimensionSEO: 80},
		KeywordPositions: map[string]float64{"running shoes": 7.2},
	}

	snap := report.ToSnapshot()
	if snap.SiteID != "example.com" {
		t.Errorf("site: got %q", snap.SiteID)
	}
	if !snap.Timestamp.Equal(started) {
		t.Errorf("timestamp: got %v", snap.Timestamp)
	}
	if snap.UnitResults["search-visibility"] != ur {
		t.Error("unit result not carried into snapshot")
	}
	if snap.RawKeywordPositions["running shoes"] != 7.2 {
		t.Error("keyword positions not carried into snapshot")
	}
}

// TestExecutedUnitIDs tests that only executed units are listed.
func TestExecutedUnitIDs(t *testing.T) {
	t.Parallel()

	done := NewUnitResult("a")
	done.SetStatus(StatusCompleted)
	partial := NewUnitResult("b")
	partial.SetStatus(StatusPartial)
	failed := NewUnitResult("c")
	failed.SetStatus(StatusFailed)

	report := &RunReport{UnitResults: []*UnitResult{done, partial, failed}}

	ids := report.ExecutedUnitIDs()
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Errorf("unexpected executed ids: %v", ids)
	}
}
