package coredata_test

import (
	"testing"
	"time"

	"github.com/OpenCovidTracking/OCT-Backend/internal/coredata"
)

func i64(v int64) *int64 { return &v }

func TestTotalTestResults_PosNeg(t *testing.T) {
	state := &coredata.State{State: "NY", TotalTestResultsSource: coredata.SourcePosNeg}
	row := &coredata.CoreData{State: "NY", Date: "2020-05-24"}

	// Both addends absent means "no report", not zero.
	if got := coredata.TotalTestResults(row, state); got != nil {
		t.Errorf("both nil: got %v, want nil", *got)
	}

	row.Positive = i64(25)
	if got := coredata.TotalTestResults(row, state); got == nil || *got != 25 {
		t.Errorf("positive only: got %v, want 25", got)
	}

	row.Positive = nil
	row.Negative = i64(5)
	if got := coredata.TotalTestResults(row, state); got == nil || *got != 5 {
		t.Errorf("negative only: got %v, want 5", got)
	}

	row.Positive = i64(25)
	if got := coredata.TotalTestResults(row, state); got == nil || *got != 30 {
		t.Errorf("both: got %v, want 30", got)
	}
}

func TestTotalTestResults_SourceColumn(t *testing.T) {
	state := &coredata.State{State: "NY", TotalTestResultsSource: coredata.SourceTotalTestEncountersViral}
	row := &coredata.CoreData{State: "NY", Date: "2020-05-24", Positive: i64(25), Negative: i64(5)}

	// A named source column is returned verbatim, never summed with posNeg.
	if got := coredata.TotalTestResults(row, state); got != nil {
		t.Errorf("unset source column: got %v, want nil", *got)
	}

	row.TotalTestEncountersViral = i64(55)
	if got := coredata.TotalTestResults(row, state); got == nil || *got != 55 {
		t.Errorf("got %v, want 55", got)
	}
}

func TestTotalTestResults_SourceChangeIsImmediate(t *testing.T) {
	state := &coredata.State{State: "NY", TotalTestResultsSource: coredata.SourcePosNeg}
	row := &coredata.CoreData{
		State: "NY", Date: "2020-05-24",
		Positive: i64(25), Negative: i64(5), TotalTestsViral: i64(75),
	}

	if got := coredata.TotalTestResults(row, state); got == nil || *got != 30 {
		t.Fatalf("posNeg: got %v, want 30", got)
	}

	// Editing the state's source selection changes the derived value on the
	// very next read; there is no cache to invalidate.
	state.TotalTestResultsSource = coredata.SourceTotalTestsViral
	if got := coredata.TotalTestResults(row, state); got == nil || *got != 75 {
		t.Errorf("after source edit: got %v, want 75", got)
	}
}

func TestTotalTestResults_DefaultsToPosNeg(t *testing.T) {
	row := &coredata.CoreData{State: "ZZ", Date: "2020-05-24", Positive: i64(20), Negative: i64(5)}

	// Unknown state, or a state with no source configured, falls back to posNeg.
	if got := coredata.TotalTestResults(row, nil); got == nil || *got != 25 {
		t.Errorf("nil state: got %v, want 25", got)
	}
	if got := coredata.TotalTestResults(row, &coredata.State{State: "ZZ"}); got == nil || *got != 25 {
		t.Errorf("unconfigured state: got %v, want 25", got)
	}
}

func TestParseTotalTestResultsSource(t *testing.T) {
	for _, ok := range []string{"posNeg", "totalTestsViral", "totalTestsPeopleAntigen"} {
		if _, err := coredata.ParseTotalTestResultsSource(ok); err != nil {
			t.Errorf("ParseTotalTestResultsSource(%q) = %v, want nil", ok, err)
		}
	}
	for _, bad := range []string{"some_nonsense", "covid19Site", ""} {
		if _, err := coredata.ParseTotalTestResultsSource(bad); err == nil {
			t.Errorf("ParseTotalTestResultsSource(%q) succeeded, want error", bad)
		}
	}
}

func TestLastUpdateEt(t *testing.T) {
	utc := time.Date(2020, 5, 4, 20, 3, 0, 0, time.UTC)
	row := &coredata.CoreData{State: "NY", Date: "2020-05-04", LastUpdateTime: &utc}

	// 2020-05-04 is under daylight saving, so 20:03 UTC is 16:03 Eastern.
	if got := row.LastUpdateEt(); got != "5/4/2020 16:03" {
		t.Errorf("LastUpdateEt = %q, want %q", got, "5/4/2020 16:03")
	}

	empty := &coredata.CoreData{State: "NY", Date: "2020-05-04"}
	if got := empty.LastUpdateEt(); got != "" {
		t.Errorf("LastUpdateEt with no instant = %q, want empty", got)
	}
}
