package coredata

import (
	"log"
	"time"
)

// etDisplayLayout matches the historical public-sheet format, e.g. "5/4/2020 16:03".
const etDisplayLayout = "1/2/2006 15:04"

var easternTime = loadEastern()

func loadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		// tzdata missing from the host; fall back so formatting still works.
		log.Printf("coredata: failed to load America/New_York: %v", err)
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// TotalTestResults computes the derived total for a row under the given
// state's configured source. It is evaluated on every read so edits to the
// row or to the state's source selection show up immediately.
//
// Under posNeg a missing addend counts as zero, but if both positive and
// negative are missing the result is nil: "no report" is not "reported zero".
func TotalTestResults(row *CoreData, state *State) *int64 {
	source := SourcePosNeg
	if state != nil && state.TotalTestResultsSource != "" {
		source = state.TotalTestResultsSource
	}

	if source == SourcePosNeg {
		if row.Positive == nil && row.Negative == nil {
			return nil
		}
		var total int64
		if row.Positive != nil {
			total += *row.Positive
		}
		if row.Negative != nil {
			total += *row.Negative
		}
		return &total
	}

	v, ok := row.numericField(string(source))
	if !ok || v == nil {
		return nil
	}
	total := *v
	return &total
}

// LastUpdateEt renders the row's last-update instant in the canonical
// Eastern-time display format, or "" when the instant was never reported.
func (c *CoreData) LastUpdateEt() string {
	if c.LastUpdateTime == nil {
		return ""
	}
	return c.LastUpdateTime.In(easternTime).Format(etDisplayLayout)
}

// View attaches the derived values to a row for presentation.
func (c CoreData) View(state *State) CoreDataView {
	return CoreDataView{
		CoreData:         c,
		TotalTestResults: TotalTestResults(&c, state),
		LastUpdateEt:     c.LastUpdateEt(),
	}
}
