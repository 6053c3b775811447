package coredata_test

import (
	"errors"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/OpenCovidTracking/OCT-Backend/internal/coredata"
)

// newTestStore opens a fresh in-memory database and migrates the tables.
func newTestStore(t *testing.T) *coredata.Store {
	t.Helper()

	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// The in-memory database exists per connection; keep the pool at one so
	// every query sees the same tables.
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	store := coredata.NewStore(gdb)
	if err := store.AutoMigrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return store
}

func row(state, date string, positive int64) coredata.CoreData {
	return coredata.CoreData{State: state, Date: date, Positive: i64(positive)}
}

// ingest creates a batch with the given rows and returns its id.
func ingest(t *testing.T, store *coredata.Store, publish bool, rows ...coredata.CoreData) int64 {
	t.Helper()
	b := coredata.Batch{BatchNote: "test"}
	if err := store.CreateBatch(&b, rows, nil, publish); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	return b.BatchID
}

func publish(t *testing.T, store *coredata.Store, id int64) {
	t.Helper()
	if _, err := store.PublishBatch(id); err != nil {
		t.Fatalf("PublishBatch(%d): %v", id, err)
	}
}

func TestAnyExistingRows(t *testing.T) {
	store := newTestStore(t)

	id := ingest(t, store, false, row("NY", "2020-05-24", 15), row("WA", "2020-05-24", 10))

	// Draft batches never count.
	for _, state := range []string{"NY", "WA"} {
		exists, err := store.AnyExistingRows(state, "2020-05-24")
		if err != nil {
			t.Fatalf("AnyExistingRows: %v", err)
		}
		if exists {
			t.Errorf("AnyExistingRows(%s) = true for a draft batch", state)
		}
	}

	publish(t, store, id)

	// Published rows count immediately, and only the touched cells.
	for _, tc := range []struct {
		state, date string
		want        bool
	}{
		{"NY", "2020-05-24", true},
		{"WA", "2020-05-24", true},
		{"ZZ", "2020-05-24", false},
		{"NY", "2020-05-25", false},
	} {
		exists, err := store.AnyExistingRows(tc.state, tc.date)
		if err != nil {
			t.Fatalf("AnyExistingRows: %v", err)
		}
		if exists != tc.want {
			t.Errorf("AnyExistingRows(%s, %s) = %v, want %v", tc.state, tc.date, exists, tc.want)
		}
	}
}

func TestPublishBatch(t *testing.T) {
	store := newTestStore(t)
	id := ingest(t, store, false, row("NY", "2020-05-24", 15))

	b, err := store.PublishBatch(id)
	if err != nil {
		t.Fatalf("PublishBatch: %v", err)
	}
	if !b.IsPublished {
		t.Error("batch not marked published")
	}
	if b.PublishedAt == nil {
		t.Error("publishedAt not set")
	}

	// Publish is one-way; a second attempt is an explicit error.
	if _, err := store.PublishBatch(id); !errors.Is(err, coredata.ErrAlreadyPublished) {
		t.Errorf("second publish: err = %v, want ErrAlreadyPublished", err)
	}

	if _, err := store.PublishBatch(9999); !errors.Is(err, coredata.ErrBatchNotFound) {
		t.Errorf("unknown batch: err = %v, want ErrBatchNotFound", err)
	}
}

// TestCurrentAndHistory walks the revision scenario: B1 publishes two days
// of NY data, then revision B2 corrects one day.
func TestCurrentAndHistory(t *testing.T) {
	store := newTestStore(t)

	b1 := ingest(t, store, false, row("NY", "2020-05-24", 15), row("NY", "2020-05-25", 15))
	publish(t, store, b1)

	cur, err := store.Current("NY", "2020-05-24")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if *cur.Positive != 15 {
		t.Errorf("current positive = %d, want 15", *cur.Positive)
	}

	// Revision batch is published at creation and wins immediately.
	b2 := ingest(t, store, true, row("NY", "2020-05-24", 16))

	cur, err = store.Current("NY", "2020-05-24")
	if err != nil {
		t.Fatalf("Current after revision: %v", err)
	}
	if *cur.Positive != 16 || cur.BatchID != b2 {
		t.Errorf("current = %d from batch %d, want 16 from batch %d", *cur.Positive, cur.BatchID, b2)
	}

	// The untouched day still resolves to B1's row.
	cur, err = store.Current("NY", "2020-05-25")
	if err != nil {
		t.Fatalf("Current untouched day: %v", err)
	}
	if *cur.Positive != 15 || cur.BatchID != b1 {
		t.Errorf("untouched day = %d from batch %d, want 15 from batch %d", *cur.Positive, cur.BatchID, b1)
	}

	// Empty date means the latest date carrying published data.
	cur, err = store.Current("NY", "")
	if err != nil {
		t.Fatalf("Current latest: %v", err)
	}
	if cur.Date != "2020-05-25" {
		t.Errorf("latest date = %s, want 2020-05-25", cur.Date)
	}

	// History shows both batches' rows for the corrected cell, newest first.
	hist, err := store.History("NY", "2020-05-24")
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("history rows = %d, want 2", len(hist))
	}
	if hist[0].BatchID != b2 || hist[1].BatchID != b1 {
		t.Errorf("history order = [%d %d], want [%d %d]", hist[0].BatchID, hist[1].BatchID, b2, b1)
	}

	if _, err := store.Current("NY", "2020-01-01"); !errors.Is(err, coredata.ErrNoDataFound) {
		t.Errorf("missing cell: err = %v, want ErrNoDataFound", err)
	}
}

func TestCurrentIgnoresDrafts(t *testing.T) {
	store := newTestStore(t)

	b1 := ingest(t, store, false, row("NY", "2020-05-24", 15))
	publish(t, store, b1)

	// A later draft does not shadow published data.
	draft := ingest(t, store, false, row("NY", "2020-05-24", 99))

	cur, err := store.Current("NY", "2020-05-24")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.BatchID != b1 {
		t.Errorf("current from batch %d, want published batch %d", cur.BatchID, b1)
	}

	// Publishing the draft flips the answer with no other migration.
	publish(t, store, draft)
	cur, err = store.Current("NY", "2020-05-24")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if cur.BatchID != draft || *cur.Positive != 99 {
		t.Errorf("current = %d from batch %d, want 99 from batch %d", *cur.Positive, cur.BatchID, draft)
	}
}

func TestStatesDailyPreview(t *testing.T) {
	store := newTestStore(t)

	b1 := ingest(t, store, false, row("NY", "2020-05-24", 15))
	publish(t, store, b1)
	ingest(t, store, false, row("NY", "2020-05-24", 99), row("NY", "2020-05-25", 50))

	rows, err := store.StatesDaily("NY", false)
	if err != nil {
		t.Fatalf("StatesDaily: %v", err)
	}
	if len(rows) != 1 || *rows[0].Positive != 15 {
		t.Errorf("published view = %+v, want only the published row with 15", rows)
	}

	rows, err = store.StatesDaily("NY", true)
	if err != nil {
		t.Fatalf("StatesDaily preview: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("preview rows = %d, want 2", len(rows))
	}
	// Newest date first; the draft's value shadows the published row.
	if rows[0].Date != "2020-05-25" || *rows[0].Positive != 50 {
		t.Errorf("preview[0] = %+v, want 2020-05-25 positive 50", rows[0])
	}
	if rows[1].Date != "2020-05-24" || *rows[1].Positive != 99 {
		t.Errorf("preview[1] = %+v, want 2020-05-24 positive 99", rows[1])
	}
}

func TestUpsertState(t *testing.T) {
	store := newTestStore(t)

	st, err := store.UpsertState(coredata.StateEdit{
		Code:    "NY",
		Updates: map[string]any{"name": "New York", "total_test_results_source": "posNeg"},
	})
	if err != nil {
		t.Fatalf("UpsertState: %v", err)
	}
	if st.Name != "New York" || st.TotalTestResultsSource != coredata.SourcePosNeg {
		t.Errorf("state = %+v, want name and source set", st)
	}

	// Edits apply in place and leave untouched fields alone.
	st, err = store.UpsertState(coredata.StateEdit{
		Code:    "NY",
		Updates: map[string]any{"twitter": "@HealthNYGov"},
	})
	if err != nil {
		t.Fatalf("UpsertState edit: %v", err)
	}
	if st.Twitter != "@HealthNYGov" || st.Name != "New York" {
		t.Errorf("state after edit = %+v", st)
	}

	if _, err := store.GetState("ZZ"); !errors.Is(err, coredata.ErrStateNotFound) {
		t.Errorf("GetState(ZZ): err = %v, want ErrStateNotFound", err)
	}
}

func TestUSDaily(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.UpsertState(coredata.StateEdit{
		Code:    "WA",
		Updates: map[string]any{"total_test_results_source": "totalTestsViral"},
	}); err != nil {
		t.Fatalf("UpsertState: %v", err)
	}

	ny24 := row("NY", "2020-05-24", 15)
	ny24.Negative = i64(5)
	ny24.Death = i64(2)
	wa24 := coredata.CoreData{State: "WA", Date: "2020-05-24", Positive: i64(10), TotalTestsViral: i64(100)}
	ny25 := row("NY", "2020-05-25", 20)

	id := ingest(t, store, false, ny24, wa24, ny25)
	publish(t, store, id)

	days, err := store.USDaily(false)
	if err != nil {
		t.Fatalf("USDaily: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("days = %d, want 2", len(days))
	}
	if days[0].Date != "2020-05-25" || days[0].States != 1 || days[0].Positive != 20 {
		t.Errorf("days[0] = %+v", days[0])
	}
	d := days[1]
	if d.Date != "2020-05-24" || d.States != 2 || d.Positive != 25 || d.Death != 2 {
		t.Errorf("days[1] = %+v", d)
	}
	// NY sums posNeg (15+5); WA uses its configured totalTestsViral column.
	if d.TotalTestResults != 120 {
		t.Errorf("totalTestResults = %d, want 120", d.TotalTestResults)
	}
}
