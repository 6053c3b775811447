package coredata

import (
	"encoding/json"
	"fmt"
	"time"
)

// TotalTestResultsSource names the CoreData column that feeds a state's
// totalTestResults figure, or the posNeg sentinel meaning positive+negative.
// Values outside the allow-list are rejected when the state is edited, not
// when the figure is read.
type TotalTestResultsSource string

const (
	SourcePosNeg                   TotalTestResultsSource = "posNeg"
	SourceTotalTestsViral          TotalTestResultsSource = "totalTestsViral"
	SourceTotalTestsPeopleViral    TotalTestResultsSource = "totalTestsPeopleViral"
	SourceTotalTestEncountersViral TotalTestResultsSource = "totalTestEncountersViral"
	SourceTotalTestsAntibody       TotalTestResultsSource = "totalTestsAntibody"
	SourceTotalTestsPeopleAntibody TotalTestResultsSource = "totalTestsPeopleAntibody"
	SourceTotalTestsAntigen        TotalTestResultsSource = "totalTestsAntigen"
	SourceTotalTestsPeopleAntigen  TotalTestResultsSource = "totalTestsPeopleAntigen"
)

var allowedSources = map[TotalTestResultsSource]struct{}{
	SourcePosNeg:                   {},
	SourceTotalTestsViral:          {},
	SourceTotalTestsPeopleViral:    {},
	SourceTotalTestEncountersViral: {},
	SourceTotalTestsAntibody:       {},
	SourceTotalTestsPeopleAntibody: {},
	SourceTotalTestsAntigen:        {},
	SourceTotalTestsPeopleAntigen:  {},
}

// ParseTotalTestResultsSource validates a raw value against the allow-list.
func ParseTotalTestResultsSource(raw string) (TotalTestResultsSource, error) {
	s := TotalTestResultsSource(raw)
	if _, ok := allowedSources[s]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidTotalTestResultsSource, raw)
	}
	return s, nil
}

// State holds per-state reporting metadata. Rows are created on first
// reference and edited in place; they are never deleted.
type State struct {
	State                  string                 `gorm:"primaryKey;size:2" json:"state"`
	Name                   string                 `json:"name,omitempty"`
	Covid19Site            string                 `gorm:"column:covid19_site" json:"covid19Site,omitempty"`
	Covid19SiteSecondary   string                 `gorm:"column:covid19_site_secondary" json:"covid19SiteSecondary,omitempty"`
	Covid19SiteTertiary    string                 `gorm:"column:covid19_site_tertiary" json:"covid19SiteTertiary,omitempty"`
	Twitter                string                 `json:"twitter,omitempty"`
	Notes                  string                 `json:"notes,omitempty"`
	Pum                    bool                   `json:"pum"`
	TotalTestResultsSource TotalTestResultsSource `json:"totalTestResultsSource,omitempty"`
}

func (State) TableName() string {
	return "states"
}

// MarshalJSON adds the census FIPS code, which is derived from the state
// code rather than stored.
func (s State) MarshalJSON() ([]byte, error) {
	type alias State
	return json.Marshal(struct {
		alias
		Fips string `json:"fips,omitempty"`
	}{alias(s), FipsCode(s.State)})
}

// Batch is one ingestion event. Publish is a one-way transition; rows are
// never detached from their batch.
type Batch struct {
	BatchID       int64      `gorm:"primaryKey;autoIncrement;column:batch_id" json:"batchId"`
	CreatedAt     time.Time  `json:"createdAt"`
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
	ShiftLead     string     `json:"shiftLead,omitempty"`
	BatchNote     string     `json:"batchNote,omitempty"`
	DataEntryType string     `json:"dataEntryType,omitempty"`
	IsPublished   bool       `json:"isPublished"`
	IsRevision    bool       `json:"isRevision"`

	// Fields touched by a revision batch, for the audit view.
	ChangedFields []string `gorm:"serializer:json" json:"changedFields,omitempty"`

	CoreData []CoreData `gorm:"foreignKey:BatchID;references:BatchID" json:"coreData,omitempty"`
}

func (Batch) TableName() string {
	return "batches"
}

// CoreData is one state's reported figures for one date as submitted in one
// batch. The same (state, date) cell appears once per batch that touched it;
// the currently effective row is always resolved through the batch ordering,
// never stored separately.
type CoreData struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"-"`
	BatchID int64  `gorm:"column:batch_id;index" json:"batchId"`
	State   string `gorm:"size:2;index:idx_core_data_state_date" json:"state"`

	// Normalized YYYY-MM-DD. Stored as text so (state, date) lookups are
	// plain indexed comparisons on every database the store runs against.
	Date string `gorm:"index:idx_core_data_state_date" json:"date"`

	LastUpdateTime *time.Time `json:"-"`
	DateChecked    *time.Time `json:"dateChecked,omitempty"`

	DataQualityGrade string `json:"dataQualityGrade,omitempty"`
	SourceNotes      string `json:"sourceNotes,omitempty"`

	Positive                    *int64 `json:"positive,omitempty"`
	Negative                    *int64 `json:"negative,omitempty"`
	Pending                     *int64 `json:"pending,omitempty"`
	HospitalizedCurrently       *int64 `json:"hospitalizedCurrently,omitempty"`
	HospitalizedCumulative      *int64 `json:"hospitalizedCumulative,omitempty"`
	InIcuCurrently              *int64 `json:"inIcuCurrently,omitempty"`
	InIcuCumulative             *int64 `json:"inIcuCumulative,omitempty"`
	OnVentilatorCurrently       *int64 `json:"onVentilatorCurrently,omitempty"`
	OnVentilatorCumulative      *int64 `json:"onVentilatorCumulative,omitempty"`
	Recovered                   *int64 `json:"recovered,omitempty"`
	Death                       *int64 `json:"death,omitempty"`
	DeathConfirmed              *int64 `json:"deathConfirmed,omitempty"`
	DeathProbable               *int64 `json:"deathProbable,omitempty"`
	TotalTestsViral             *int64 `json:"totalTestsViral,omitempty"`
	PositiveTestsViral          *int64 `json:"positiveTestsViral,omitempty"`
	NegativeTestsViral          *int64 `json:"negativeTestsViral,omitempty"`
	PositiveCasesViral          *int64 `json:"positiveCasesViral,omitempty"`
	TotalTestsPeopleViral       *int64 `json:"totalTestsPeopleViral,omitempty"`
	TotalTestEncountersViral    *int64 `json:"totalTestEncountersViral,omitempty"`
	TotalTestsAntibody          *int64 `json:"totalTestsAntibody,omitempty"`
	PositiveTestsAntibody       *int64 `json:"positiveTestsAntibody,omitempty"`
	NegativeTestsAntibody       *int64 `json:"negativeTestsAntibody,omitempty"`
	TotalTestsPeopleAntibody    *int64 `json:"totalTestsPeopleAntibody,omitempty"`
	PositiveTestsPeopleAntibody *int64 `json:"positiveTestsPeopleAntibody,omitempty"`
	NegativeTestsPeopleAntibody *int64 `json:"negativeTestsPeopleAntibody,omitempty"`
	TotalTestsAntigen           *int64 `json:"totalTestsAntigen,omitempty"`
	PositiveTestsAntigen        *int64 `json:"positiveTestsAntigen,omitempty"`
	TotalTestsPeopleAntigen     *int64 `json:"totalTestsPeopleAntigen,omitempty"`
	PositiveTestsPeopleAntigen  *int64 `json:"positiveTestsPeopleAntigen,omitempty"`
}

func (CoreData) TableName() string {
	return "core_data"
}

// CoreDataView is a CoreData row plus its derived values, built at read time.
type CoreDataView struct {
	CoreData
	TotalTestResults *int64 `json:"totalTestResults"`
	LastUpdateEt     string `json:"lastUpdateEt,omitempty"`
}
