package coredata

import "sort"

// USDailyRow is the national rollup for one date: each state's effective row
// summed with missing values treated as zero, plus a count of states that
// reported anything that day.
type USDailyRow struct {
	Date                   string `json:"date"`
	States                 int    `json:"states"`
	Positive               int64  `json:"positive"`
	Negative               int64  `json:"negative"`
	Pending                int64  `json:"pending"`
	HospitalizedCurrently  int64  `json:"hospitalizedCurrently"`
	HospitalizedCumulative int64  `json:"hospitalizedCumulative"`
	InIcuCurrently         int64  `json:"inIcuCurrently"`
	InIcuCumulative        int64  `json:"inIcuCumulative"`
	OnVentilatorCurrently  int64  `json:"onVentilatorCurrently"`
	OnVentilatorCumulative int64  `json:"onVentilatorCumulative"`
	Recovered              int64  `json:"recovered"`
	Death                  int64  `json:"death"`
	TotalTestResults       int64  `json:"totalTestResults"`
}

// USDaily aggregates the current per-state rows into national figures,
// newest date first. It is recomputed from StatesDaily on every call, so a
// published correction is reflected with no extra bookkeeping.
func (s *Store) USDaily(preview bool) ([]USDailyRow, error) {
	rows, err := s.StatesDaily("", preview)
	if err != nil {
		return nil, err
	}
	states, err := s.statesByCode()
	if err != nil {
		return nil, err
	}

	byDate := make(map[string]*USDailyRow)
	for i := range rows {
		row := &rows[i]
		agg, ok := byDate[row.Date]
		if !ok {
			agg = &USDailyRow{Date: row.Date}
			byDate[row.Date] = agg
		}
		agg.States++
		agg.Positive += zeroIfNil(row.Positive)
		agg.Negative += zeroIfNil(row.Negative)
		agg.Pending += zeroIfNil(row.Pending)
		agg.HospitalizedCurrently += zeroIfNil(row.HospitalizedCurrently)
		agg.HospitalizedCumulative += zeroIfNil(row.HospitalizedCumulative)
		agg.InIcuCurrently += zeroIfNil(row.InIcuCurrently)
		agg.InIcuCumulative += zeroIfNil(row.InIcuCumulative)
		agg.OnVentilatorCurrently += zeroIfNil(row.OnVentilatorCurrently)
		agg.OnVentilatorCumulative += zeroIfNil(row.OnVentilatorCumulative)
		agg.Recovered += zeroIfNil(row.Recovered)
		agg.Death += zeroIfNil(row.Death)

		st, known := states[row.State]
		var statePtr *State
		if known {
			statePtr = &st
		}
		agg.TotalTestResults += zeroIfNil(TotalTestResults(row, statePtr))
	}

	out := make([]USDailyRow, 0, len(byDate))
	for _, agg := range byDate {
		out = append(out, *agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date > out[j].Date })
	return out, nil
}

func zeroIfNil(v *int64) int64 {
	if v == nil {
		return 0
	}
	return *v
}
