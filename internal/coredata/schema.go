package coredata

// The submitted-field schema is declared statically rather than read off the
// model at runtime: every ingestable field is listed here with its kind, and
// the validator consults nothing else.

// Key fields identify a row and are handled separately from data fields.
var keyFields = map[string]struct{}{
	"state":   {},
	"date":    {},
	"batchId": {},
}

// numericFields are the CoreData columns that must parse as non-negative
// integers when present.
var numericFields = []string{
	"positive",
	"negative",
	"pending",
	"hospitalizedCurrently",
	"hospitalizedCumulative",
	"inIcuCurrently",
	"inIcuCumulative",
	"onVentilatorCurrently",
	"onVentilatorCumulative",
	"recovered",
	"death",
	"deathConfirmed",
	"deathProbable",
	"totalTestsViral",
	"positiveTestsViral",
	"negativeTestsViral",
	"positiveCasesViral",
	"totalTestsPeopleViral",
	"totalTestEncountersViral",
	"totalTestsAntibody",
	"positiveTestsAntibody",
	"negativeTestsAntibody",
	"totalTestsPeopleAntibody",
	"positiveTestsPeopleAntibody",
	"negativeTestsPeopleAntibody",
	"totalTestsAntigen",
	"positiveTestsAntigen",
	"totalTestsPeopleAntigen",
	"positiveTestsPeopleAntigen",
}

// textFields are free-text columns, valid but never range-checked.
var textFields = []string{
	"dataQualityGrade",
	"sourceNotes",
}

// timestampFields carry instants. Exactly one of lastUpdateIsoUtc and
// lastUpdateEt must be present on every row.
var timestampFields = []string{
	"lastUpdateIsoUtc",
	"lastUpdateEt",
	"dateChecked",
}

var numericFieldSet = toSet(numericFields)
var validFieldSet = buildValidFieldSet()

func toSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return set
}

func buildValidFieldSet() map[string]struct{} {
	set := make(map[string]struct{})
	for _, group := range [][]string{numericFields, textFields, timestampFields} {
		for _, n := range group {
			set[n] = struct{}{}
		}
	}
	return set
}

// ValidFieldsChecker partitions requested field names into known CoreData
// data fields and unknown names. Key fields belong to neither bucket.
func ValidFieldsChecker(requested []string) (valid, unknown []string) {
	for _, name := range requested {
		if _, ok := keyFields[name]; ok {
			continue
		}
		if _, ok := validFieldSet[name]; ok {
			valid = append(valid, name)
		} else {
			unknown = append(unknown, name)
		}
	}
	return valid, unknown
}

// numericField returns the named column's value. The second return is false
// for names outside the numeric schema.
func (c *CoreData) numericField(name string) (*int64, bool) {
	switch name {
	case "positive":
		return c.Positive, true
	case "negative":
		return c.Negative, true
	case "pending":
		return c.Pending, true
	case "hospitalizedCurrently":
		return c.HospitalizedCurrently, true
	case "hospitalizedCumulative":
		return c.HospitalizedCumulative, true
	case "inIcuCurrently":
		return c.InIcuCurrently, true
	case "inIcuCumulative":
		return c.InIcuCumulative, true
	case "onVentilatorCurrently":
		return c.OnVentilatorCurrently, true
	case "onVentilatorCumulative":
		return c.OnVentilatorCumulative, true
	case "recovered":
		return c.Recovered, true
	case "death":
		return c.Death, true
	case "deathConfirmed":
		return c.DeathConfirmed, true
	case "deathProbable":
		return c.DeathProbable, true
	case "totalTestsViral":
		return c.TotalTestsViral, true
	case "positiveTestsViral":
		return c.PositiveTestsViral, true
	case "negativeTestsViral":
		return c.NegativeTestsViral, true
	case "positiveCasesViral":
		return c.PositiveCasesViral, true
	case "totalTestsPeopleViral":
		return c.TotalTestsPeopleViral, true
	case "totalTestEncountersViral":
		return c.TotalTestEncountersViral, true
	case "totalTestsAntibody":
		return c.TotalTestsAntibody, true
	case "positiveTestsAntibody":
		return c.PositiveTestsAntibody, true
	case "negativeTestsAntibody":
		return c.NegativeTestsAntibody, true
	case "totalTestsPeopleAntibody":
		return c.TotalTestsPeopleAntibody, true
	case "positiveTestsPeopleAntibody":
		return c.PositiveTestsPeopleAntibody, true
	case "negativeTestsPeopleAntibody":
		return c.NegativeTestsPeopleAntibody, true
	case "totalTestsAntigen":
		return c.TotalTestsAntigen, true
	case "positiveTestsAntigen":
		return c.PositiveTestsAntigen, true
	case "totalTestsPeopleAntigen":
		return c.TotalTestsPeopleAntigen, true
	case "positiveTestsPeopleAntigen":
		return c.PositiveTestsPeopleAntigen, true
	}
	return nil, false
}

func (c *CoreData) setNumericField(name string, v *int64) bool {
	switch name {
	case "positive":
		c.Positive = v
	case "negative":
		c.Negative = v
	case "pending":
		c.Pending = v
	case "hospitalizedCurrently":
		c.HospitalizedCurrently = v
	case "hospitalizedCumulative":
		c.HospitalizedCumulative = v
	case "inIcuCurrently":
		c.InIcuCurrently = v
	case "inIcuCumulative":
		c.InIcuCumulative = v
	case "onVentilatorCurrently":
		c.OnVentilatorCurrently = v
	case "onVentilatorCumulative":
		c.OnVentilatorCumulative = v
	case "recovered":
		c.Recovered = v
	case "death":
		c.Death = v
	case "deathConfirmed":
		c.DeathConfirmed = v
	case "deathProbable":
		c.DeathProbable = v
	case "totalTestsViral":
		c.TotalTestsViral = v
	case "positiveTestsViral":
		c.PositiveTestsViral = v
	case "negativeTestsViral":
		c.NegativeTestsViral = v
	case "positiveCasesViral":
		c.PositiveCasesViral = v
	case "totalTestsPeopleViral":
		c.TotalTestsPeopleViral = v
	case "totalTestEncountersViral":
		c.TotalTestEncountersViral = v
	case "totalTestsAntibody":
		c.TotalTestsAntibody = v
	case "positiveTestsAntibody":
		c.PositiveTestsAntibody = v
	case "negativeTestsAntibody":
		c.NegativeTestsAntibody = v
	case "totalTestsPeopleAntibody":
		c.TotalTestsPeopleAntibody = v
	case "positiveTestsPeopleAntibody":
		c.PositiveTestsPeopleAntibody = v
	case "negativeTestsPeopleAntibody":
		c.NegativeTestsPeopleAntibody = v
	case "totalTestsAntigen":
		c.TotalTestsAntigen = v
	case "positiveTestsAntigen":
		c.PositiveTestsAntigen = v
	case "totalTestsPeopleAntigen":
		c.TotalTestsPeopleAntigen = v
	case "positiveTestsPeopleAntigen":
		c.PositiveTestsPeopleAntigen = v
	default:
		return false
	}
	return true
}
