package config

import "github.com/ginjaninja78/registration-report/internal/types"

// Canonical field names of the competition registration sheet.
const (
	FieldSerial               = "SL NO"
	FieldBlock                = "BLOCK"
	FieldBlockCoordinator1    = "BLOCK COORDINATOR WITH CONTACT NO.1"
	FieldBlockCoordinator2    = "BLOCK COORDINATOR WITH CONTACT NO.2"
	FieldDate                 = "DATE OF COMPETITION"
	FieldDistrict             = "DISTRICT"
	FieldDistrictCoordinator1 = "DISTRICT COORDINATOR WITH CONTACT NO.1"
	FieldDistrictCoordinator2 = "DISTRICT COORDINATOR WITH CONTACT NO.2"
	FieldGroupA               = "GROUP A"
	FieldGroupB               = "GROUP B"
	FieldGroupC               = "GROUP C"
	FieldGroupD               = "GROUP D"
	FieldPlace                = "PLACE"
	FieldTotal                = "TOTAL NO OF PARTICIPANTS"
	FieldVenue                = "VENUE"
	FieldYear                 = "YEAR OF COMPETITION"
)

// Default returns the configuration of the state-level chanting competition
// report. A config file only needs to list what differs from it.
func Default() *Config {
	cfg := &Config{
		Source: SourceConfig{
			Kind:    "http",
			Retries: 2,
		},
		Report: ReportSettings{
			Title:           "7TH ODISHA STATE LEVEL GEETA CHANTING COMPETITION 2025",
			Locale:          "en-IN",
			SummaryLabel:    "Summary",
			GrandTotalLabel: "STATE TOTAL ({PLACE} Places)",
			LabelColumn:     FieldPlace,
		},
		Fields: []Field{
			{Name: FieldSerial, Type: types.FieldInt, Aliases: []string{"SL. NO.", "SL.NO", "S NO"}},
			{Name: FieldBlock, Aliases: []string{"BLOCK NAME"}},
			{Name: FieldBlockCoordinator1, Aliases: []string{"BLOCK COORDINATOR WITH CONTACT NO. 1"}},
			{Name: FieldBlockCoordinator2, Aliases: []string{"BLOCK COORDINATOR WITH CONTACT NO. 2"}},
			{Name: FieldDate, Type: types.FieldDate, Aliases: []string{"DATE", "COMPETITION DATE"}},
			{Name: FieldDistrict, Required: true, Aliases: []string{"DISTRICT NAME"}},
			{Name: FieldDistrictCoordinator1, Aliases: []string{"DISTRICT COORDINATOR WITH CONTACT NO. 1"}},
			{Name: FieldDistrictCoordinator2, Aliases: []string{"DISTRICT COORDINATOR WITH CONTACT NO. 2"}},
			{Name: FieldGroupA, Type: types.FieldInt, Aliases: []string{"A"}},
			{Name: FieldGroupB, Type: types.FieldInt, Aliases: []string{"B"}},
			{Name: FieldGroupC, Type: types.FieldInt, Aliases: []string{"C"}},
			{Name: FieldGroupD, Type: types.FieldInt, Aliases: []string{"D"}},
			{Name: FieldPlace},
			{Name: FieldTotal, Type: types.FieldInt, Aliases: []string{"TOTAL", "TOTAL PARTICIPANTS"}},
			{Name: FieldVenue},
			{Name: FieldYear, Type: types.FieldInt, Aliases: []string{"YEAR"}},
		},
		Grouping: Grouping{
			Primary:   FieldDistrict,
			Secondary: FieldBlock,
			Fallback:  "Unknown",
		},
		Aggregation: Aggregation{
			SumFields:      []string{FieldGroupA, FieldGroupB, FieldGroupC, FieldGroupD, FieldTotal},
			DistinctFields: []string{FieldPlace, FieldBlock, FieldVenue},
		},
		Columns: []Column{
			{Label: "SL. NO.", Source: ColumnSerial},
			{Label: "District", Source: ColumnGroup},
			{Label: "Block", Field: FieldBlock},
			{Label: "Place", Field: FieldPlace},
			{Label: "Date", Field: FieldDate},
			{Label: "A", Field: FieldGroupA},
			{Label: "B", Field: FieldGroupB},
			{Label: "C", Field: FieldGroupC},
			{Label: "D", Field: FieldGroupD},
			{Label: "Total", Field: FieldTotal},
		},
		Page: Page{
			Capacity:     40,
			HeaderHeight: 1,
		},
	}
	cfg.applyDefaults()
	return cfg
}
