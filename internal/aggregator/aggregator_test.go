package aggregator

import (
	"testing"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/grouper"
	"github.com/ginjaninja78/registration-report/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sumFields = []string{"GROUP A", "GROUP B", "TOTAL"}

func rec(district, place string, a, b int64) types.Record {
	return types.Record{Fields: map[string]types.Value{
		"DISTRICT": types.TextValue(district),
		"PLACE":    types.TextValue(place),
		"GROUP A":  types.IntValue(a),
		"GROUP B":  types.IntValue(b),
		"TOTAL":    types.IntValue(a + b),
	}}
}

func group(t *testing.T, records ...types.Record) grouper.Result {
	t.Helper()
	g, err := grouper.New(config.Grouping{Primary: "DISTRICT", Fallback: "Unknown"}, "en")
	require.NoError(t, err)
	return g.Group(records)
}

func TestAggregate_Example(t *testing.T) {
	res := group(t, rec("A", "x", 2, 0), rec("B", "y", 5, 0), rec("A", "z", 3, 0))

	s := New([]string{"GROUP A"}, nil).Aggregate(res.Groups)

	require.Len(t, s.Groups, 2)
	assert.Equal(t, "A", s.Groups[0].Key)
	assert.Equal(t, int64(5), s.Groups[0].Totals["GROUP A"])
	assert.Equal(t, "B", s.Groups[1].Key)
	assert.Equal(t, int64(5), s.Groups[1].Totals["GROUP A"])
	assert.Equal(t, int64(10), s.GrandTotal["GROUP A"])
	assert.Equal(t, 3, s.Records)
}

func TestAggregate_GrandTotalEqualsSumOfGroups(t *testing.T) {
	var records []types.Record
	for i := 0; i < 40; i++ {
		records = append(records, rec(string(rune('A'+i%5)), "p", int64(i), int64(i*3%7)))
	}
	s := New(sumFields, nil).Aggregate(group(t, records...).Groups)

	for _, f := range sumFields {
		var sum int64
		for _, g := range s.Groups {
			sum += g.Totals[f]
		}
		assert.Equal(t, sum, s.GrandTotal[f], f)
	}
	assert.Equal(t, 40, s.Records)
}

func TestAggregate_FallbackContributesNothing(t *testing.T) {
	res := group(t, rec("", "x", 100, 100), rec("A", "y", 1, 2))
	require.Equal(t, 1, res.Excluded)

	s := New(sumFields, []string{"PLACE"}).Aggregate(res.Groups)

	assert.Equal(t, types.Totals{"GROUP A": 1, "GROUP B": 2, "TOTAL": 3}, s.GrandTotal)
	assert.Equal(t, 1, s.Distinct["PLACE"])
	assert.Equal(t, 1, s.Records)
}

func TestAggregate_NoGroups(t *testing.T) {
	s := New(sumFields, []string{"PLACE"}).Aggregate(nil)

	assert.Empty(t, s.Groups)
	assert.Equal(t, types.Totals{"GROUP A": 0, "GROUP B": 0, "TOTAL": 0}, s.GrandTotal)
	assert.Equal(t, 0, s.Distinct["PLACE"])
	assert.Zero(t, s.Records)
}

func TestAggregate_DistinctCounts(t *testing.T) {
	res := group(t,
		rec("A", "Jatni", 1, 0),
		rec("A", " Jatni ", 1, 0),
		rec("B", "Puri", 1, 0),
		rec("B", "", 1, 0),
	)
	s := New(sumFields, []string{"PLACE"}).Aggregate(res.Groups)
	assert.Equal(t, 2, s.Distinct["PLACE"])
}

func TestAggregate_DoesNotModifyInput(t *testing.T) {
	res := group(t, rec("A", "x", 1, 1))
	New(sumFields, nil).Aggregate(res.Groups)
	assert.Nil(t, res.Groups[0].Totals)
}
