package report

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/types"
)

type staticSource struct {
	records []types.RawRecord
	err     error
}

func (s staticSource) Fetch(context.Context) ([]types.RawRecord, error) {
	return s.records, s.err
}

func sheet() []types.RawRecord {
	return []types.RawRecord{
		{"DISTRICT": "Puri", "BLOCK": "Satyabadi", "PLACE": "Sakhigopal", "GROUP A": float64(2), "TOTAL NO OF\nPARTICIPANTS": float64(2)},
		{"DISTRICT": "Angul", "BLOCK": "Talcher", "PLACE": "Talcher", "GROUP B": "5", "TOTAL NO OF PARTICIPANTS": "5"},
		{"DISTRICT": "", "BLOCK": "Nowhere", "GROUP A": float64(100), "TOTAL NO OF PARTICIPANTS": float64(100)},
		{"DISTRICT": "Puri", "BLOCK": "Brahmagiri", "PLACE": "Sakhigopal", "GROUP A": float64(3), "TOTAL NO OF PARTICIPANTS": float64(3)},
	}
}

func fixedClock() func() time.Time {
	t0 := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func TestRun(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c := NewContext(config.Default(), staticSource{records: sheet()},
		WithLogger(zap.New(core).Sugar()),
		WithClock(fixedClock()),
		WithReportID("r-1"),
	)

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "r-1", res.ReportID)
	assert.False(t, res.Malformed)
	assert.False(t, res.Empty)
	assert.Len(t, res.Records, 4)

	require.Len(t, res.Summary.Groups, 2)
	assert.Equal(t, "Angul", res.Summary.Groups[0].Key)
	assert.Equal(t, "Puri", res.Summary.Groups[1].Key)
	assert.Equal(t, int64(5), res.Summary.GrandTotal[config.FieldGroupA])
	assert.Equal(t, int64(10), res.Summary.GrandTotal[config.FieldTotal])
	assert.Equal(t, 2, res.Summary.Distinct[config.FieldPlace])

	assert.Equal(t, Stats{Fetched: 4, Reported: 3, Excluded: 1, Groups: 2, Pages: 1}, res.Stats)
	assert.Equal(t, 3, res.Layout.CountRows(types.DataRow))
	assert.Equal(t, 1, logs.FilterMessage("records without a group key left out of the report").Len())
	assert.Equal(t, 1, logs.FilterMessage("report built").Len())
}

func TestRun_Empty(t *testing.T) {
	c := NewContext(config.Default(), staticSource{}, WithLogger(zaptest.NewLogger(t).Sugar()))

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Empty)
	assert.False(t, res.Malformed)
	require.Len(t, res.Layout.Pages, 1)
	assert.Equal(t, 1, res.Layout.CountRows(types.GrandTotalRow))
	assert.Equal(t, "STATE TOTAL (0 Places)", res.Layout.Pages[0].Rows[1].Label)
}

func TestRun_Malformed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	src := staticSource{err: fmt.Errorf("%w: decode records: unexpected <", types.ErrMalformedInput)}
	c := NewContext(config.Default(), src, WithLogger(zap.New(core).Sugar()))

	res, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Malformed)
	assert.False(t, res.Empty)
	assert.Empty(t, res.Records)
	require.Len(t, res.Layout.Pages, 1)
	assert.Equal(t, 1, res.Layout.CountRows(types.GrandTotalRow))
	assert.Zero(t, res.Layout.CountRows(types.DataRow))
	assert.Equal(t, 1, logs.FilterMessage("source returned malformed data").Len())
}

func TestRun_FetchError(t *testing.T) {
	c := NewContext(config.Default(), staticSource{err: errors.New("connection refused")})
	_, err := c.Run(context.Background())
	assert.ErrorContains(t, err, "fetch records: connection refused")
}

func TestNewPipeline_BadConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Report.Locale = "!!"
	_, err := NewPipeline(cfg)
	assert.ErrorContains(t, err, "build grouper")
}

func TestNewContext_Defaults(t *testing.T) {
	a := NewContext(config.Default(), staticSource{})
	b := NewContext(config.Default(), staticSource{})
	assert.NotEmpty(t, a.ReportID)
	assert.NotEqual(t, a.ReportID, b.ReportID)
	assert.NotNil(t, a.Logger)
}
