package csvparser

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/normalizer"
	"github.com/ginjaninja78/registration-report/internal/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"
)

func TestEncode(t *testing.T) {
	recs := []types.Record{
		{Fields: map[string]types.Value{"DISTRICT": types.TextValue("Puri"), "GROUP A": types.IntValue(3)}},
		{Fields: map[string]types.Value{"DISTRICT": types.TextValue("Angul")}},
	}

	got := Encode(recs, []string{"DISTRICT", "GROUP A"})

	want := "DISTRICT,GROUP A\n" +
		`"Puri","3"` + "\n" +
		`"Angul",""`
	assert.Equal(t, want, got)
}

func TestEncode_LineBreaksInValues(t *testing.T) {
	recs := []types.Record{
		{Fields: map[string]types.Value{
			"DISTRICT":    types.TextValue("Puri"),
			"COORDINATOR": types.TextValue("Ram\n9876543210"),
			"ADDRESS":     types.TextValue("Temple Road\r\nPuri\rOdisha"),
		}},
	}
	fields := []string{"DISTRICT", "COORDINATOR", "ADDRESS"}

	text := Encode(recs, fields)
	assert.Equal(t, "DISTRICT,COORDINATOR,ADDRESS\n"+`"Puri","Ram 9876543210","Temple Road Puri Odisha"`, text)

	got, err := Decode(text)
	require.NoError(t, err)
	assert.Equal(t, []types.RawRecord{
		{"DISTRICT": "Puri", "COORDINATOR": "Ram 9876543210", "ADDRESS": "Temple Road Puri Odisha"},
	}, got)
}

func TestDecode_QuotedHeaders(t *testing.T) {
	got, err := Decode(`"DISTRICT", "GROUP A"` + "\n" + `"Puri","3"`)
	require.NoError(t, err)
	assert.Equal(t, []types.RawRecord{{"DISTRICT": "Puri", "GROUP A": "3"}}, got)
}

func TestEncode_NoRecords(t *testing.T) {
	assert.Equal(t, "A,B", Encode(nil, []string{"A", "B"}))
}

func TestDecode(t *testing.T) {
	text := "DISTRICT, BLOCK ,GROUP A\n" +
		"\n" +
		`"Puri","Satyabadi","4"` + "\n" +
		`  Angul ,Talcher` + "\n" +
		`"Cuttack","Tangi","1","extra"` + "\r\n" +
		"   \n"

	got, err := Decode(text)
	require.NoError(t, err)

	want := []types.RawRecord{
		{"DISTRICT": "Puri", "BLOCK": "Satyabadi", "GROUP A": "4"},
		{"DISTRICT": "Angul", "BLOCK": "Talcher"},
		{"DISTRICT": "Cuttack", "BLOCK": "Tangi", "GROUP A": "1"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Decode mismatch (-want +got):\n%s", diff)
	}
}

func TestDecode_Empty(t *testing.T) {
	for _, text := range []string{"", "\n\n", "   "} {
		got, err := Decode(text)
		require.NoError(t, err)
		assert.Empty(t, got)
	}

	got, err := Decode("ONLY,HEADERS")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRoundTrip(t *testing.T) {
	fields := []config.Field{
		{Name: "DISTRICT", Type: types.FieldText},
		{Name: "PLACE", Type: types.FieldText},
		{Name: "GROUP A", Type: types.FieldInt},
		{Name: "DATE OF COMPETITION", Type: types.FieldDate},
	}
	n, err := normalizer.New(fields)
	require.NoError(t, err)

	original := n.NormalizeAll([]types.RawRecord{
		{"DISTRICT": "Khordha", "PLACE": "Jatni", "GROUP A": float64(12), "DATE OF COMPETITION": "2025-01-15"},
		{"DISTRICT": "Puri", "PLACE": "", "GROUP A": float64(0)},
		{"DISTRICT": "", "PLACE": "Konark Sun Temple"},
	})

	text := Encode(original, n.Fields())
	raws, err := Decode(text)
	require.NoError(t, err)

	again := n.NormalizeAll(raws)
	if diff := cmp.Diff(original, again); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeReader_RFC4180(t *testing.T) {
	text := "\ufeffDISTRICT;PLACE;;NOTE\n" +
		`Puri;"Konark, Sun Temple";x;"said ""hi"""` + "\n" +
		";;;\n" +
		"Angul;Talcher\n"

	got, err := DecodeReader(strings.NewReader(text), config.CSVSettings{
		Mode:      config.CSVModeRFC4180,
		Delimiter: "semicolon",
	})
	require.NoError(t, err)

	want := []types.RawRecord{
		{"DISTRICT": "Puri", "PLACE": "Konark, Sun Temple", "Column_3": "x", "NOTE": `said "hi"`},
		{"DISTRICT": "Angul", "PLACE": "Talcher"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("DecodeReader mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodeReader_NaiveIsDefault(t *testing.T) {
	got, err := DecodeReader(strings.NewReader("A,B\n\"1\",\"2\""), config.CSVSettings{})
	require.NoError(t, err)
	assert.Equal(t, []types.RawRecord{{"A": "1", "B": "2"}}, got)
}

func TestDecodeReader_Encoding(t *testing.T) {
	encoded, err := charmap.Windows1252.NewEncoder().String("PLACE\nCafé")
	require.NoError(t, err)
	require.NotEqual(t, "PLACE\nCafé", encoded)

	got, err := DecodeReader(strings.NewReader(encoded), config.CSVSettings{Encoding: "windows-1252"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Café", got[0]["PLACE"])

	_, err = DecodeReader(strings.NewReader("A"), config.CSVSettings{Encoding: "klingon"})
	assert.ErrorContains(t, err, "unsupported encoding")
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("DISTRICT\nPuri\n"), 0o644))

	got, err := ParseFile(path, config.CSVSettings{})
	require.NoError(t, err)
	assert.Equal(t, []types.RawRecord{{"DISTRICT": "Puri"}}, got)

	_, err = ParseFile(filepath.Join(t.TempDir(), "missing.csv"), config.CSVSettings{})
	assert.Error(t, err)
}
