package core

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sheetbridge/sheetbridge/internal/config"
)

func init() {
	Register(SchemaDefinition{
		Info: SchemaInfo{Key: "test_statement", Label: "Test statement"},
		FieldSpecs: []FieldSpec{
			{Name: "Polisnummer", Type: FieldText, Required: true},
			{Name: "Relatienaam", Type: FieldText},
			{Name: "Bruto", Type: FieldNumeric, Required: true},
			{Name: "Netto", Type: FieldNumeric},
			{Name: "Valuta", Type: FieldText},
			{Name: "Provisie", Type: FieldNumeric},
		},
	})
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Upload.MaxFileSize = 1 << 20
	cfg.Upload.MaxConcurrent = 2
	cfg.Upload.MaxWait = time.Second
	cfg.Upload.SessionTTL = time.Hour
	cfg.Mapping.Threshold = 30
	return cfg
}

// sampleCSV is a messy export: title row, blank row, header, then data.
const sampleCSV = `Statement maart,,,,
,,,,
Polisnummer,Relatienaam,Bruto,Netto,Valuta
P-001,Jansen BV,"1.000,50",900,EUR
P-002,De Vries,250,200,EUR
`

func analyzeSample(t *testing.T, s *Service) *AnalysisResult {
	t.Helper()
	res, err := s.Analyze(context.Background(), "test_statement", "maart.csv", []byte(sampleCSV), "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	return res
}

// ----------------------------------------------------------------------------
// Analyze Tests
// ----------------------------------------------------------------------------

func TestAnalyzeDetectsTable(t *testing.T) {
	s := NewService(testConfig())
	res := analyzeSample(t, s)

	if res.SessionID == "" {
		t.Error("SessionID is empty")
	}
	if res.Section.HeaderRow != 2 {
		t.Errorf("HeaderRow = %d, want 2", res.Section.HeaderRow)
	}
	if res.Section.DataRowCount() != 2 {
		t.Errorf("DataRowCount() = %d, want 2", res.Section.DataRowCount())
	}
	if res.Section.Confidence <= 0 {
		t.Errorf("Confidence = %f, want > 0", res.Section.Confidence)
	}

	wantHeaders := []string{"Polisnummer", "Relatienaam", "Bruto", "Netto", "Valuta"}
	if len(res.Headers) != len(wantHeaders) {
		t.Fatalf("Headers = %v, want %v", res.Headers, wantHeaders)
	}
	for i, h := range wantHeaders {
		if res.Headers[i] != h {
			t.Errorf("Headers[%d] = %q, want %q", i, res.Headers[i], h)
		}
	}
}

func TestAnalyzeSuggestsMapping(t *testing.T) {
	s := NewService(testConfig())
	res := analyzeSample(t, s)

	// Exact header matches map straight onto the schema fields.
	for _, field := range []string{"Polisnummer", "Relatienaam", "Bruto", "Netto", "Valuta"} {
		src := ParseFieldSource(res.Suggested[field])
		if src.Kind != SourceColumn || src.Value != field {
			t.Errorf("Suggested[%q] = %q, want column %q", field, res.Suggested[field], field)
		}
		if res.Confidences[field] != 100 {
			t.Errorf("Confidences[%q] = %f, want 100", field, res.Confidences[field])
		}
	}

	// No source column resembles Provisie.
	found := false
	for _, f := range res.Unmapped {
		if f == "Provisie" {
			found = true
		}
	}
	if !found {
		t.Errorf("Unmapped = %v, want to include Provisie", res.Unmapped)
	}
}

func TestAnalyzeSampleRows(t *testing.T) {
	s := NewService(testConfig())
	res := analyzeSample(t, s)

	if len(res.SampleRows) != 2 {
		t.Fatalf("SampleRows = %d rows, want 2", len(res.SampleRows))
	}
	if got := res.SampleRows[0]["Polisnummer"]; got != "P-001" {
		t.Errorf("SampleRows[0][Polisnummer] = %q, want P-001", got)
	}
	if got := res.SampleRows[1]["Bruto"]; got != "250" {
		t.Errorf("SampleRows[1][Bruto] = %q, want 250", got)
	}
}

func TestAnalyzeInputErrors(t *testing.T) {
	s := NewService(testConfig())
	ctx := context.Background()

	tests := []struct {
		name    string
		schema  string
		file    string
		data    []byte
		wantErr error
	}{
		{"unknown schema", "nope", "a.csv", []byte("x"), ErrUnknownSchema},
		{"empty file", "test_statement", "a.csv", nil, ErrEmptyFile},
		{"unsupported type", "test_statement", "a.pdf", []byte("x"), ErrUnsupportedFileType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Analyze(ctx, tt.schema, tt.file, tt.data, "")
			if err == nil {
				t.Fatal("Analyze() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr.Error()) {
				t.Errorf("Analyze() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestAnalyzeFileTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 10
	s := NewService(cfg)

	_, err := s.Analyze(context.Background(), "test_statement", "a.csv", []byte(sampleCSV), "")
	if err == nil || !strings.Contains(err.Error(), ErrFileTooLarge.Error()) {
		t.Errorf("Analyze() error = %v, want %v", err, ErrFileTooLarge)
	}
}

func TestAnalyzeUndetectableSheet(t *testing.T) {
	s := NewService(testConfig())

	// A sheet with one sparse column never produces a header candidate;
	// analysis still succeeds but degrades.
	res, err := s.Analyze(context.Background(), "test_statement", "x.csv",
		[]byte("a,,,,\nb,,,,\n"), "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.Section.Confidence != 0 {
		t.Errorf("Confidence = %f, want 0", res.Section.Confidence)
	}
	if res.Section.Reason == "" {
		t.Error("Reason is empty, want an explanation")
	}
	if len(res.Suggested) != 0 {
		t.Errorf("Suggested = %v, want empty", res.Suggested)
	}
}

// ----------------------------------------------------------------------------
// Preview and Convert Tests
// ----------------------------------------------------------------------------

func TestConvert(t *testing.T) {
	s := NewService(testConfig())
	res := analyzeSample(t, s)

	m := ColumnMapping{
		"Polisnummer": "Polisnummer",
		"Relatienaam": "Relatienaam",
		"Bruto":       "CALC:ROUND(Bruto * 1.21, 2)",
		"Valuta":      "FIXED:EUR",
	}

	out, err := s.Convert(context.Background(), res.SessionID, m)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if out.RowCount != 2 {
		t.Fatalf("RowCount = %d, want 2", out.RowCount)
	}

	first := out.Records[0]
	if first["Polisnummer"] != "P-001" {
		t.Errorf("Polisnummer = %q, want P-001", first["Polisnummer"])
	}
	// European "1.000,50" times 1.21, rounded.
	if first["Bruto"] != "1210.61" {
		t.Errorf("Bruto = %q, want 1210.61", first["Bruto"])
	}
	if first["Valuta"] != "EUR" {
		t.Errorf("Valuta = %q, want EUR", first["Valuta"])
	}
	// Unmapped fields come back empty, not absent.
	if v, ok := first["Netto"]; !ok || v != "" {
		t.Errorf("Netto = %q (present=%v), want empty string", v, ok)
	}
}

func TestConvertNoTableDetected(t *testing.T) {
	s := NewService(testConfig())

	res, err := s.Analyze(context.Background(), "test_statement", "x.csv",
		[]byte("a,,,,\nb,,,,\n"), "")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	m := ColumnMapping{"Polisnummer": "a"}

	if _, err := s.Convert(context.Background(), res.SessionID, m); !errors.Is(err, ErrNoTableDetected) {
		t.Errorf("Convert() error = %v, want %v", err, ErrNoTableDetected)
	}
	if _, err := s.Preview(context.Background(), res.SessionID, m, 5); !errors.Is(err, ErrNoTableDetected) {
		t.Errorf("Preview() error = %v, want %v", err, ErrNoTableDetected)
	}
}

func TestPreviewLimit(t *testing.T) {
	s := NewService(testConfig())
	res := analyzeSample(t, s)

	m := ColumnMapping{"Polisnummer": "Polisnummer"}

	records, err := s.Preview(context.Background(), res.SessionID, m, 1)
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("Preview(limit=1) returned %d records, want 1", len(records))
	}
}

func TestPreviewSessionNotFound(t *testing.T) {
	s := NewService(testConfig())

	_, err := s.Preview(context.Background(), "no-such-session", ColumnMapping{}, 5)
	if err == nil || !strings.Contains(err.Error(), ErrSessionNotFound.Error()) {
		t.Errorf("Preview() error = %v, want %v", err, ErrSessionNotFound)
	}
}

func TestSessionExpiry(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.SessionTTL = time.Nanosecond
	s := NewService(cfg)
	res := analyzeSample(t, s)

	time.Sleep(time.Millisecond)

	_, err := s.GetSession(res.SessionID)
	if err == nil || !strings.Contains(err.Error(), ErrSessionNotFound.Error()) {
		t.Errorf("GetSession() after TTL error = %v, want %v", err, ErrSessionNotFound)
	}
}

// ----------------------------------------------------------------------------
// ValidateMapping Tests
// ----------------------------------------------------------------------------

func TestValidateMapping(t *testing.T) {
	s := NewService(testConfig())

	tests := []struct {
		name       string
		m          ColumnMapping
		wantIssues int
	}{
		{
			name: "valid mapping",
			m: ColumnMapping{
				"Polisnummer": "Polisnr",
				"Bruto":       "CALC:ROUND(Bruto, 2)",
			},
			wantIssues: 0,
		},
		{
			name: "unknown target field",
			m: ColumnMapping{
				"Polisnummer": "Polisnr",
				"Bruto":       "Bruto",
				"Bestaat":     "x",
			},
			wantIssues: 1,
		},
		{
			name: "bad formula",
			m: ColumnMapping{
				"Polisnummer": "Polisnr",
				"Bruto":       "CALC:VLOOKUP(A, B)",
			},
			wantIssues: 1,
		},
		{
			name:       "missing required fields",
			m:          ColumnMapping{"Valuta": "Valuta"},
			wantIssues: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues, err := s.ValidateMapping("test_statement", tt.m)
			if err != nil {
				t.Fatalf("ValidateMapping() error = %v", err)
			}
			if len(issues) != tt.wantIssues {
				t.Errorf("ValidateMapping() = %v, want %d issues", issues, tt.wantIssues)
			}
		})
	}
}

func TestValidateMappingUnknownSchema(t *testing.T) {
	s := NewService(testConfig())

	_, err := s.ValidateMapping("nope", ColumnMapping{})
	if err == nil || !strings.Contains(err.Error(), ErrUnknownSchema.Error()) {
		t.Errorf("ValidateMapping() error = %v, want %v", err, ErrUnknownSchema)
	}
}

// ----------------------------------------------------------------------------
// FieldSource Tests
// ----------------------------------------------------------------------------

func TestParseFieldSource(t *testing.T) {
	tests := []struct {
		input string
		want  FieldSource
	}{
		{"Bruto", FieldSource{Kind: SourceColumn, Value: "Bruto"}},
		{"FIXED:EUR", FieldSource{Kind: SourceFixed, Value: "EUR"}},
		{"CALC:ROUND(Bruto, 2)", FieldSource{Kind: SourceFormula, Value: "ROUND(Bruto, 2)"}},
		{"FIXED:", FieldSource{Kind: SourceFixed, Value: ""}},
		{"", FieldSource{Kind: SourceColumn, Value: ""}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseFieldSource(tt.input)
			if got != tt.want {
				t.Errorf("ParseFieldSource(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
			// Round trip back to the persisted form.
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}
