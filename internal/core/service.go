package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sheetbridge/sheetbridge/internal/config"
	"github.com/sheetbridge/sheetbridge/internal/detect"
	"github.com/sheetbridge/sheetbridge/internal/formula"
	"github.com/sheetbridge/sheetbridge/internal/grid"
	"github.com/sheetbridge/sheetbridge/internal/mapping"
)

// Sentinel errors surfaced to callers. Their texts feed MapError patterns.
var (
	ErrUnknownSchema       = errors.New("unknown schema")
	ErrSessionNotFound     = errors.New("analysis session not found")
	ErrEmptyFile           = errors.New("empty file")
	ErrFileTooLarge        = errors.New("file too large")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrNoTableDetected     = errors.New("no table detected")
)

// Service provides the core pipeline: analyze a source file, suggest a
// column mapping, and convert rows into a target schema.
//
// Analysis state is held in memory only. Each analysis produces a session
// keyed by UUID whose Grid snapshot is reused by every later preview and
// conversion call, so detected row and column indices never desynchronize.
type Service struct {
	cfg     *config.Config
	limiter *AnalysisLimiter

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Session is one analyzed source file awaiting mapping and conversion.
type Session struct {
	ID        string
	FileName  string
	SheetName string
	SchemaKey string
	CreatedAt time.Time

	Grid    *grid.Grid
	Section detect.Section
	Headers []string
}

// AnalysisResult is the response of Analyze.
type AnalysisResult struct {
	SessionID string `json:"sessionId"`
	FileName  string `json:"fileName"`
	SheetName string `json:"sheetName,omitempty"`
	RowCount  int    `json:"rowCount"`
	ColCount  int    `json:"colCount"`

	Section detect.Section `json:"section"`
	Headers []string       `json:"headers"`

	// TableRows and TableCols count how many rows/columns meet the density
	// membership cutoffs, as a diagnostic for low-confidence detections.
	TableRows int `json:"tableRows"`
	TableCols int `json:"tableCols"`

	Suggested   ColumnMapping      `json:"suggested"`
	Confidences map[string]float64 `json:"confidences"`
	Unmapped    []string           `json:"unmapped,omitempty"`

	SampleRows []map[string]string `json:"sampleRows,omitempty"`
}

// ConvertResult is the response of Convert.
type ConvertResult struct {
	Records  []Record `json:"records"`
	RowCount int      `json:"rowCount"`
}

// maxSampleRows limits the number of data rows echoed back by Analyze.
const maxSampleRows = 5

// NewService creates a new Service instance.
func NewService(cfg *config.Config) *Service {
	return &Service{
		cfg:      cfg,
		limiter:  NewAnalysisLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWait),
		sessions: make(map[string]*Session),
	}
}

// ListSchemas returns information about all registered target schemas.
func (s *Service) ListSchemas() []SchemaInfo {
	defs := All()
	infos := make([]SchemaInfo, len(defs))
	for i, def := range defs {
		infos[i] = def.Info
	}
	return infos
}

// Analyze loads a source file, detects its table region and suggests a
// column mapping onto the target schema. The analyzed grid is retained in a
// session for later Preview and Convert calls.
func (s *Service) Analyze(ctx context.Context, schemaKey, fileName string, data []byte, sheetName string) (*AnalysisResult, error) {
	def, ok := Get(schemaKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, schemaKey)
	}

	if len(data) == 0 {
		return nil, ErrEmptyFile
	}
	if sizeLimit := s.cfg.Upload.MaxFileSize; sizeLimit > 0 && int64(len(data)) > sizeLimit {
		return nil, fmt.Errorf("%w: %d bytes (limit %d)", ErrFileTooLarge, len(data), sizeLimit)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	g, err := loadGrid(fileName, data, sheetName)
	if err != nil {
		return nil, err
	}

	params := detect.DefaultParams()
	if s.cfg.Detect.HeaderMinDensity > 0 {
		params.HeaderMinDensity = s.cfg.Detect.HeaderMinDensity
	}
	if s.cfg.Detect.StartColMinDensity > 0 {
		params.StartColMinDensity = s.cfg.Detect.StartColMinDensity
	}

	section := detect.DetectWithParams(g, params)
	profile := detect.Densities(g)

	sess := &Session{
		ID:        uuid.NewString(),
		FileName:  fileName,
		SheetName: sheetName,
		SchemaKey: schemaKey,
		CreatedAt: time.Now(),
		Grid:      g,
		Section:   section,
	}

	res := &AnalysisResult{
		SessionID: sess.ID,
		FileName:  fileName,
		SheetName: sheetName,
		RowCount:  g.RowCount(),
		ColCount:  g.ColCount(),
		Section:   section,
		TableRows: profile.TableRowCount(),
		TableCols: profile.TableColCount(),
		Suggested: ColumnMapping{},
	}

	if section.Confidence > 0 && section.HasHeader() {
		sess.Headers = headerNames(g, section)
		res.Headers = sess.Headers
		res.SampleRows = rowMaps(sess, maxSampleRows)

		suggestion, err := mapping.Map(sess.Headers, def.Info.Fields, s.cfg.Mapping.Threshold)
		if err == nil {
			res.Confidences = suggestion.Confidences
			for target, source := range suggestion.Assignments {
				res.Suggested[target] = FieldSource{Kind: SourceColumn, Value: source}.String()
			}
			for _, field := range def.Info.Fields {
				if _, assigned := suggestion.Assignments[field]; !assigned {
					res.Unmapped = append(res.Unmapped, field)
				}
			}
		} else {
			res.Unmapped = def.Info.Fields
		}
	} else {
		slog.Info("table detection degraded",
			"file", fileName,
			"reason", section.Reason,
		)
	}

	s.storeSession(sess)

	slog.Info("file analyzed",
		"session_id", sess.ID,
		"file", fileName,
		"rows", g.RowCount(),
		"cols", g.ColCount(),
		"confidence", section.Confidence,
		"mapped_fields", len(res.Suggested),
	)

	return res, nil
}

// GetSession returns an active analysis session by ID.
func (s *Service) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok || s.expired(sess) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return sess, nil
}

// Preview converts the first limit data rows of a session using the given
// mapping. Conversion is best effort: fields whose formula fails come back
// empty, never as an error.
func (s *Service) Preview(ctx context.Context, sessionID string, m ColumnMapping, limit int) ([]Record, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}
	return s.applyMapping(sess, m, limit)
}

// Convert converts all data rows of a session using the given mapping.
func (s *Service) Convert(ctx context.Context, sessionID string, m ColumnMapping) (*ConvertResult, error) {
	sess, err := s.GetSession(sessionID)
	if err != nil {
		return nil, err
	}

	records, err := s.applyMapping(sess, m, 0)
	if err != nil {
		return nil, err
	}

	slog.Info("conversion completed",
		"session_id", sessionID,
		"rows", len(records),
	)

	return &ConvertResult{Records: records, RowCount: len(records)}, nil
}

// ValidateMapping checks a mapping against its target schema without
// touching row data: expressions must parse against the function allow-list,
// targets must exist in the schema, and required fields must be mapped.
func (s *Service) ValidateMapping(schemaKey string, m ColumnMapping) ([]FieldIssue, error) {
	def, ok := Get(schemaKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, schemaKey)
	}

	known := make(map[string]FieldSpec, len(def.FieldSpecs))
	for _, spec := range def.FieldSpecs {
		known[spec.Name] = spec
	}

	var issues []FieldIssue
	for target, raw := range m {
		if _, ok := known[target]; !ok {
			issues = append(issues, FieldIssue{Field: target, Message: "not a field of this schema"})
			continue
		}
		src := ParseFieldSource(raw)
		if src.Kind == SourceFormula {
			if err := formula.Check(src.Value); err != nil {
				issues = append(issues, FieldIssue{Field: target, Message: err.Error()})
			}
		}
	}

	for _, spec := range def.FieldSpecs {
		if !spec.Required {
			continue
		}
		if v, ok := m[spec.Name]; !ok || strings.TrimSpace(v) == "" {
			issues = append(issues, FieldIssue{Field: spec.Name, Message: "required field is not mapped"})
		}
	}

	return issues, nil
}

// applyMapping runs the mapping over the session's data rows.
// limit 0 means all rows.
func (s *Service) applyMapping(sess *Session, m ColumnMapping, limit int) ([]Record, error) {
	if sess.Section.Confidence == 0 || !sess.Section.HasHeader() {
		return nil, fmt.Errorf("%w: %s", ErrNoTableDetected, sess.Section.Reason)
	}

	def, ok := Get(sess.SchemaKey)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, sess.SchemaKey)
	}

	rows := rowMaps(sess, limit)
	records := make([]Record, 0, len(rows))

	for _, row := range rows {
		eval := formula.NewEvaluator(row)
		rec := make(Record, len(def.Info.Fields))

		for _, field := range def.Info.Fields {
			raw, mapped := m[field]
			if !mapped {
				rec[field] = ""
				continue
			}
			src := ParseFieldSource(raw)
			switch src.Kind {
			case SourceColumn:
				rec[field] = row[src.Value]
			case SourceFixed:
				rec[field] = src.Value
			case SourceFormula:
				rec[field] = eval.EvaluateText(src.Value)
			}
		}

		records = append(records, rec)
	}

	return records, nil
}

// storeSession saves a session and evicts expired ones.
func (s *Service) storeSession(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, old := range s.sessions {
		if s.expired(old) {
			delete(s.sessions, id)
		}
	}
	s.sessions[sess.ID] = sess
}

// ActiveAnalyses reports how many analyses are currently in flight.
func (s *Service) ActiveAnalyses() int {
	return s.limiter.ActiveCount()
}

// WaitForAnalyses blocks until all in-flight analyses finish or the
// context expires. Used during graceful shutdown.
func (s *Service) WaitForAnalyses(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) expired(sess *Session) bool {
	ttl := s.cfg.Upload.SessionTTL
	if ttl <= 0 {
		return false
	}
	return time.Since(sess.CreatedAt) > ttl
}

// loadGrid picks a loader by file extension. Excel workbooks go through
// excelize; everything else is treated as CSV.
func loadGrid(fileName string, data []byte, sheetName string) (*grid.Grid, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xlsm":
		return grid.FromXLSX(data, sheetName)
	case ".csv", ".txt", "":
		return grid.FromCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFileType, filepath.Ext(fileName))
	}
}

// headerNames extracts cleaned column names from the detected header row.
// Blank header cells inside the span get positional names so every column
// stays addressable.
func headerNames(g *grid.Grid, sec detect.Section) []string {
	names := make([]string, 0, sec.EndCol-sec.StartCol+1)
	seen := make(map[string]int)

	for col := sec.StartCol; col <= sec.EndCol; col++ {
		name := grid.CleanCell(g.Value(sec.HeaderRow, col))
		if name == "" {
			name = fmt.Sprintf("Column %d", col+1)
		}
		// Disambiguate duplicate header names positionally.
		if n := seen[name]; n > 0 {
			seen[name] = n + 1
			name = fmt.Sprintf("%s (%d)", name, n+1)
		} else {
			seen[name] = 1
		}
		names = append(names, name)
	}

	return names
}

// rowMaps slices the session's data rows into header-keyed maps.
// limit 0 means all rows. Fully empty rows are skipped.
func rowMaps(sess *Session, limit int) []map[string]string {
	sec := sess.Section
	if !sec.HasHeader() || sec.DataEnd < sec.DataStart {
		return nil
	}

	var rows []map[string]string
	for r := sec.DataStart; r <= sec.DataEnd; r++ {
		if limit > 0 && len(rows) >= limit {
			break
		}

		row := make(map[string]string, len(sess.Headers))
		empty := true
		for i, name := range sess.Headers {
			v := sess.Grid.Value(r, sec.StartCol+i)
			if strings.TrimSpace(v) != "" {
				empty = false
			}
			row[name] = v
		}
		if empty {
			continue
		}
		rows = append(rows, row)
	}

	return rows
}
