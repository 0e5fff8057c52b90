package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/pointage/internal/attachment"
	"github.com/nurpe/pointage/internal/model"
	"github.com/nurpe/pointage/internal/report"
	"github.com/nurpe/pointage/internal/timecalc"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	pdfContentType  = "application/pdf"
)

// StateStore persists entry lists per (owner, period) and one daily rate
// per owner.
type StateStore interface {
	LoadEntries(ctx context.Context, owner string, period model.Period) ([]model.TimeEntry, bool, error)
	SaveEntries(ctx context.Context, owner string, period model.Period, entries []model.TimeEntry) error
	LoadDailyRate(ctx context.Context, owner string) (string, bool, error)
	SaveDailyRate(ctx context.Context, owner, rate string) error
}

type ExportGenerator interface {
	Generate(export model.MonthlyExport) ([]byte, error)
}

type TimesheetService struct {
	store StateStore
	excel ExportGenerator
	pdf   ExportGenerator
	log   zerolog.Logger
	now   func() time.Time

	mu sync.Mutex
}

func NewTimesheetService(store StateStore, excel, pdf ExportGenerator, log zerolog.Logger) *TimesheetService {
	return &TimesheetService{
		store: store,
		excel: excel,
		pdf:   pdf,
		log:   log,
		now:   time.Now,
	}
}

func (s *TimesheetService) LoadPeriod(ctx context.Context, owner string, period model.Period) (*model.PeriodState, error) {
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	entries := s.loadEntries(ctx, owner, period)
	rate := s.loadRate(ctx, owner)
	return buildState(period, entries, rate), nil
}

// AddEntry appends an empty entry dated today.
func (s *TimesheetService) AddEntry(ctx context.Context, owner string, period model.Period) (*model.TimeEntry, error) {
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := model.TimeEntry{
		ID:   uuid.New(),
		Date: s.now().Format("2006-01-02"),
	}
	entries := append(s.loadEntries(ctx, owner, period), entry)
	s.saveEntries(ctx, owner, period, entries)
	return &entry, nil
}

func (s *TimesheetService) UpdateEntry(ctx context.Context, owner string, period model.Period, id uuid.UUID, patch model.EntryPatch) (*model.TimeEntry, error) {
	if err := validatePatch(patch); err != nil {
		return nil, err
	}
	return s.mutateEntry(ctx, owner, period, id, func(e *model.TimeEntry) error {
		applyPatch(e, patch)
		return nil
	})
}

func (s *TimesheetService) DeleteEntry(ctx context.Context, owner string, period model.Period, id uuid.UUID) error {
	if err := period.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadEntries(ctx, owner, period)
	idx := indexOf(entries, id)
	if idx < 0 {
		return ErrNotFound
	}
	entries = append(entries[:idx], entries[idx+1:]...)
	s.saveEntries(ctx, owner, period, entries)
	return nil
}

// AttachFile validates and stores one document on the entry. A rejected
// upload leaves the entry untouched.
func (s *TimesheetService) AttachFile(ctx context.Context, owner string, period model.Period, id uuid.UUID, upload attachment.Upload) (*model.TimeEntry, error) {
	doc, err := attachment.Intake(upload)
	if err != nil {
		return nil, err
	}
	return s.mutateEntry(ctx, owner, period, id, func(e *model.TimeEntry) error {
		e.File = doc.Content
		e.FileName = doc.FileName
		e.FileType = doc.FileType
		return nil
	})
}

func (s *TimesheetService) RemoveAttachment(ctx context.Context, owner string, period model.Period, id uuid.UUID) (*model.TimeEntry, error) {
	return s.mutateEntry(ctx, owner, period, id, func(e *model.TimeEntry) error {
		e.File = ""
		e.FileName = ""
		e.FileType = ""
		return nil
	})
}

// Attachment returns the decoded document of an entry.
func (s *TimesheetService) Attachment(ctx context.Context, owner string, period model.Period, id uuid.UUID) (*model.ExportFile, error) {
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	entries := s.loadEntries(ctx, owner, period)
	idx := indexOf(entries, id)
	if idx < 0 || !entries[idx].HasAttachment() {
		return nil, ErrNotFound
	}
	entry := entries[idx]
	contentType, data, err := attachment.Decode(entry.File)
	if err != nil {
		return nil, err
	}
	if entry.FileType != "" {
		contentType = entry.FileType
	}
	return &model.ExportFile{
		FileName:    entry.FileName,
		ContentType: contentType,
		Content:     data,
	}, nil
}

func (s *TimesheetService) DailyRate(ctx context.Context, owner string) decimal.Decimal {
	return s.loadRate(ctx, owner)
}

// SetDailyRate stores the rate for every period of the owner. Entries are
// not touched; totals pick the new rate up on the next read.
func (s *TimesheetService) SetDailyRate(ctx context.Context, owner, raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	rate, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: daily rate must be a number", ErrInvalidInput)
	}
	if rate.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: daily rate must not be negative", ErrInvalidInput)
	}
	if err := s.store.SaveDailyRate(ctx, owner, rate.String()); err != nil {
		s.log.Error().Err(err).Str("owner", owner).Msg("save daily rate failed")
	}
	return rate, nil
}

func (s *TimesheetService) Export(ctx context.Context, owner string, period model.Period) (*model.ExportFile, error) {
	return s.export(ctx, owner, period, s.excel, ".xlsx", xlsxContentType)
}

func (s *TimesheetService) ExportPDF(ctx context.Context, owner string, period model.Period) (*model.ExportFile, error) {
	return s.export(ctx, owner, period, s.pdf, ".pdf", pdfContentType)
}

func (s *TimesheetService) export(ctx context.Context, owner string, period model.Period, gen ExportGenerator, ext, contentType string) (*model.ExportFile, error) {
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	entries := s.loadEntries(ctx, owner, period)
	rate := s.loadRate(ctx, owner)

	table, err := report.BuildMonthlyExport(period, entries, rate)
	if err != nil {
		if errors.Is(err, report.ErrNoEntries) {
			return nil, ErrNoEntries
		}
		return nil, err
	}

	content, err := gen.Generate(table)
	if err != nil {
		return nil, fmt.Errorf("generate %s: %w", ext, err)
	}
	return &model.ExportFile{
		FileName:    table.FileBaseName + ext,
		ContentType: contentType,
		Content:     content,
	}, nil
}

func (s *TimesheetService) mutateEntry(ctx context.Context, owner string, period model.Period, id uuid.UUID, mutate func(*model.TimeEntry) error) (*model.TimeEntry, error) {
	if err := period.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadEntries(ctx, owner, period)
	idx := indexOf(entries, id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	if err := mutate(&entries[idx]); err != nil {
		return nil, err
	}
	s.saveEntries(ctx, owner, period, entries)
	updated := entries[idx]
	return &updated, nil
}

// loadEntries treats an unreadable period as empty, like a fresh month.
func (s *TimesheetService) loadEntries(ctx context.Context, owner string, period model.Period) []model.TimeEntry {
	entries, ok, err := s.store.LoadEntries(ctx, owner, period)
	if err != nil {
		s.log.Warn().Err(err).Str("key", period.StorageKey()).Msg("load entries failed")
		return []model.TimeEntry{}
	}
	if !ok || entries == nil {
		return []model.TimeEntry{}
	}
	return entries
}

// saveEntries is fire-and-forget: failures are logged, never returned.
func (s *TimesheetService) saveEntries(ctx context.Context, owner string, period model.Period, entries []model.TimeEntry) {
	if err := s.store.SaveEntries(ctx, owner, period, entries); err != nil {
		s.log.Error().Err(err).Str("key", period.StorageKey()).Int("entries", len(entries)).Msg("save entries failed")
	}
}

func (s *TimesheetService) loadRate(ctx context.Context, owner string) decimal.Decimal {
	raw, ok, err := s.store.LoadDailyRate(ctx, owner)
	if err != nil {
		s.log.Warn().Err(err).Msg("load daily rate failed")
		return decimal.Zero
	}
	if !ok {
		return decimal.Zero
	}
	return timecalc.ParseRate(raw)
}

func buildState(period model.Period, entries []model.TimeEntry, rate decimal.Decimal) *model.PeriodState {
	return &model.PeriodState{
		Year:    period.Year,
		Month:   int(period.Month),
		Label:   period.Label(),
		Entries: entries,
		Summary: timecalc.Summarize(entries, rate),
	}
}

func applyPatch(e *model.TimeEntry, patch model.EntryPatch) {
	if patch.Date != nil {
		e.Date = strings.TrimSpace(*patch.Date)
	}
	if patch.RouteNumber != nil {
		e.RouteNumber = *patch.RouteNumber
	}
	if patch.PointCount != nil {
		e.PointCount = *patch.PointCount
	}
	if patch.WorkerName != nil {
		e.WorkerName = *patch.WorkerName
	}
	if patch.StartTime != nil {
		e.StartTime = strings.TrimSpace(*patch.StartTime)
	}
	if patch.EndTime != nil {
		e.EndTime = strings.TrimSpace(*patch.EndTime)
	}
	if patch.TouchesTimes() {
		e.WorkedHours = timecalc.WorkedHours(e.StartTime, e.EndTime)
	}
}

func validatePatch(patch model.EntryPatch) error {
	if patch.Date != nil {
		if d := strings.TrimSpace(*patch.Date); d != "" {
			if _, err := time.Parse("2006-01-02", d); err != nil {
				return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrInvalidInput)
			}
		}
	}
	for name, value := range map[string]*string{"startTime": patch.StartTime, "endTime": patch.EndTime} {
		if value == nil || strings.TrimSpace(*value) == "" {
			continue
		}
		if _, err := timecalc.ParseClock(*value); err != nil {
			return fmt.Errorf("%w: %s must be HH:MM", ErrInvalidInput, name)
		}
	}
	return nil
}

func indexOf(entries []model.TimeEntry, id uuid.UUID) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
