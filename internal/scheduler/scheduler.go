package scheduler

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/nurpe/contracts-service/internal/service"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

type WorkbookExporter interface {
	Workbook(ctx context.Context, includeArchived bool) (*service.ExportResult, error)
}

// ExportScheduler writes the contracts workbook to disk on a cron schedule.
type ExportScheduler struct {
	cron     *cron.Cron
	exporter WorkbookExporter
	dir      string
	timeout  time.Duration
	log      zerolog.Logger
}

func NewExportScheduler(exporter WorkbookExporter, dir string, log zerolog.Logger) *ExportScheduler {
	return &ExportScheduler{
		cron:     cron.New(cron.WithParser(cronParser), cron.WithLocation(time.Local)),
		exporter: exporter,
		dir:      dir,
		timeout:  5 * time.Minute,
		log:      log.With().Str("component", "export-scheduler").Logger(),
	}
}

// Schedule registers the daily export. It must be called before Start.
func (s *ExportScheduler) Schedule(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return fmt.Errorf("schedule export %q: %w", spec, err)
	}
	s.log.Info().Str("spec", spec).Str("dir", s.dir).Msg("export scheduled")
	return nil
}

func (s *ExportScheduler) Start() {
	s.cron.Start()
}

// Stop waits for a running export to finish.
func (s *ExportScheduler) Stop() {
	<-s.cron.Stop().Done()
}

// Next reports when the next export fires; zero when nothing is scheduled.
func (s *ExportScheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	if !entries[0].Next.IsZero() {
		return entries[0].Next
	}
	return entries[0].Schedule.Next(time.Now())
}

func (s *ExportScheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	path, err := s.RunOnce(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("scheduled export failed")
		return
	}
	s.log.Info().Str("path", path).Msg("scheduled export written")
}

// RunOnce exports every contract, archived ones included, and returns the
// written file path.
func (s *ExportScheduler) RunOnce(ctx context.Context) (string, error) {
	result, err := s.exporter.Workbook(ctx, true)
	if err != nil {
		return "", err
	}
	return WriteResult(s.dir, result)
}

// WriteResult stores an export under dir, replacing any file of the same name.
func WriteResult(dir string, result *service.ExportResult) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, result.FileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, result.Content, 0o644); err != nil {
		return "", fmt.Errorf("write export: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalize export: %w", err)
	}
	return path, nil
}
