package bot

import (
	"log/slog"

	"github.com/couchcryptid/joseon-weather-bot/internal/adapter/tabular"
	"github.com/couchcryptid/joseon-weather-bot/internal/domain"
	"github.com/couchcryptid/joseon-weather-bot/internal/observability"
)

// ArchiveLoader loads normalized archive records from a file path.
type ArchiveLoader interface {
	Load(path string) ([]domain.Record, domain.Stats, error)
}

// FileArchive reads archive files through the tabular reader cascade and
// normalizes them into records.
type FileArchive struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewFileArchive creates a file-backed archive loader.
func NewFileArchive(logger *slog.Logger, metrics *observability.Metrics) *FileArchive {
	return &FileArchive{logger: logger, metrics: metrics}
}

// Load reads and normalizes the archive at path.
func (a *FileArchive) Load(path string) ([]domain.Record, domain.Stats, error) {
	table, err := tabular.Read(path)
	if err != nil {
		a.metrics.ArchiveLoads.WithLabelValues("read_error").Inc()
		return nil, domain.Stats{}, err
	}

	records, stats, err := domain.Normalize(table)
	if err != nil {
		a.metrics.ArchiveLoads.WithLabelValues("schema_error").Inc()
		return nil, stats, err
	}

	a.metrics.ArchiveLoads.WithLabelValues("success").Inc()
	a.metrics.ArchiveRowsLoaded.Add(float64(len(records)))
	a.metrics.ArchiveRowsDropped.Add(float64(stats.Dropped))
	a.logger.Info("archive loaded",
		"path", path,
		"records", len(records),
		"dropped", stats.Dropped,
		"date_column", stats.Roles[domain.RoleDate],
	)
	return records, stats, nil
}
