// Package tabular reads archive source files of unknown tabular shape into
// the domain table abstraction. Each supported extension class has an ordered
// list of reader strategies; the first strategy that succeeds wins, and a
// file is only rejected once every applicable strategy (and the generic
// fallbacks) has failed. Some legacy .xls exports are actually HTML tables,
// which is why the cascade exists at all.
package tabular

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/joseon-weather-bot/internal/domain"
)

// strategy is one pure, independently testable reader attempt.
type strategy struct {
	name string
	read func(data []byte) (*domain.Table, error)
}

// Read loads the file at path through the strategy cascade for its extension.
// It returns *domain.SourceReadError when the file is unreadable or every
// strategy fails.
func Read(path string) (*domain.Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.SourceReadError{Path: path, Err: err}
	}

	var (
		attempts []string
		errs     []error
	)
	for _, s := range strategiesFor(filepath.Ext(path)) {
		tbl, err := s.read(data)
		if err == nil {
			return tbl, nil
		}
		attempts = append(attempts, s.name)
		errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
	}

	return nil, &domain.SourceReadError{Path: path, Attempts: attempts, Err: errors.Join(errs...)}
}

// strategiesFor returns the ordered reader attempts for an extension,
// followed by the generic fallbacks every file gets.
func strategiesFor(ext string) []strategy {
	var list []strategy
	switch strings.ToLower(ext) {
	case ".xls":
		list = []strategy{
			{"legacy-xls", readLegacyXLS},
			{"html-table", readHTMLTable},
			{"xlsx", readXLSX},
		}
	case ".xlsx", ".xlsm", ".xltx":
		list = []strategy{{"xlsx", readXLSX}}
	case ".csv":
		list = []strategy{{"delimited", delimitedReader([]rune{',', '\t', '|'})}}
	case ".tsv", ".tab", ".txt":
		list = []strategy{{"delimited", delimitedReader([]rune{'\t', ',', '|'})}}
	case ".json":
		list = []strategy{{"json-records", readJSONRecords}}
	}

	for _, fallback := range []strategy{
		{"xlsx", readXLSX},
		{"html-table", readHTMLTable},
		{"delimited", delimitedReader([]rune{',', '\t', '|'})},
	} {
		if !hasStrategy(list, fallback.name) {
			list = append(list, fallback)
		}
	}
	return list
}

func hasStrategy(list []strategy, name string) bool {
	for _, s := range list {
		if s.name == name {
			return true
		}
	}
	return false
}
