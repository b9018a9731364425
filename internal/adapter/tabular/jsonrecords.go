package tabular

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/couchcryptid/joseon-weather-bot/internal/domain"
)

// readJSONRecords reads an array-of-objects source. JSON objects carry no
// column order, so columns are sorted lexicographically to keep repeated
// loads deterministic.
func readJSONRecords(data []byte) (*domain.Table, error) {
	var objects []map[string]any
	if err := json.Unmarshal(data, &objects); err != nil {
		return nil, fmt.Errorf("decode records: %w", err)
	}

	seen := make(map[string]struct{})
	var columns []string
	for _, obj := range objects {
		for key := range obj {
			if _, ok := seen[key]; !ok {
				seen[key] = struct{}{}
				columns = append(columns, key)
			}
		}
	}
	sort.Strings(columns)

	rows := make([]domain.Row, len(objects))
	for i, obj := range objects {
		rows[i] = domain.Row(obj)
	}

	return &domain.Table{Columns: columns, Rows: rows}, nil
}
