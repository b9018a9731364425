package tabular

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"

	"github.com/couchcryptid/joseon-weather-bot/internal/domain"
)

// encodingNames is the fixed text-encoding preference order for delimited
// sources. Archive exports from Korean tooling are frequently CP949/EUC-KR.
var encodingNames = []string{"utf-8-sig", "utf-8", "euc-kr"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// delimitedReader builds a strategy over the separator preference order for
// an extension class. Each separator is tried against each encoding; the
// first attempt whose header splits into at least two columns wins. If no
// attempt produces more than one column, the first decodable attempt is
// accepted as a single-column table.
func delimitedReader(seps []rune) func(data []byte) (*domain.Table, error) {
	return func(data []byte) (*domain.Table, error) {
		var single *domain.Table
		for _, sep := range seps {
			for _, enc := range encodingNames {
				text, err := decodeText(data, enc)
				if err != nil {
					continue
				}
				tbl, err := parseDelimited(text, sep)
				if err != nil {
					continue
				}
				if len(tbl.Columns) >= 2 {
					return tbl, nil
				}
				if single == nil {
					single = tbl
				}
			}
		}
		if single != nil {
			return single, nil
		}
		return nil, errors.New("no separator/encoding combination produced a table")
	}
}

// decodeText decodes raw bytes under the named encoding, failing when the
// bytes are not valid for it so the next encoding in the cascade is tried.
func decodeText(data []byte, name string) (string, error) {
	switch name {
	case "utf-8-sig":
		if !bytes.HasPrefix(data, utf8BOM) {
			return "", errors.New("no utf-8 byte order mark")
		}
		data = bytes.TrimPrefix(data, utf8BOM)
		fallthrough
	case "utf-8":
		if !utf8.Valid(data) {
			return "", errors.New("invalid utf-8")
		}
		return string(data), nil
	default:
		enc, _ := charset.Lookup(name)
		if enc == nil {
			return "", fmt.Errorf("unknown encoding %q", name)
		}
		decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), enc.NewDecoder()))
		if err != nil {
			return "", err
		}
		// The decoder substitutes U+FFFD for bytes outside the encoding;
		// treat any substitution as a wrong-encoding signal.
		if bytes.ContainsRune(decoded, utf8.RuneError) {
			return "", fmt.Errorf("bytes not valid %s", name)
		}
		return string(decoded), nil
	}
}

// parseDelimited reads header+rows with the given separator. Ragged rows are
// tolerated; individually malformed lines are skipped, not fatal.
func parseDelimited(text string, sep rune) (*domain.Table, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var rows []domain.Row
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				continue
			}
			return nil, err
		}
		row := make(domain.Row, len(columns))
		for i, col := range columns {
			if i < len(fields) {
				row[col] = fields[i]
			}
		}
		rows = append(rows, row)
	}

	return &domain.Table{Columns: columns, Rows: rows}, nil
}
