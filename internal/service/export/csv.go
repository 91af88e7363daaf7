package export

import (
	"fmt"
	"strings"
	"time"

	xerrors "invoicely-service/internal/pkg/errors"

	"github.com/gocarina/gocsv"
)

// Field is one named value of an exported record.
type Field struct {
	Key   string
	Value any
}

// Record is an ordered set of fields. The first record of an export fixes the column order.
type Record []Field

func (r Record) lookup(key string) (any, bool) {
	for _, f := range r {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// ToCSV renders records with a bare header row and every value double-quoted.
// Embedded quotes are doubled.
func ToCSV(records []Record) (string, error) {
	if len(records) == 0 {
		return "", xerrors.ErrNothingToExport
	}

	header := make([]string, len(records[0]))
	for i, f := range records[0] {
		header[i] = f.Key
	}

	var b strings.Builder
	b.WriteString(strings.Join(header, ","))

	for _, rec := range records {
		b.WriteByte('\n')
		for i, key := range header {
			if i > 0 {
				b.WriteByte(',')
			}
			v, _ := rec.lookup(key)
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(formatValue(v), `"`, `""`))
			b.WriteByte('"')
		}
	}

	return b.String(), nil
}

// MarshalRows renders typed rows through their csv struct tags.
func MarshalRows[T any](rows []T) ([]byte, error) {
	if len(rows) == 0 {
		return nil, xerrors.ErrNothingToExport
	}
	out, err := gocsv.MarshalBytes(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal csv: %w", err)
	}
	return out, nil
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.UTC().Format(time.RFC3339)
	case *string:
		if val == nil {
			return ""
		}
		return *val
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}
