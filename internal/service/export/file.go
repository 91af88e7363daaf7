package export

import (
	"fmt"
	"time"
)

const (
	ContentTypeCSV = "text/csv; charset=utf-8"
	ContentTypePDF = "application/pdf"
)

// File is a rendered download.
type File struct {
	Name        string
	ContentType string
	Body        []byte
}

// Filename builds "<name>-YYYY-MM-DD.<ext>" from the date of now.
func Filename(name, ext string, now time.Time) string {
	return fmt.Sprintf("%s-%s.%s", name, now.Format(time.DateOnly), ext)
}

// CSVFile renders records into a downloadable csv file.
func CSVFile(name string, records []Record, now time.Time) (*File, error) {
	body, err := ToCSV(records)
	if err != nil {
		return nil, err
	}
	return &File{Name: Filename(name, "csv", now), ContentType: ContentTypeCSV, Body: []byte(body)}, nil
}
