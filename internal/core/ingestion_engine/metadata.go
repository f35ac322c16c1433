package ingestion_engine

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/markdave123-py/docsearch/internal/models"
)

// MetadataTable maps a document's base file name to its metadata record.
type MetadataTable map[string]models.PageMetadata

// LoadMetadataCSV reads a CSV whose header names the metadata columns.
// Extra columns are ignored; filename is required.
func LoadMetadataCSV(r io.Reader) (MetadataTable, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("metadata csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("read metadata header: %w", err)
	}

	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := idx["filename"]; !ok {
		return nil, errors.New("metadata csv has no filename column")
	}

	table := MetadataTable{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read metadata line %d: %w", line, err)
		}
		get := func(col string) string {
			i, ok := idx[col]
			if !ok || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		m := models.PageMetadata{
			Link:       get("link"),
			Shortname:  get("shortname"),
			ISIN:       get("isin"),
			IssuerName: get("issuer_name"),
			Filename:   get("filename"),
			Industry:   get("industry"),
			RiskType:   get("risk_type"),
			Green:      get("green"),
		}
		if m.Filename == "" {
			continue
		}
		table[m.Filename] = m
	}
	return table, nil
}

// Lookup joins a page source (path or key) against the table by base name.
func (t MetadataTable) Lookup(source string) (models.PageMetadata, bool) {
	m, ok := t[path.Base(strings.ReplaceAll(source, "\\", "/"))]
	return m, ok
}
