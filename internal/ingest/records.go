package ingest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Record is one crawled row: column name to cell text.
type Record map[string]string

// LoadRecords decodes either a JSON array of objects or JSON lines.
func LoadRecords(r io.Reader) ([]Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var out []Record
		if err := json.Unmarshal(trimmed, &out); err != nil {
			return nil, fmt.Errorf("decode records array: %w", err)
		}
		return out, nil
	}

	var out []Record
	sc := bufio.NewScanner(bytes.NewReader(trimmed))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("decode record on line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Chunk splits records into consecutive groups of at most size records,
// the same save interval the crawler uses between intake calls.
func Chunk(records []Record, size int) [][]Record {
	if size <= 0 || size >= len(records) {
		if len(records) == 0 {
			return nil
		}
		return [][]Record{records}
	}
	var out [][]Record
	for start := 0; start < len(records); start += size {
		end := min(start+size, len(records))
		out = append(out, records[start:end])
	}
	return out
}
