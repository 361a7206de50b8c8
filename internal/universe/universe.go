// Package universe loads the set of symbols a collection run targets.
package universe

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Load reads a symbol list from path. A .csv file is read as CSV with a
// header row, taking the first column; anything else is read as one symbol
// per line, with blank lines and #-comments ignored. Symbols come back
// uppercased, deduplicated, and sorted.
func Load(path string) ([]string, error) {
	var raw []string
	var err error

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		raw, err = loadCSV(path)
	} else {
		raw, err = loadLines(path)
	}
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(raw))
	symbols := make([]string, 0, len(raw))
	for _, s := range raw {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols, nil
}

func loadLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening symbol list %s: %w", path, err)
	}
	defer f.Close()

	var symbols []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		symbols = append(symbols, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading symbol list %s: %w", path, err)
	}
	return symbols, nil
}

func loadCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV %s: %w", path, err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	symbols := make([]string, 0, len(records)-1)
	for _, row := range records[1:] {
		if len(row) > 0 {
			symbols = append(symbols, row[0])
		}
	}
	return symbols, nil
}
