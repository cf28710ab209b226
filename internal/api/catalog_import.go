package api

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"storefront-backend/internal/models"
)

var errEmptyImport = errors.New("CSV is empty or has only headers")

type importRow struct {
	Line    int
	Product models.Product
}

type importFailure struct {
	Line   int    `json:"line"`
	Title  string `json:"title,omitempty"`
	Reason string `json:"reason"`
}

type importReport struct {
	Created int             `json:"created"`
	Updated int             `json:"updated"`
	Skipped []importFailure `json:"skipped"`
}

// parseProductCSV reads a catalog file with the header title, description,
// category, brand, price, salePrice, totalStock, images, sizes in any order.
// images and sizes hold "|" separated lists. Rows that fail validation are
// reported and left out.
func parseProductCSV(r io.Reader) ([]importRow, []importFailure, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, nil, errEmptyImport
	}

	index := map[string]int{}
	for i, name := range records[0] {
		index[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{"title", "price", "totalStock"} {
		if _, ok := index[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}

	var rows []importRow
	var failures []importFailure
	for i, record := range records[1:] {
		line := i + 2
		field := func(name string) string {
			pos, ok := index[name]
			if !ok || pos >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[pos])
		}
		product, err := productFromFields(field)
		if err != nil {
			failures = append(failures, importFailure{Line: line, Title: field("title"), Reason: err.Error()})
			continue
		}
		rows = append(rows, importRow{Line: line, Product: product})
	}
	return rows, failures, nil
}

func productFromFields(field func(string) string) (models.Product, error) {
	p := models.Product{
		Title:       field("title"),
		Description: field("description"),
		Category:    field("category"),
		Brand:       field("brand"),
		Images:      splitPipe(field("images")),
		Sizes:       splitPipe(field("sizes")),
		Colors:      []string{},
	}
	if p.Title == "" {
		return p, errors.New("title is required")
	}
	var ok bool
	if p.Price, ok = parseAmount(field("price")); !ok {
		return p, fmt.Errorf("invalid price %q", field("price"))
	}
	if raw := field("salePrice"); raw != "" {
		if p.SalePrice, ok = parseAmount(raw); !ok {
			return p, fmt.Errorf("invalid salePrice %q", raw)
		}
	}
	var err error
	if p.SalePrice > p.Price {
		return p, errors.New("salePrice is greater than price")
	}
	if p.TotalStock, err = strconv.Atoi(field("totalStock")); err != nil || p.TotalStock < 0 {
		return p, fmt.Errorf("invalid totalStock %q", field("totalStock"))
	}
	return p, nil
}

// parseAmount accepts finite, non-negative numbers only. ParseFloat also
// takes NaN and Inf, which JSON cannot encode.
func parseAmount(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

func splitPipe(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
