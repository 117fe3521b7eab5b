package spreadsheet

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/gebeya/internal/domain"
)

// TaxRuleColumns is the header row ParseTaxRules expects, in any order. Only name
// and rate are mandatory.
var TaxRuleColumns = []string{
	"name", "country", "region", "tax_type", "rate", "is_compound", "priority",
	"applies_products", "applies_shipping", "categories", "products", "exceptions",
	"valid_from", "valid_until", "is_active",
}

const dateLayout = "2006-01-02"

// ParseTaxRules reads tax rules from the first sheet of an XLSX workbook. The
// first row is the header; blank rows are skipped. Each rule keeps its sheet row.
func ParseTaxRules(r io.Reader) ([]domain.ImportedTaxRule, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.Invalid("unreadable workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.Invalid("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, domain.Invalid("sheet %q has no data rows", sheets[0])
	}

	col := map[string]int{}
	for i, h := range rows[0] {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, req := range []string{"name", "rate"} {
		if _, ok := col[req]; !ok {
			return nil, domain.Invalid("missing column %q", req)
		}
	}

	var rules []domain.ImportedTaxRule
	for i, row := range rows[1:] {
		line := i + 2
		cell := func(name string) string {
			idx, ok := col[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}
		if strings.Join(row, "") == "" {
			continue
		}
		rule, err := parseRow(cell)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		rules = append(rules, domain.ImportedTaxRule{Row: line, Rule: rule})
	}
	return rules, nil
}

func parseRow(cell func(string) string) (domain.TaxRule, error) {
	rule := domain.TaxRule{
		Name:     cell("name"),
		Country:  cell("country"),
		Region:   cell("region"),
		TaxType:  strings.ToLower(cell("tax_type")),
		IsActive: true,
		AppliesTo: domain.TaxAppliesTo{
			Products: true,
		},
	}
	rate, err := strconv.ParseFloat(strings.TrimSuffix(cell("rate"), "%"), 64)
	if err != nil {
		return rule, domain.Invalid("rate %q is not a number", cell("rate"))
	}
	rule.Rate = rate
	if s := cell("priority"); s != "" {
		if rule.Priority, err = strconv.Atoi(s); err != nil {
			return rule, domain.Invalid("priority %q is not an integer", s)
		}
	}
	if rule.IsCompound, err = parseBool(cell("is_compound"), false); err != nil {
		return rule, err
	}
	if rule.AppliesTo.Products, err = parseBool(cell("applies_products"), true); err != nil {
		return rule, err
	}
	if rule.AppliesTo.Shipping, err = parseBool(cell("applies_shipping"), false); err != nil {
		return rule, err
	}
	if rule.IsActive, err = parseBool(cell("is_active"), true); err != nil {
		return rule, err
	}
	rule.Categories = splitList(cell("categories"))
	if rule.Products, err = parseIDs(cell("products")); err != nil {
		return rule, err
	}
	if rule.Exceptions, err = parseIDs(cell("exceptions")); err != nil {
		return rule, err
	}
	if s := cell("valid_from"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return rule, domain.Invalid("valid_from %q must be YYYY-MM-DD", s)
		}
		rule.ValidFrom = t
	}
	if s := cell("valid_until"); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			return rule, domain.Invalid("valid_until %q must be YYYY-MM-DD", s)
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		rule.ValidUntil = &end
	}
	return rule, nil
}

func parseBool(s string, def bool) (bool, error) {
	switch strings.ToLower(s) {
	case "":
		return def, nil
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	}
	return false, domain.Invalid("%q is not a boolean", s)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseIDs(s string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, p := range splitList(s) {
		id, err := uuid.Parse(p)
		if err != nil {
			return nil, domain.Invalid("%q is not a product id", p)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
