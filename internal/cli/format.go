package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iudanet/moneykeeper/internal/record"
)

// displayName returns the name field of r, or its reference for unnamed types
func displayName(r *record.Record) string {
	if n, ok := r.Schema().(record.Named); ok {
		if name, err := record.As[string](r, n.NameField()); err == nil && name != "" {
			return name
		}
	}
	return r.Ref().String()
}

func formatValue(v any, lookup record.Lookup) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case record.Ref:
		if lookup != nil {
			if target, ok := lookup(t); ok {
				return displayName(target)
			}
		}
		return t.String()
	case time.Time:
		return t.Format(time.DateOnly)
	case decimal.Decimal:
		return t.StringFixed(2)
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(t))
	default:
		return fmt.Sprint(t)
	}
}

// formatFields renders the set fields of r as Name=Value pairs
func formatFields(r *record.Record, lookup record.Lookup) string {
	var parts []string
	for _, d := range r.Catalog().Fields() {
		v, err := r.Get(d.ID)
		if err != nil {
			parts = append(parts, d.Name+"=<unreadable>")
			continue
		}
		if v == nil {
			continue
		}
		parts = append(parts, d.Name+"="+formatValue(v, lookup))
	}
	return strings.Join(parts, " ")
}

func describeErrors(r *record.Record) string {
	var parts []string
	for _, e := range r.Errors() {
		d, _ := r.Catalog().Field(e.Field)
		parts = append(parts, fmt.Sprintf("%s %s: %s", r.Ref(), d.Name, e))
	}
	return strings.Join(parts, "; ")
}
