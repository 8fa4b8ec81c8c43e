package eval

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/quotetpl/quotetpl/internal/models"
)

// ContextOptions tune context construction
type ContextOptions struct {
	// SkipFormulaFieldID excludes one formula field from resolution, so a
	// formula never sees its own stale value while being recomputed
	SkipFormulaFieldID string
}

// BuildContext assembles the name→value mapping used for formula evaluation:
// every constant and every non-formula field with an identifier-safe name,
// then every formula that resolves under bounded fixed-point iteration.
// Entries sharing a name shadow earlier ones (last writer wins). Names that
// are not identifier-safe are silently excluded.
func BuildContext(engine Engine, fields []models.Field, constants []models.Constant, values map[string]string, opts ContextOptions) map[string]interface{} {
	ctx := make(map[string]interface{})

	for _, c := range constants {
		if !models.IsValidIdentifier(c.Name) {
			continue
		}
		if num, ok := ParseMaybeNumber(c.Value); ok {
			ctx[c.Name] = num
		} else {
			ctx[c.Name] = c.Value
		}
	}

	for _, f := range fields {
		if !models.IsValidIdentifier(f.Name) || f.Type == models.FieldTypeFormula {
			continue
		}
		raw := values[f.ID]
		switch f.Type {
		case models.FieldTypeNumber:
			num, ok := ParseMaybeNumber(raw)
			if !ok {
				num = 0
			}
			ctx[f.Name] = num
		case models.FieldTypeDate:
			ctx[f.Name] = FormatDateForDoc(raw)
		default:
			ctx[f.Name] = raw
		}
	}

	resolveFormulas(engine, fields, ctx, opts.SkipFormulaFieldID)
	return ctx
}

// resolveFormulas evaluates formula fields into ctx, tolerating forward
// references: up to one pass per unresolved formula, stopping early when a
// pass resolves nothing more. Formulas still unresolved then (cycles,
// undefined names, invalid expressions) are simply absent from the context.
func resolveFormulas(engine Engine, fields []models.Field, ctx map[string]interface{}, skipFieldID string) {
	if engine == nil {
		return
	}

	var formulas []models.Field
	for _, f := range fields {
		if f.Type == models.FieldTypeFormula &&
			f.ID != skipFieldID &&
			models.IsValidIdentifier(f.Name) &&
			strings.TrimSpace(f.Formula) != "" {
			formulas = append(formulas, f)
		}
	}

	resolved := make(map[string]bool)
	for pass := 0; pass < len(formulas); pass++ {
		progressed := false
		for _, f := range formulas {
			if resolved[f.Name] {
				continue
			}
			result, err := evaluateFormula(engine, f.Formula, ctx)
			if err != nil {
				continue // unresolved dependency or invalid expression; retry next pass
			}
			ctx[f.Name] = result
			resolved[f.Name] = true
			progressed = true
		}
		if !progressed {
			break
		}
	}
}

// evaluateFormula parses and evaluates one expression against a context
// snapshot. Non-finite numeric results count as failures.
func evaluateFormula(engine Engine, formula string, ctx map[string]interface{}) (interface{}, error) {
	expr, err := engine.Parse(strings.TrimSpace(formula))
	if err != nil {
		return nil, err
	}
	result, err := expr.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if num, ok := result.(float64); ok && (math.IsInf(num, 0) || math.IsNaN(num)) {
		return nil, fmt.Errorf("formula evaluated to non-finite number")
	}
	return result, nil
}

// Display is a field's computed display value. A contained evaluation
// failure sets Err and Message instead of aborting the caller.
type Display struct {
	Text    string
	Err     bool
	Message string
}

// ComputeFieldValue computes the display value of one field. For formula
// fields the context is built with the field itself skipped, and evaluation
// failures come back as a structured error, never as a panic or abort.
func ComputeFieldValue(engine Engine, field models.Field, fields []models.Field, constants []models.Constant, values map[string]string) Display {
	raw := values[field.ID]

	switch field.Type {
	case models.FieldTypeText:
		return Display{Text: raw}
	case models.FieldTypeNumber:
		num, ok := ParseMaybeNumber(raw)
		if !ok {
			return Display{}
		}
		return Display{Text: FormatNumber(num)}
	case models.FieldTypeDate:
		return Display{Text: FormatDateForDoc(raw)}
	case models.FieldTypeFormula:
		formula := strings.TrimSpace(field.Formula)
		if formula == "" {
			return Display{}
		}
		if engine == nil {
			return Display{Err: true, Message: "formula engine unavailable"}
		}
		ctx := BuildContext(engine, fields, constants, values, ContextOptions{SkipFormulaFieldID: field.ID})
		result, err := evaluateFormula(engine, formula, ctx)
		if err != nil {
			return Display{Err: true, Message: err.Error()}
		}
		return Display{Text: formatResult(result)}
	}
	return Display{}
}

func formatResult(result interface{}) string {
	switch v := result.(type) {
	case float64:
		return FormatNumber(v)
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ParseMaybeNumber parses value as a finite number after trimming and
// stripping thousands separators
func ParseMaybeNumber(value string) (float64, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, false
	}
	normalized := strings.ReplaceAll(trimmed, ",", "")
	num, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsInf(num, 0) || math.IsNaN(num) {
		return 0, false
	}
	return num, true
}

// FormatNumber renders a number the way it reads in a document: no exponent
// for typical magnitudes, no trailing zeros
func FormatNumber(num float64) string {
	return strconv.FormatFloat(num, 'f', -1, 64)
}

// FormatDateForDoc reformats a YYYY-MM-DD input as DD/MM/YYYY for display;
// anything that does not parse as a calendar date passes through raw
func FormatDateForDoc(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}
	d, err := time.Parse("2006-01-02", trimmed)
	if err != nil {
		return trimmed
	}
	return d.Format("02/01/2006")
}
