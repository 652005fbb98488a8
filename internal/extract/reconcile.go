package extract

import (
	"encoding/json"

	"invoscan/internal/domain"
	"invoscan/internal/schema"
)

// Reconciler maps whatever field names the model actually emitted onto the
// canonical schema, using the synonym table. Resolution is deterministic and
// total: every canonical field resolves to a value or is absent, never an
// error.
type Reconciler struct {
	table *schema.Table
}

// NewReconciler builds a Reconciler over the given synonym table.
func NewReconciler(t *schema.Table) *Reconciler {
	return &Reconciler{table: t}
}

// Extraction resolves a loosely parsed model document into a canonical
// Extraction. Accepts either the documented shape ({fields, fields_confidence})
// or a flat object with fields at the top level. Nil input (unparseable model
// output) yields an empty extraction, so callers always get a usable value
// and a record lands at zero confidence instead of being dropped.
func (r *Reconciler) Extraction(parsed map[string]any) *domain.Extraction {
	out := &domain.Extraction{
		Fields:           make(map[string]any, len(schema.FieldKeys)),
		FieldsConfidence: make(map[string]float64, len(schema.FieldKeys)),
	}
	if parsed == nil {
		return out
	}

	fieldsObj := parsed
	if m, ok := parsed["fields"].(map[string]any); ok {
		fieldsObj = m
	}
	confObj, _ := parsed["fields_confidence"].(map[string]any)
	if confObj == nil {
		// Secondary confidence map name seen in older model output.
		confObj, _ = parsed["field_confidence"].(map[string]any)
	}

	normFields := normalizeKeys(fieldsObj)
	normConf := normalizeKeys(confObj)

	for _, field := range schema.FieldKeys {
		if v, ok := firstExisting(normFields, r.table.Aliases(field)); ok {
			out.Fields[field] = v
		}
		// A merged `<field>_confidence` key on the fields object wins;
		// otherwise fall back to the separate confidence map.
		if v, ok := firstExisting(normFields, r.table.ConfidenceAliases(field)); ok {
			if f, ok := toFloat(v); ok {
				out.FieldsConfidence[field] = f
				continue
			}
		}
		if v, ok := firstExisting(normConf, r.table.Aliases(field)); ok {
			if f, ok := toFloat(v); ok {
				out.FieldsConfidence[field] = f
			}
		}
	}
	return out
}

func normalizeKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		nk := schema.NormalizeKey(k)
		if _, exists := out[nk]; !exists {
			out[nk] = v
		}
	}
	return out
}

func firstExisting(norm map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := norm[schema.NormalizeKey(k)]; ok {
			return v, true
		}
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
