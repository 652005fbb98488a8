// Package extract normalizes loosely-formatted model output into the fixed
// invoice schema. Every function here is pure and total: malformed input
// degrades to a nil/zero result, never a panic or an error.
package extract

import (
	"encoding/json"
	"math"
	"regexp"
	"strings"

	"invoscan/internal/domain"
	"invoscan/internal/schema"
)

var (
	fenceOpen  = regexp.MustCompile("(?i)^```json\n?|```$")
	fenceBare  = regexp.MustCompile("(?i)^```\n?|```$")
)

// ParseJSONLoose repairs and parses model output that may be wrapped in code
// fences or surrounded by prose. Returns nil if no JSON object can be
// recovered.
func ParseJSONLoose(s string) map[string]any {
	if s == "" {
		return nil
	}
	cleaned := fenceBare.ReplaceAllString(fenceOpen.ReplaceAllString(s, ""), "")
	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	core := cleaned
	if start >= 0 && end >= start {
		core = cleaned[start : end+1]
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(core), &out); err != nil {
		return nil
	}
	return out
}

// vertexEnvelope is the slice of a generateContent response we read.
type vertexEnvelope struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text *string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *domain.Usage `json:"usageMetadata"`
}

// TextFromVertex pulls the first text part from a raw generateContent
// response. Returns "" if the response has no text part.
func TextFromVertex(raw json.RawMessage) string {
	var env vertexEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return ""
	}
	if len(env.Candidates) == 0 {
		return ""
	}
	for _, p := range env.Candidates[0].Content.Parts {
		if p.Text != nil {
			return *p.Text
		}
	}
	return ""
}

// UsageFromVertex pulls token usage metadata from a raw generateContent
// response, or nil when absent.
func UsageFromVertex(raw json.RawMessage) *domain.Usage {
	var env vertexEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil
	}
	return env.UsageMetadata
}

// AvgConfidence returns the arithmetic mean of the strictly positive
// confidence values, or 0 when there are none. A stored confidence of exactly
// 0 means "field absent", not "certainly wrong", so zeros are excluded rather
// than allowed to drag the average down.
func AvgConfidence(fc map[string]float64) float64 {
	var sum float64
	var cnt int
	for _, v := range fc {
		if v > 0 && !math.IsNaN(v) {
			sum += v
			cnt++
		}
	}
	if cnt == 0 {
		return 0
	}
	return sum / float64(cnt)
}

// SchemaAvgConfidence is AvgConfidence restricted to the canonical schema
// fields. It is the read-time counterpart of the write-time average and must
// agree with AvgConfidence on canonical-keyed maps.
func SchemaAvgConfidence(fc map[string]float64) float64 {
	var sum float64
	var cnt int
	for _, k := range schema.FieldKeys {
		if v, ok := fc[k]; ok && v > 0 && !math.IsNaN(v) {
			sum += v
			cnt++
		}
	}
	if cnt == 0 {
		return 0
	}
	return sum / float64(cnt)
}
