package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TaskBatch is the normalized, schema-checked generator output.
type TaskBatch struct {
	Tasks []BatchItem
}

// BatchItem is one normalized generator task before the factory assigns
// identity.
type BatchItem struct {
	Code              string
	IsVulnerable      bool
	VulnerabilityType string
	SystemName        string
	VulnerabilityLine *int
	Hints             []string
}

// aliasRule renames the first present source key to the target when the
// target is absent. Rules run before schema validation so the generator's
// field-name drift never reaches it.
type aliasRule struct {
	target  string
	sources []string
}

var aliasRules = []aliasRule{
	{target: "isVulnerable", sources: []string{"vulnerable"}},
	{target: "vulnerabilityType", sources: []string{"type", "vulnerability"}},
}

// NormalizeBatch turns raw generator text into a valid TaskBatch. It
// tolerates surrounding prose, a bare array instead of an object, a
// "snippets" key instead of "tasks", aliased field names, and missing
// optional fields. Structural violations fail with *ParseError.
func NormalizeBatch(raw string) (*TaskBatch, error) {
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		extracted, exErr := ExtractJSON(raw)
		if exErr != nil {
			return nil, exErr
		}
		if err := json.Unmarshal([]byte(extracted), &parsed); err != nil {
			return nil, &ParseError{Reason: fmt.Sprintf("extracted region is not valid JSON: %v", err)}
		}
	}

	var taskList []any
	switch v := parsed.(type) {
	case []any:
		taskList = v
	case map[string]any:
		field, ok := v["tasks"]
		if !ok {
			// Some generator responses use "snippets"; absent means empty.
			field = v["snippets"]
		}
		if field == nil {
			field = []any{}
		}
		taskList, ok = field.([]any)
		if !ok {
			return nil, &ParseError{Reason: "tasks field is not an array"}
		}
	default:
		return nil, &ParseError{Reason: fmt.Sprintf("payload is %T, expected object or array", parsed)}
	}

	items := make([]BatchItem, 0, len(taskList))
	for i, element := range taskList {
		obj, _ := element.(map[string]any)
		normalized := normalizeFields(obj)
		item, err := validateItem(i, normalized)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return &TaskBatch{Tasks: items}, nil
}

// normalizeFields applies the alias rules, derives vulnerabilityType from
// the vulnerable flag when absent, and clamps hints to at most two strings.
// A non-object element becomes an empty map and fails required-field
// validation downstream.
func normalizeFields(item map[string]any) map[string]any {
	normalized := make(map[string]any, len(item))
	for k, v := range item {
		normalized[k] = v
	}

	for _, rule := range aliasRules {
		if _, ok := normalized[rule.target]; ok {
			continue
		}
		for _, source := range rule.sources {
			if v, ok := normalized[source]; ok {
				normalized[rule.target] = v
				break
			}
		}
	}

	if _, ok := normalized["vulnerabilityType"]; !ok {
		// Derive from the flag only when the flag itself is a real
		// boolean; otherwise required-field validation reports it.
		if vulnerable, ok := normalized["isVulnerable"].(bool); ok {
			if vulnerable {
				normalized["vulnerabilityType"] = VulnTypeXSS
			} else {
				normalized["vulnerabilityType"] = VulnTypeSafe
			}
		}
	}

	switch hints := normalized["hints"].(type) {
	case nil:
		normalized["hints"] = []string{}
	case []any:
		out := make([]string, 0, 2)
		for _, h := range hints {
			if len(out) == 2 {
				break
			}
			out = append(out, stringify(h))
		}
		normalized["hints"] = out
	default:
		normalized["hints"] = []string{stringify(hints)}
	}

	return normalized
}

func validateItem(index int, item map[string]any) (BatchItem, error) {
	var out BatchItem

	code, ok := item["code"].(string)
	if !ok {
		return out, &ParseError{Reason: fmt.Sprintf("task %d: missing or non-string code", index)}
	}
	vulnerable, ok := item["isVulnerable"].(bool)
	if !ok {
		return out, &ParseError{Reason: fmt.Sprintf("task %d: missing or non-boolean isVulnerable", index)}
	}
	vulnType, ok := item["vulnerabilityType"].(string)
	if !ok {
		return out, &ParseError{Reason: fmt.Sprintf("task %d: missing or non-string vulnerabilityType", index)}
	}
	if !vulnTypeSet[vulnType] {
		return out, &ParseError{Reason: fmt.Sprintf("task %d: unknown vulnerabilityType %q", index, vulnType)}
	}

	out = BatchItem{Code: code, IsVulnerable: vulnerable, VulnerabilityType: vulnType}

	if raw, present := item["systemName"]; present && raw != nil {
		name, ok := raw.(string)
		if !ok || !systemNameSet[name] {
			return out, &ParseError{Reason: fmt.Sprintf("task %d: unknown systemName %v", index, raw)}
		}
		out.SystemName = name
	}
	if raw, present := item["vulnerabilityLine"]; present && raw != nil {
		n, ok := raw.(float64)
		if !ok {
			return out, &ParseError{Reason: fmt.Sprintf("task %d: non-numeric vulnerabilityLine %v", index, raw)}
		}
		line := int(n)
		out.VulnerabilityLine = &line
	}
	if hints, ok := item["hints"].([]string); ok {
		out.Hints = hints
	}

	return out, nil
}

// ExtractJSON returns the first balanced {...} or [...] region of text.
// The scanner tracks open brackets on a stack and ignores closers that do
// not match the innermost open bracket, so stray punctuation in
// surrounding prose cannot end the region early.
func ExtractJSON(text string) (string, error) {
	start := -1
	var stack []byte
	for i := 0; i < len(text); i++ {
		switch c := text[i]; c {
		case '{', '[':
			if start == -1 {
				start = i
			}
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				continue
			}
			opening := stack[len(stack)-1]
			if (opening == '{' && c != '}') || (opening == '[' && c != ']') {
				continue
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 && start != -1 {
				return text[start : i+1], nil
			}
		}
	}
	return "", &ParseError{Reason: "response did not contain balanced JSON"}
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		s, _ := json.Marshal(t)
		return string(s)
	default:
		s, err := json.Marshal(v)
		if err != nil {
			return strings.TrimSpace(fmt.Sprint(v))
		}
		return string(s)
	}
}
