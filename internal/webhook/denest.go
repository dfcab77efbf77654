package webhook

import "regexp"

var bracketKeyPattern = regexp.MustCompile(`^([^\[]+)((?:\[[^\]]*\])+)$`)
var bracketSegPattern = regexp.MustCompile(`\[([^\]]*)\]`)

// Denest expands bracket-notation flat keys into nested maps. ActiveCampaign
// submits form-encoded nested objects as flat keys like "contact[fields][39]";
// keys sharing a root merge into the same nested structure. Keys without
// brackets are copied verbatim. The parser is provider-agnostic.
func Denest(flat map[string]any) map[string]any {
	result := make(map[string]any, len(flat))

	for key, value := range flat {
		m := bracketKeyPattern.FindStringSubmatch(key)
		if m == nil {
			result[key] = value
			continue
		}

		root := m[1]
		var parts []string
		for _, seg := range bracketSegPattern.FindAllStringSubmatch(m[2], -1) {
			parts = append(parts, seg[1])
		}
		if len(parts) == 0 {
			result[key] = value
			continue
		}

		current, ok := result[root].(map[string]any)
		if !ok {
			current = make(map[string]any)
			result[root] = current
		}
		for _, part := range parts[:len(parts)-1] {
			next, ok := current[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[part] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = value
	}

	return result
}
