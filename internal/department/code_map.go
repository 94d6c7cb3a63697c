package department

import (
	"encoding/json"
	"fmt"
)

// CodeMap maps upper-cased email-prefix codes to department ids. It is
// injected from deployment configuration so the mapping can vary per site
// without code changes.
type CodeMap map[string]string

// ParseCodeMap decodes the DEPT_CODE_MAP env value, a JSON object such as
// {"CSE":"<uuid>","ECE":"<uuid>"}. An empty value yields an empty map.
func ParseCodeMap(raw string) (CodeMap, error) {
	if raw == "" {
		return CodeMap{}, nil
	}
	var m CodeMap
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("invalid DEPT_CODE_MAP: %w", err)
	}
	return m, nil
}

// Lookup returns the department id for a code, if mapped.
func (m CodeMap) Lookup(code string) (string, bool) {
	id, ok := m[code]
	return id, ok
}
