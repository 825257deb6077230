package schemata

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/ri0t/isomer/internal/errors"
)

var (
	patternMu    sync.Mutex
	patternCache = make(map[string]*regexp.Regexp)
)

func compilePattern(pattern string) (*regexp.Regexp, error) {
	patternMu.Lock()
	defer patternMu.Unlock()

	if re, ok := patternCache[pattern]; ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patternCache[pattern] = re
	return re, nil
}

// ValidateObject checks obj against the schema and reports every
// violation at once.
func ValidateObject(schema *Schema, obj map[string]interface{}) error {
	if schema == nil {
		return errors.New(errors.InvalidSchema, "cannot validate against a nil schema")
	}

	var issues []string
	for _, field := range schema.Required {
		if _, ok := obj[field]; !ok {
			issues = append(issues, fmt.Sprintf("%s: required field missing", field))
		}
	}

	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		spec, known := schema.Properties[key]
		if !known {
			issues = append(issues, fmt.Sprintf("%s: not part of schema %q", key, schema.Name))
			continue
		}
		issues = append(issues, checkField(key, spec, obj[key])...)
	}

	if len(issues) > 0 {
		return errors.Newf(errors.ObjectInvalid, "object does not conform to schema %q: %s",
			schema.Name, strings.Join(issues, "; "))
	}
	return nil
}

func checkField(path string, spec Field, value interface{}) []string {
	if value == nil {
		return []string{fmt.Sprintf("%s: null value", path)}
	}

	switch spec.Type {
	case "string":
		return checkString(path, spec, value)
	case "boolean":
		if _, ok := value.(bool); !ok {
			return []string{fmt.Sprintf("%s: expected boolean, got %T", path, value)}
		}
	case "number":
		if _, ok := asFloat(value); !ok {
			return []string{fmt.Sprintf("%s: expected number, got %T", path, value)}
		}
	case "integer":
		f, ok := asFloat(value)
		if !ok || f != float64(int64(f)) {
			return []string{fmt.Sprintf("%s: expected integer, got %v", path, value)}
		}
	case "object":
		return checkObject(path, spec, value)
	case "array":
		return checkArray(path, spec, value)
	default:
		return []string{fmt.Sprintf("%s: schema field has unknown type %q", path, spec.Type)}
	}
	return nil
}

func checkString(path string, spec Field, value interface{}) []string {
	s, ok := value.(string)
	if !ok {
		return []string{fmt.Sprintf("%s: expected string, got %T", path, value)}
	}

	var issues []string
	if spec.Pattern != "" {
		re, err := compilePattern(spec.Pattern)
		if err != nil {
			issues = append(issues, fmt.Sprintf("%s: schema pattern does not compile: %v", path, err))
		} else if !re.MatchString(s) {
			issues = append(issues, fmt.Sprintf("%s: %q does not match %s", path, s, spec.Pattern))
		}
	}
	if len(spec.Enum) > 0 {
		found := false
		for _, allowed := range spec.Enum {
			if s == allowed {
				found = true
				break
			}
		}
		if !found {
			issues = append(issues, fmt.Sprintf("%s: %q is not one of the allowed values", path, s))
		}
	}
	return issues
}

func checkObject(path string, spec Field, value interface{}) []string {
	nested, ok := value.(map[string]interface{})
	if !ok {
		return []string{fmt.Sprintf("%s: expected object, got %T", path, value)}
	}

	var issues []string
	keys := make([]string, 0, len(nested))
	for key := range nested {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		child, known := spec.Properties[key]
		if !known {
			if len(spec.Properties) == 0 {
				continue
			}
			issues = append(issues, fmt.Sprintf("%s.%s: not part of the schema", path, key))
			continue
		}
		issues = append(issues, checkField(path+"."+key, child, nested[key])...)
	}
	return issues
}

func checkArray(path string, spec Field, value interface{}) []string {
	items, ok := value.([]interface{})
	if !ok {
		return []string{fmt.Sprintf("%s: expected array, got %T", path, value)}
	}
	if spec.Items == nil {
		return nil
	}

	var issues []string
	for i, item := range items {
		issues = append(issues, checkField(fmt.Sprintf("%s[%d]", path, i), *spec.Items, item)...)
	}
	return issues
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}
