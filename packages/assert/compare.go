package assert

import (
	"encoding/json"
	"fmt"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

func compare(actual any, op string, expected any) (bool, string) {
	switch op {
	case "==":
		return equals(actual, expected)
	case "!=":
		passed, _ := equals(actual, expected)
		if passed {
			return false, fmt.Sprintf("expected not to equal %v", expected)
		}
		return true, ""
	case ">", ">=", "<", "<=":
		return compareNumeric(actual, expected, op)
	case "contains":
		return contains(actual, expected)
	case "!contains":
		passed, _ := contains(actual, expected)
		if passed {
			return false, fmt.Sprintf("expected not to contain %v", expected)
		}
		return true, ""
	case "matches":
		return matches(actual, expected)
	case "exists":
		if actual == nil {
			return false, "expected to exist"
		}
		return true, ""
	case "!exists":
		if actual != nil {
			return false, "expected not to exist"
		}
		return true, ""
	case "type":
		return typeCheck(actual, expected)
	case "schema":
		return schema(actual, expected)
	default:
		return false, fmt.Sprintf("unknown operator: %s", op)
	}
}

func equals(actual, expected any) (bool, string) {
	if reflect.DeepEqual(actual, expected) {
		return true, ""
	}

	actualNum, aOk := toFloat64(actual)
	expectedNum, eOk := toFloat64(expected)
	if aOk && eOk && actualNum == expectedNum {
		return true, ""
	}

	actualStr := fmt.Sprintf("%v", actual)
	expectedStr := fmt.Sprintf("%v", expected)
	if actualStr == expectedStr {
		return true, ""
	}

	return false, fmt.Sprintf("expected %v, got %v", expected, actual)
}

func compareNumeric(actual, expected any, op string) (bool, string) {
	actualNum, aOk := toFloat64(actual)
	expectedNum, eOk := toFloat64(expected)

	if !aOk || !eOk {
		return false, fmt.Sprintf("cannot compare non-numeric values: %v %s %v", actual, op, expected)
	}

	var passed bool
	switch op {
	case ">":
		passed = actualNum > expectedNum
	case ">=":
		passed = actualNum >= expectedNum
	case "<":
		passed = actualNum < expectedNum
	case "<=":
		passed = actualNum <= expectedNum
	}

	if passed {
		return true, ""
	}
	return false, fmt.Sprintf("expected %v %s %v", actual, op, expected)
}

func contains(actual, expected any) (bool, string) {
	actualStr := fmt.Sprintf("%v", actual)
	expectedStr := fmt.Sprintf("%v", expected)
	if strings.Contains(actualStr, expectedStr) {
		return true, ""
	}
	return false, fmt.Sprintf("expected '%v' to contain '%v'", actual, expected)
}

func matches(actual, expected any) (bool, string) {
	actualStr := fmt.Sprintf("%v", actual)
	pattern := fmt.Sprintf("%v", expected)

	pattern = strings.TrimPrefix(pattern, "/")
	pattern = strings.TrimSuffix(pattern, "/")

	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, fmt.Sprintf("invalid regex pattern: %v", err)
	}

	if re.MatchString(actualStr) {
		return true, ""
	}
	return false, fmt.Sprintf("expected '%v' to match /%v/", actual, pattern)
}

func typeCheck(actual, expected any) (bool, string) {
	expectedType := fmt.Sprintf("%v", expected)
	var actualType string

	switch actual.(type) {
	case nil:
		actualType = "null"
	case bool:
		actualType = "boolean"
	case float64, float32, int, int64, int32:
		actualType = "number"
	case string:
		actualType = "string"
	case []any:
		actualType = "array"
	case map[string]any:
		actualType = "object"
	default:
		actualType = reflect.TypeOf(actual).String()
	}

	if actualType == expectedType {
		return true, ""
	}
	return false, fmt.Sprintf("expected type %s, got %s", expectedType, actualType)
}

func schema(actual, expected any) (bool, string) {
	schemaJSON := fmt.Sprintf("%v", expected)

	actualJSON, err := json.Marshal(actual)
	if err != nil {
		return false, fmt.Sprintf("failed to marshal actual value: %v", err)
	}

	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewBytesLoader(actualJSON)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return false, fmt.Sprintf("schema validation error: %v", err)
	}

	if result.Valid() {
		return true, ""
	}

	var errors []string
	for _, desc := range result.Errors() {
		errors = append(errors, desc.String())
	}
	return false, fmt.Sprintf("schema validation failed: %s", strings.Join(errors, "; "))
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case string:
		if f, err := strconv.ParseFloat(n, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
