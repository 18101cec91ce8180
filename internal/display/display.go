// Package display provides human-readable words for machine codes.
//
// Rule: code is for machines, words are for humans.
// Use these functions in console output and the summary report; keep raw codes
// for log attributes and comparisons.
package display

// Status returns the report word for a sample outcome.
func Status(succeeded bool) string {
	if succeeded {
		return "SUCCESS"
	}
	return "FAILED"
}

var reasons = map[string]string{
	"":            "",
	"exit_status": "Non-zero exit",
	"launch":      "Could not start assembler",
	"fault":       "Unexpected error",
}

// Reason returns the human-readable name for a failure reason code.
// Unknown codes are returned as-is.
func Reason(code string) string {
	if name, ok := reasons[code]; ok {
		return name
	}
	return code
}
