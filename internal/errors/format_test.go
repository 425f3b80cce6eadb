package errors

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatForUser_BasicError(t *testing.T) {
	// Given: a ScanError
	err := New(ErrCodeFileNotFound, "file 'book.txt' not found", nil)

	// When: formatting for user (no debug)
	result := FormatForUser(err, false)

	// Then: contains message
	assert.Contains(t, result, "file 'book.txt' not found")
	// And: contains error code at end
	assert.Contains(t, result, "[ERR_201_FILE_NOT_FOUND]")
}

func TestFormatForUser_WithSuggestion(t *testing.T) {
	// Given: an error with suggestion
	err := New(ErrCodeQueryTooLong, "quote has 900 symbols, limit is 512", nil).
		WithSuggestion("Raise scan.max_query_length or shorten the quote")

	// When: formatting for user
	result := FormatForUser(err, false)

	// Then: contains suggestion
	assert.Contains(t, result, "Suggestion:")
	assert.Contains(t, result, "max_query_length")
}

func TestFormatForUser_CauseOnlyInDebugMode(t *testing.T) {
	// Given: an error with a cause
	cause := errors.New("yaml: line 3: mapping values are not allowed")
	err := New(ErrCodeConfigInvalid, "cannot parse config", cause)

	// When: formatting without and with debug
	plain := FormatForUser(err, false)
	debug := FormatForUser(err, true)

	// Then: cause only appears in debug output
	assert.NotContains(t, plain, "yaml: line 3")
	assert.Contains(t, debug, "yaml: line 3")
}

func TestFormatForUser_StandardError(t *testing.T) {
	// Given: a standard Go error
	err := errors.New("something went wrong")

	// When: formatting for user
	result := FormatForUser(err, false)

	// Then: shows generic message
	assert.Contains(t, result, "something went wrong")
}

func TestFormatForUser_NilError(t *testing.T) {
	// When: formatting nil
	result := FormatForUser(nil, false)

	// Then: returns empty string
	assert.Empty(t, result)
}

func TestFormatJSON_BasicError(t *testing.T) {
	// Given: a ScanError with details
	err := New(ErrCodeFileNotFound, "file not found", nil).
		WithDetail("path", "/corpus/book.txt").
		WithSuggestion("Check the file path")

	// When: formatting as JSON
	data, jsonErr := FormatJSON(err)

	// Then: valid JSON
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	// And: contains expected fields
	assert.Equal(t, ErrCodeFileNotFound, result["code"])
	assert.Equal(t, "file not found", result["message"])
	assert.Equal(t, string(CategoryIO), result["category"])
	assert.Equal(t, string(SeverityError), result["severity"])
	assert.Equal(t, "Check the file path", result["suggestion"])

	details, ok := result["details"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "/corpus/book.txt", details["path"])
}

func TestFormatJSON_StandardError(t *testing.T) {
	// Given: a standard error
	err := errors.New("generic error")

	// When: formatting as JSON
	data, jsonErr := FormatJSON(err)

	// Then: valid JSON with internal error code
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, ErrCodeInternal, result["code"])
	assert.Equal(t, "generic error", result["message"])
}

func TestFormatJSON_NilError(t *testing.T) {
	// When: formatting nil
	data, err := FormatJSON(nil)

	// Then: returns empty result
	assert.NoError(t, err)
	assert.Equal(t, "null", strings.TrimSpace(string(data)))
}

func TestFormatJSON_WithCause(t *testing.T) {
	// Given: an error with cause
	cause := errors.New("underlying error")
	err := New(ErrCodeInternal, "operation failed", cause)

	// When: formatting as JSON
	data, jsonErr := FormatJSON(err)

	// Then: includes cause
	require.NoError(t, jsonErr)

	var result map[string]any
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, "underlying error", result["cause"])
}

func TestFormatForCLI_IncludesCodeAndSuggestion(t *testing.T) {
	// Given: a conflict error
	err := New(ErrCodeConfigConflict, "report threshold 0.5 is below scan threshold 0.7", nil).
		WithSuggestion("Set report_threshold >= threshold, or 0 to reuse it")

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: contains error info
	assert.Contains(t, result, "report threshold 0.5")
	assert.Contains(t, result, "ERR_103_CONFIG_CONFLICT")
	assert.Contains(t, result, "Hint:")
}

func TestFormatForCLI_ShortFormat(t *testing.T) {
	// Given: a simple error
	err := New(ErrCodeFileNotFound, "file not found", nil)

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: is concise
	lines := strings.Split(strings.TrimSpace(result), "\n")
	assert.LessOrEqual(t, len(lines), 5, "Should be concise")
}

func TestFormatForLog_ProducesSlogAttributes(t *testing.T) {
	// Given: a coded error with a detail
	err := New(ErrCodeQueryEmpty, "query cannot be empty", nil).
		WithDetail("source", "suite.yaml")

	// When: formatting for the structured log
	attrs := FormatForLog(err)

	// Then: code, category, and prefixed details are present
	assert.Equal(t, ErrCodeQueryEmpty, attrs["error_code"])
	assert.Equal(t, string(CategoryValidation), attrs["category"])
	assert.Equal(t, "suite.yaml", attrs["detail_source"])
}
