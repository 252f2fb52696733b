package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogLevelSeverityOrdering(t *testing.T) {
	assert.Less(t, LogLevelDebug.Severity(), LogLevelInfo.Severity())
	assert.Less(t, LogLevelInfo.Severity(), LogLevelWarn.Severity())
	assert.Less(t, LogLevelWarn.Severity(), LogLevelError.Severity())

	// Unknown levels rank as info.
	assert.Equal(t, LogLevelInfo.Severity(), LogLevel("verbose").Severity())
}

func TestSanitizeValuePrimitivesPassThrough(t *testing.T) {
	assert.Nil(t, SanitizeValue(nil))
	assert.Equal(t, "hello", SanitizeValue("hello"))
	assert.Equal(t, 42, SanitizeValue(42))
	assert.Equal(t, true, SanitizeValue(true))
}

func TestSanitizeValueReducesErrors(t *testing.T) {
	sanitized := SanitizeValue(errors.New("boom"))

	reduced, ok := sanitized.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "boom", reduced["message"])
	assert.NotEmpty(t, reduced["name"])
}

func TestSanitizeValueBreaksMapCycles(t *testing.T) {
	inner := map[string]interface{}{"label": "inner"}
	outer := map[string]interface{}{"label": "outer", "child": inner}
	inner["parent"] = outer

	sanitized := SanitizeValue(outer)

	top, ok := sanitized.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "outer", top["label"])
	child, ok := top["child"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, CircularSentinel, child["parent"])
}

func TestSanitizeValueBreaksPointerCycles(t *testing.T) {
	type node struct {
		Name string
		Next *node
	}
	a := &node{Name: "a"}
	b := &node{Name: "b", Next: a}
	a.Next = b

	sanitized := SanitizeValue(a)

	top, ok := sanitized.(map[string]interface{})
	require.True(t, ok)
	next, ok := top["Next"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, CircularSentinel, next["Next"])
}

func TestSanitizeValueStructsKeepExportedFieldsOnly(t *testing.T) {
	type payload struct {
		Visible string
		hidden  string
	}
	sanitized := SanitizeValue(payload{Visible: "yes", hidden: "no"})

	fields, ok := sanitized.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "yes", fields["Visible"])
	_, hasHidden := fields["hidden"]
	assert.False(t, hasHidden)
}

func TestSanitizeValueStringifiesUnserializableKinds(t *testing.T) {
	sanitized := SanitizeValue(map[string]interface{}{
		"fn": func() {},
		"ch": make(chan int),
	})

	fields, ok := sanitized.(map[string]interface{})
	require.True(t, ok)
	assert.IsType(t, "", fields["fn"])
	assert.IsType(t, "", fields["ch"])
}

func TestNewLogEntryStampsAndSanitizes(t *testing.T) {
	entry := NewLogEntry(LogLevelWarn, "careful", errors.New("boom"), "test-widget")

	assert.Equal(t, LogLevelWarn, entry.Level)
	assert.Equal(t, "careful", entry.Message)
	assert.Equal(t, "test-widget", entry.Source)
	assert.NotEmpty(t, entry.Timestamp)
	reduced, ok := entry.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "boom", reduced["message"])
}
