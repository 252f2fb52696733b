package protocol

import (
	"fmt"
	"reflect"
	"time"
)

// LogLevel is the severity of a log entry.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Severity returns the numeric rank of the level for threshold comparisons.
// Unknown levels rank as info.
func (l LogLevel) Severity() int {
	switch l {
	case LogLevelDebug:
		return 0
	case LogLevelWarn:
		return 2
	case LogLevelError:
		return 3
	default:
		return 1
	}
}

// LogEntry is one diagnostic record. Entries are immutable once created and
// are serialized defensively before transport.
type LogEntry struct {
	Level     LogLevel    `json:"level"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
	Source    string      `json:"source,omitempty"`
}

// NewLogEntry creates an entry stamped with the current UTC time. The data
// payload is sanitized so the entry can always be marshalled.
func NewLogEntry(level LogLevel, message string, data interface{}, source string) LogEntry {
	return LogEntry{
		Level:     level,
		Message:   message,
		Data:      SanitizeValue(data),
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Source:    source,
	}
}

// CircularSentinel replaces cyclic references during sanitization.
const CircularSentinel = "[circular]"

// SanitizeValue prepares an arbitrary value for transport: primitives pass
// through unchanged, errors reduce to name/message, and container values are
// probed for circular references, which are replaced with a sentinel rather
// than letting serialization recurse forever.
func SanitizeValue(value interface{}) interface{} {
	if value == nil {
		return nil
	}
	if err, ok := value.(error); ok {
		return map[string]interface{}{
			"name":    fmt.Sprintf("%T", err),
			"message": err.Error(),
		}
	}
	return sanitize(reflect.ValueOf(value), make(map[uintptr]bool))
}

func sanitize(v reflect.Value, seen map[uintptr]bool) interface{} {
	switch v.Kind() {
	case reflect.Invalid:
		return nil
	case reflect.Bool, reflect.String,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return v.Interface()
	case reflect.Interface, reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		if v.Kind() == reflect.Ptr {
			addr := v.Pointer()
			if seen[addr] {
				return CircularSentinel
			}
			seen[addr] = true
			defer delete(seen, addr)
		}
		if err, ok := v.Interface().(error); ok {
			return map[string]interface{}{
				"name":    fmt.Sprintf("%T", err),
				"message": err.Error(),
			}
		}
		return sanitize(v.Elem(), seen)
	case reflect.Map:
		if v.IsNil() {
			return nil
		}
		addr := v.Pointer()
		if seen[addr] {
			return CircularSentinel
		}
		seen[addr] = true
		defer delete(seen, addr)
		out := make(map[string]interface{}, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = sanitize(iter.Value(), seen)
		}
		return out
	case reflect.Slice:
		if v.IsNil() {
			return nil
		}
		addr := v.Pointer()
		if seen[addr] {
			return CircularSentinel
		}
		seen[addr] = true
		defer delete(seen, addr)
		return sanitizeSequence(v, seen)
	case reflect.Array:
		return sanitizeSequence(v, seen)
	case reflect.Struct:
		t := v.Type()
		out := make(map[string]interface{}, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			if !field.IsExported() {
				continue
			}
			out[field.Name] = sanitize(v.Field(i), seen)
		}
		return out
	default:
		// Functions, channels and other unserializable kinds stringify.
		return fmt.Sprintf("%T", v.Interface())
	}
}

func sanitizeSequence(v reflect.Value, seen map[uintptr]bool) interface{} {
	out := make([]interface{}, v.Len())
	for i := 0; i < v.Len(); i++ {
		out[i] = sanitize(v.Index(i), seen)
	}
	return out
}
