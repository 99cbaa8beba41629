package logger

import (
	"encoding/json"
)

// Entry is a parsed log line kept for the API.
type Entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
}

// EntryBuffer is an io.Writer that keeps the most recent zerolog JSON
// entries in memory.
type EntryBuffer struct {
	buffer *RingBuffer[Entry]
}

// NewEntryBuffer creates a buffer holding up to size entries.
func NewEntryBuffer(size int) *EntryBuffer {
	return &EntryBuffer{buffer: NewRingBuffer[Entry](size)}
}

// Write implements io.Writer. Lines that are not JSON objects are dropped.
func (b *EntryBuffer) Write(p []byte) (int, error) {
	if entry, ok := parseEntry(p); ok {
		b.buffer.Push(entry)
	}
	return len(p), nil
}

// Entries returns the buffered entries, oldest first.
func (b *EntryBuffer) Entries() []Entry {
	return b.buffer.GetAll()
}

func parseEntry(data []byte) (Entry, bool) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Entry{}, false
	}

	entry := Entry{}
	take := func(key string) string {
		s, _ := raw[key].(string)
		delete(raw, key)
		return s
	}
	entry.Timestamp = take(zerologTimeField)
	entry.Level = take(zerologLevelField)
	entry.Component = take("component")
	entry.Message = take(zerologMessageField)
	if len(raw) > 0 {
		entry.Fields = raw
	}
	return entry, true
}

const (
	zerologTimeField    = "time"
	zerologLevelField   = "level"
	zerologMessageField = "message"
)
