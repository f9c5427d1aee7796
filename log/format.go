package log

import (
	"encoding/json"
	"fmt"
	"strings"
)

const timeFormat = "2006-01-02 15:04:05"

type record struct {
	Timestamp string `json:"timestamp"`
	Level     string `json:"level"`
	Service   string `json:"service,omitempty"`
	Message   string `json:"message"`
}

// encodeJSON renders r as a single JSON line.
func encodeJSON(r record) []byte {
	b, err := json.Marshal(r)
	if err != nil {
		b = fmt.Appendf(nil, `{"level":%q,"message":%q}`, r.Level, r.Message)
	}

	return append(b, '\n')
}

// encodeText renders r as "[time] LEVEL [service] message", wrapped in the
// level color when colored is set.
func encodeText(r record, level LogLevel, colored bool) []byte {
	var sb strings.Builder

	if colored {
		sb.WriteString(level.ansi())
	}

	fmt.Fprintf(&sb, "[%s] %-5s", r.Timestamp, r.Level)
	if r.Service != "" {
		fmt.Fprintf(&sb, " [%s]", r.Service)
	}
	sb.WriteByte(' ')
	sb.WriteString(r.Message)

	if colored {
		sb.WriteString(ansiReset)
	}
	sb.WriteByte('\n')

	return []byte(sb.String())
}
