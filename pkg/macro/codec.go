package macro

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/Taboulet/BiggerTask/config"
)

// The .recq format stores absolute coordinates only. Monitor names and
// relative offsets are deliberately not persisted: loaded macros re-derive
// monitor containment from the absolute position at playback time. Saved
// files therefore lose layout correction across monitor rearrangements;
// changing that would break every existing .recq file.

type wireEvent struct {
	T    float64 `json:"t"`
	Type string  `json:"type"`
	X    int     `json:"x,omitempty"`
	Y    int     `json:"y,omitempty"`
	Btn  int     `json:"btn,omitempty"`
	Code uint32  `json:"code,omitempty"`
	Down bool    `json:"down,omitempty"`
}

type wireDoc struct {
	Format string            `json:"format"`
	Events []json.RawMessage `json:"events"`
}

// Save writes the event log to path in recq-v1 form.
func Save(path string, events []Event) error {
	records := make([]map[string]any, 0, len(events))
	for _, e := range events {
		o := map[string]any{"t": e.T}
		switch e.Type {
		case MouseMove:
			o["type"] = "mm"
			o["x"] = e.X
			o["y"] = e.Y
		case MouseButton:
			o["type"] = "mb"
			o["x"] = e.X
			o["y"] = e.Y
			o["btn"] = e.Button
			o["down"] = e.Pressed
		case Key:
			o["type"] = "key"
			o["code"] = e.Keycode
			o["down"] = e.Pressed
		}
		records = append(records, o)
	}

	doc := map[string]any{
		"format": config.MacroFormat,
		"events": records,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode macro: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write macro file: %w", err)
	}
	return nil
}

// Load reads a macro file. Both the wrapped recq-v1 document and the legacy
// bare array of event records are accepted. Records with an unknown type are
// dropped; the count of dropped records is returned so the caller can report
// a partial load. Any document-level failure yields an empty log.
func Load(path string) (events []Event, dropped int, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read macro file: %w", err)
	}

	var records []json.RawMessage
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		// Legacy form: a bare array of event records, no format marker.
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, 0, fmt.Errorf("failed to parse macro file: %w", err)
		}
	} else {
		var doc wireDoc
		if err := json.Unmarshal(trimmed, &doc); err != nil {
			return nil, 0, fmt.Errorf("failed to parse macro file: %w", err)
		}
		records = doc.Events
	}

	events = make([]Event, 0, len(records))
	for _, raw := range records {
		var w wireEvent
		if err := json.Unmarshal(raw, &w); err != nil {
			dropped++
			continue
		}
		e := Event{T: int64(w.T)}
		switch w.Type {
		case "mm":
			e.Type = MouseMove
			e.X = w.X
			e.Y = w.Y
		case "mb":
			e.Type = MouseButton
			e.X = w.X
			e.Y = w.Y
			e.Button = w.Btn
			e.Pressed = w.Down
		case "key":
			e.Type = Key
			e.Keycode = w.Code
			e.Pressed = w.Down
		default:
			dropped++
			continue
		}
		events = append(events, e)
	}
	return events, dropped, nil
}
