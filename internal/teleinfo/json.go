package teleinfo

import (
	"encoding/json"
	"time"
)

// The wire structs keep the JSON surface stable independently of the
// in-memory layout, and render the checksum as a one-character string
// rather than a bare byte.

type horodateJSON struct {
	Season string    `json:"season"`
	Time   time.Time `json:"time"`
	Raw    string    `json:"raw"`
}

func (h Horodate) MarshalJSON() ([]byte, error) {
	return json.Marshal(horodateJSON{
		Season: string(h.Season),
		Time:   h.Time,
		Raw:    h.RawValue,
	})
}

func (h *Horodate) UnmarshalJSON(data []byte) error {
	var w horodateJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if len(w.Raw) == HorodateLen {
		parsed, err := ParseHorodate(w.Raw)
		if err == nil {
			*h = parsed
			return nil
		}
	}
	h.Time = w.Time
	h.RawValue = w.Raw
	if w.Season != "" {
		h.Season = w.Season[0]
	}
	return nil
}

type fieldJSON struct {
	Tag      string    `json:"tag"`
	Value    string    `json:"value"`
	Checksum string    `json:"checksum"`
	Horodate *Horodate `json:"horodate,omitempty"`
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(fieldJSON{
		Tag:      f.Tag,
		Value:    f.Value,
		Checksum: string(f.Checksum),
		Horodate: f.Horodate,
	})
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var w fieldJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	f.Tag = w.Tag
	f.Value = w.Value
	f.Horodate = w.Horodate
	if w.Checksum != "" {
		f.Checksum = w.Checksum[0]
	}
	return nil
}

type recordJSON struct {
	Mode   Mode             `json:"mode"`
	Valid  bool             `json:"valid"`
	Fields map[string]Field `json:"fields"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{Mode: r.Mode, Valid: r.Valid, Fields: r.Fields})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var w recordJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	r.Mode = w.Mode
	r.Valid = w.Valid
	r.Fields = w.Fields
	return nil
}
