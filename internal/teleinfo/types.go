package teleinfo

import "time"

// Mode identifies which of the two Teleinfo wire grammars a frame uses.
// Legacy ("historique") frames separate fields with spaces and never carry
// timestamps; Standard frames use tabs and may embed a horodate per field.
type Mode int

const (
	ModeLegacy Mode = iota
	ModeStandard
)

// Separator returns the field separator byte for the mode.
func (m Mode) Separator() byte {
	if m == ModeStandard {
		return '\t'
	}
	return ' '
}

func (m Mode) String() string {
	switch m {
	case ModeLegacy:
		return "legacy"
	case ModeStandard:
		return "standard"
	}
	return "unknown"
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	switch string(b) {
	case "legacy":
		*m = ModeLegacy
	case "standard":
		*m = ModeStandard
	default:
		return errUnknownMode(string(b))
	}
	return nil
}

type errUnknownMode string

func (e errUnknownMode) Error() string { return "teleinfo: unknown mode " + string(e) }

// Horodate is the timestamp token embedded in some Standard-mode fields: a
// season marker followed by twelve digits read as YYMMDDHHMMSS.
type Horodate struct {
	// Season is the marker as transmitted: 'H'/'h' (winter), 'E'/'e'
	// (summer) or ' ' when the meter clock is not synchronized.
	Season byte
	// Time is the decoded local date and time. The century is always 2000.
	Time time.Time
	// RawValue is the exact 13-character token from the wire. Checksum
	// recomputation needs it unmodified.
	RawValue string
}

// Field is one tag/value unit of a frame.
type Field struct {
	Tag      string
	Value    string
	Checksum byte
	// Horodate is non-nil only for Standard-mode tags drawn from the
	// timestamped dictionary.
	Horodate *Horodate
}

// Record is one fully delimited frame assembled into a tag lookup.
// Tags are unique within a frame; if a meter ever repeated one, the last
// occurrence would win. A Record is immutable once returned.
type Record struct {
	Fields map[string]Field
	Mode   Mode
	// Valid is true when the whole frame body parsed and every field's
	// checksum verified. Checksum failures do not drop fields; they only
	// clear this flag.
	Valid bool
}

// MessageType distinguishes the short Legacy transmission from a normal one.
type MessageType int

const (
	MessageShort MessageType = iota
	MessageNormal
)

func (t MessageType) String() string {
	if t == MessageNormal {
		return "normal"
	}
	return "short"
}

// MeterType reports the electrical topology advertised by a frame.
type MeterType int

const (
	MeterMonoPhase MeterType = iota
	MeterTriPhase
)

func (t MeterType) String() string {
	if t == MeterTriPhase {
		return "triphase"
	}
	return "monophase"
}
