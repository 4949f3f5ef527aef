package mqtt

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"

	"example.com/tigate/internal/teleinfo"
)

func TestNewEnvelope(t *testing.T) {
	rec, err := teleinfo.ParseFrame([]byte("\nPAPP 00120 $\r"))
	if err != nil {
		t.Fatalf("ParseFrame: %v", err)
	}
	env := NewEnvelope("/dev/ttyUSB0", rec)
	if _, err := uuid.Parse(env.EnvelopeID); err != nil {
		t.Errorf("EnvelopeID %q not a UUID: %v", env.EnvelopeID, err)
	}
	if env.Ts.IsZero() || env.Source != "/dev/ttyUSB0" {
		t.Errorf("envelope = %+v", env)
	}

	b, err := json.Marshal(env)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded Envelope
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	f, ok := decoded.Record.Value("PAPP")
	if !ok || f.Value != "00120" || f.Checksum != '$' {
		t.Errorf("round-tripped field = %+v, present %v", f, ok)
	}
	if decoded.Record.Mode != teleinfo.ModeLegacy || !decoded.Record.Valid {
		t.Errorf("record = %+v", decoded.Record)
	}

	if a, b := NewEnvelope("s", rec).EnvelopeID, NewEnvelope("s", rec).EnvelopeID; a == b {
		t.Error("envelope ids repeat")
	}
}
