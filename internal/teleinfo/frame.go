package teleinfo

import (
	"bytes"
	"errors"
)

// Frame delimiters.
const (
	stx = 0x02
	etx = 0x03
)

var (
	// ErrIncomplete means the buffer does not yet hold both frame
	// delimiters. It drives the read-retry loop and is never fatal.
	ErrIncomplete = errors.New("teleinfo: incomplete frame")
	// ErrParse means a fully delimited frame body failed to parse under
	// either grammar. More bytes will not fix it.
	ErrParse = errors.New("teleinfo: frame parses in neither mode")
)

// ExtractFrame locates the first 0x02..0x03 region in buf. Bytes before the
// 0x02 are inter-frame noise and are not part of the body. When either
// delimiter is still missing the whole buffer is handed back untouched with
// ErrIncomplete so the caller can accumulate more bytes.
func ExtractFrame(buf []byte) (body, rest []byte, err error) {
	start := bytes.IndexByte(buf, stx)
	if start < 0 {
		return nil, buf, ErrIncomplete
	}
	end := bytes.IndexByte(buf[start+1:], etx)
	if end < 0 {
		return nil, buf, ErrIncomplete
	}
	body = buf[start+1 : start+1+end]
	rest = buf[start+2+end:]
	return body, rest, nil
}

// ParseFrame classifies and tokenizes one extracted frame body. Mode
// selection is two independent total-parse attempts: the body must split
// into one or more Legacy lines, or failing that into one or more Standard
// lines, with nothing left over. Anything else is ErrParse.
//
// Checksum mismatches do not reject the frame; they clear Valid on the
// returned Record so degraded data stays observable.
func ParseFrame(body []byte) (*Record, error) {
	fields, ok := parseLines(body, ModeLegacy)
	mode := ModeLegacy
	if !ok {
		fields, ok = parseLines(body, ModeStandard)
		mode = ModeStandard
	}
	if !ok {
		return nil, ErrParse
	}

	rec := &Record{Fields: make(map[string]Field, len(fields)), Mode: mode, Valid: true}
	for _, f := range fields {
		if !f.VerifyChecksum(mode) {
			rec.Valid = false
		}
		// Last occurrence wins on a repeated tag.
		rec.Fields[f.Tag] = f
	}
	return rec, nil
}

func parseLines(body []byte, mode Mode) ([]Field, bool) {
	var fields []Field
	rest := body
	for len(rest) > 0 {
		f, r, ok := tokenizeLine(rest, mode)
		if !ok {
			return nil, false
		}
		fields = append(fields, f)
		rest = r
	}
	if len(fields) == 0 {
		return nil, false
	}
	return fields, true
}
