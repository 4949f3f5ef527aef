package teleinfo

// A physical line is '\n' + fields + '\r'. The tokenizers below consume one
// line from the front of the buffer and hand back the remainder, failing on
// any deviation from the fixed grammar: unknown tag, misplaced separator or
// missing terminator all read as "this line does not parse".

// cut returns the bytes before the first sep and the remainder after it.
// The scan never crosses a line terminator.
func cut(b []byte, sep byte) (tok, rest []byte, ok bool) {
	for i, c := range b {
		switch c {
		case sep:
			return b[:i], b[i+1:], true
		case '\r', '\n':
			return nil, nil, false
		}
	}
	return nil, nil, false
}

// tokenizeLine parses one line under the given mode. Standard mode attempts
// the plain form first, then the timestamped form; the tag dictionaries are
// disjoint so at most one can structurally match.
func tokenizeLine(b []byte, mode Mode) (Field, []byte, bool) {
	if mode == ModeLegacy {
		return tokenizePlain(b, ModeLegacy)
	}
	if f, rest, ok := tokenizePlain(b, ModeStandard); ok {
		return f, rest, true
	}
	return tokenizeHorodate(b)
}

// tokenizePlain handles tag+sep+value+sep+checksum lines in either mode.
func tokenizePlain(b []byte, mode Mode) (Field, []byte, bool) {
	if len(b) == 0 || b[0] != '\n' {
		return Field{}, nil, false
	}
	sep := mode.Separator()
	tag, rest, ok := cut(b[1:], sep)
	if !ok {
		return Field{}, nil, false
	}
	if mode == ModeLegacy {
		if !IsLegacyTag(string(tag)) {
			return Field{}, nil, false
		}
	} else if !IsStandardTag(string(tag)) {
		return Field{}, nil, false
	}
	value, rest, ok := cut(rest, sep)
	if !ok || len(rest) < 2 || rest[1] != '\r' {
		return Field{}, nil, false
	}
	f := Field{Tag: string(tag), Value: string(value), Checksum: rest[0]}
	return f, rest[2:], true
}

// tokenizeHorodate handles the Standard form carrying an embedded horodate:
// tag+'\t'+horodate+'\t'+value+'\t'+checksum.
func tokenizeHorodate(b []byte) (Field, []byte, bool) {
	if len(b) == 0 || b[0] != '\n' {
		return Field{}, nil, false
	}
	tag, rest, ok := cut(b[1:], '\t')
	if !ok || !IsStandardHorodateTag(string(tag)) {
		return Field{}, nil, false
	}
	if len(rest) < HorodateLen+1 || rest[HorodateLen] != '\t' {
		return Field{}, nil, false
	}
	hd, err := ParseHorodate(string(rest[:HorodateLen]))
	if err != nil {
		return Field{}, nil, false
	}
	value, rest, ok := cut(rest[HorodateLen+1:], '\t')
	if !ok || len(rest) < 2 || rest[1] != '\r' {
		return Field{}, nil, false
	}
	f := Field{Tag: string(tag), Value: string(value), Checksum: rest[0], Horodate: &hd}
	return f, rest[2:], true
}
