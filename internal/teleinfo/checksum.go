package teleinfo

// Checksum computes the one-byte checksum of a field's raw content: the sum
// of all character values, masked to six bits, shifted into the printable
// range by adding 0x20. The empty input sums to zero and yields 0x20.
func Checksum(content []byte) byte {
	var sum uint32
	for _, c := range content {
		sum += uint32(c)
	}
	return byte(sum&0x3F) + 0x20
}

// checksumInput rebuilds the byte sequence the meter summed for a field.
// Standard mode includes a trailing separator in the sum; Legacy mode does
// not. The asymmetry is part of the protocol, not an accident.
func checksumInput(mode Mode, f Field) []byte {
	sep := mode.Separator()
	buf := make([]byte, 0, len(f.Tag)+len(f.Value)+16)
	buf = append(buf, f.Tag...)
	buf = append(buf, sep)
	if f.Horodate != nil {
		buf = append(buf, f.Horodate.RawValue...)
		buf = append(buf, sep)
	}
	buf = append(buf, f.Value...)
	if mode == ModeStandard {
		buf = append(buf, sep)
	}
	return buf
}

// VerifyChecksum reports whether the field's transmitted checksum matches
// the one recomputed under the given mode's whitespace convention.
func (f Field) VerifyChecksum(mode Mode) bool {
	return Checksum(checksumInput(mode, f)) == f.Checksum
}
