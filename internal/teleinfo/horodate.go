package teleinfo

import (
	"errors"
	"fmt"
	"time"
)

// HorodateLen is the fixed width of a horodate token on the wire.
const HorodateLen = 13

var ErrBadHorodate = errors.New("teleinfo: malformed horodate")

func isSeason(c byte) bool {
	switch c {
	case 'H', 'h', 'E', 'e', ' ':
		return true
	}
	return false
}

// ParseHorodate decodes a 13-character horodate token: one season marker
// ('H'/'E' in either case, or a space) followed by twelve digits read as
// YYMMDDHHMMSS in local time. The century is fixed at 2000; the token is
// kept verbatim in RawValue.
func ParseHorodate(s string) (Horodate, error) {
	if len(s) != HorodateLen {
		return Horodate{}, fmt.Errorf("%w: %d characters", ErrBadHorodate, len(s))
	}
	if !isSeason(s[0]) {
		return Horodate{}, fmt.Errorf("%w: season %q", ErrBadHorodate, s[0])
	}
	var n [6]int
	for i := 0; i < 6; i++ {
		hi, lo := s[1+2*i], s[2+2*i]
		if hi < '0' || hi > '9' || lo < '0' || lo > '9' {
			return Horodate{}, fmt.Errorf("%w: non-digit in %q", ErrBadHorodate, s[1:])
		}
		n[i] = int(hi-'0')*10 + int(lo-'0')
	}
	return Horodate{
		Season:   s[0],
		Time:     time.Date(2000+n[0], time.Month(n[1]), n[2], n[3], n[4], n[5], 0, time.Local),
		RawValue: s,
	}, nil
}

// FormatHorodate renders a horodate back to its 13-character wire token.
func FormatHorodate(h Horodate) string {
	return string(h.Season) + h.Time.Format("060102150405")
}
