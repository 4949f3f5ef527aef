package teleinfo

import (
	"errors"
	"os"
)

// Transport is the byte source a decoder reads from. A serial line, a TCP
// socket or an in-memory replay all satisfy it. Reads that time out should
// surface an error whose Timeout method reports true, or wrap
// os.ErrDeadlineExceeded; Decode treats those as "no data yet" and keeps
// going.
type Transport interface {
	Read(p []byte) (n int, err error)
}

const readChunk = 256

// Decode pulls bytes from t until one complete frame can be extracted and
// parsed, then returns the unconsumed tail for the caller to feed back in on
// the next call. leftover is the tail from the previous call (nil on the
// first).
//
// Timeout reads contribute zero bytes and the loop continues. Any other read
// error is returned once the accumulated bytes no longer contain a complete
// frame, so a frame already buffered ahead of an EOF is still delivered.
func Decode(t Transport, leftover []byte) ([]byte, *Record, error) {
	acc := append([]byte(nil), leftover...)
	buf := make([]byte, readChunk)
	for {
		body, rest, xerr := ExtractFrame(acc)
		if xerr == nil {
			rec, perr := ParseFrame(body)
			if perr != nil {
				return append([]byte(nil), rest...), nil, perr
			}
			return append([]byte(nil), rest...), rec, nil
		}

		n, rerr := t.Read(buf)
		if n > 0 {
			acc = append(acc, buf[:n]...)
		}
		if rerr != nil && !isTimeout(rerr) {
			// Give extraction one more chance over what we already hold.
			if body, rest, xerr := ExtractFrame(acc); xerr == nil {
				rec, perr := ParseFrame(body)
				if perr != nil {
					return append([]byte(nil), rest...), nil, perr
				}
				return append([]byte(nil), rest...), rec, nil
			}
			return acc, nil, rerr
		}
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
