package email

import "bytes"

// lenientHeader prepares a raw message for the strict header reader. A
// leading mbox "From " separator line is dropped. The header ends at the
// first line that is neither a field nor a folded continuation; that line
// and everything after it become the body, as if a blank separator line
// preceded it.
func lenientHeader(raw []byte) []byte {
	if bytes.HasPrefix(raw, []byte("From ")) {
		i := bytes.IndexByte(raw, '\n')
		if i < 0 {
			return nil
		}
		raw = raw[i+1:]
	}

	for off := 0; off < len(raw); {
		end := bytes.IndexByte(raw[off:], '\n')
		next := len(raw)
		if end >= 0 {
			next = off + end + 1
		} else {
			end = len(raw) - off
		}
		line := bytes.TrimRight(raw[off:off+end], "\r")
		switch {
		case len(line) == 0:
			return raw
		case line[0] == ' ' || line[0] == '\t':
			if off == 0 {
				return separate(raw, off)
			}
		case !isHeaderField(line):
			return separate(raw, off)
		}
		off = next
	}
	return raw
}

// separate inserts an empty line at off, ending the header there.
func separate(raw []byte, off int) []byte {
	out := make([]byte, 0, len(raw)+2)
	out = append(out, raw[:off]...)
	out = append(out, "\r\n"...)
	return append(out, raw[off:]...)
}

// isHeaderField reports whether line starts with a field name made of
// token characters followed by a colon.
func isHeaderField(line []byte) bool {
	colon := bytes.IndexByte(line, ':')
	if colon <= 0 {
		return false
	}
	for _, c := range line[:colon] {
		if !isTokenChar(c) {
			return false
		}
	}
	return true
}

func isTokenChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return bytes.IndexByte([]byte("!#$%&'*+-.^_`|~"), c) >= 0
}
