package shell

import (
	"bytes"
	"strings"
)

// prefixWriter splits process output into lines and writes each one with the
// node prefix.
type prefixWriter struct {
	s      *Supervisor
	prefix string
	buf    []byte
}

func (w *prefixWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.writeLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

// Close writes a trailing partial line.
func (w *prefixWriter) Close() error {
	if len(w.buf) > 0 {
		w.writeLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *prefixWriter) writeLine(line []byte) {
	// PTYs translate \n to \r\n.
	w.s.writeLine(w.prefix + strings.TrimSuffix(string(line), "\r"))
}
