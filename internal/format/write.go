package format

// Writer accumulates formatted output and keeps single spaces canonical.
type Writer struct {
	buf []byte
}

// NewWriter creates a writer with room for sizeHint bytes.
func NewWriter(sizeHint int) *Writer {
	return &Writer{buf: make([]byte, 0, sizeHint)}
}

// Bytes returns the accumulated formatted output.
func (w *Writer) Bytes() []byte { return w.buf }

// String returns the accumulated output as a string.
func (w *Writer) String() string { return string(w.buf) }

// WriteString writes a string to the output.
func (w *Writer) WriteString(s string) {
	w.buf = append(w.buf, s...)
}

// WriteByte writes a single byte to the output.
func (w *Writer) WriteByte(b byte) error {
	w.buf = append(w.buf, b)
	return nil
}

// Space writes a single space unless the output is empty or already ends
// with one.
func (w *Writer) Space() {
	if len(w.buf) == 0 || w.buf[len(w.buf)-1] == ' ' {
		return
	}
	w.buf = append(w.buf, ' ')
}

// MaybeSpace writes a space if the condition is true.
func (w *Writer) MaybeSpace(cond bool) {
	if cond {
		w.Space()
	}
}

// Op writes an infix operator, padded with spaces unless compact.
func (w *Writer) Op(op string, compact bool) {
	w.MaybeSpace(!compact)
	w.WriteString(op)
	w.MaybeSpace(!compact)
}
