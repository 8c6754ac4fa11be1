package transfer

import "io"

// ProgressFilter strips carriage-return progress redraws from tool output
// before it reaches the persistent run log. Tools like rsync repaint an
// in-progress line with \r; only the text after the last \r on each line
// survives, so the log keeps final-state lines only.
type ProgressFilter struct {
	w   io.Writer
	buf []byte
}

func NewProgressFilter(w io.Writer) *ProgressFilter {
	return &ProgressFilter{w: w}
}

func (f *ProgressFilter) Write(p []byte) (int, error) {
	for _, b := range p {
		switch b {
		case '\r':
			// redraw: discard what the tool is about to overwrite
			f.buf = f.buf[:0]
		case '\n':
			if err := f.emit(); err != nil {
				return 0, err
			}
		default:
			f.buf = append(f.buf, b)
		}
	}
	return len(p), nil
}

// Flush writes any unterminated trailing line.
func (f *ProgressFilter) Flush() error {
	if len(f.buf) == 0 {
		return nil
	}
	return f.emit()
}

func (f *ProgressFilter) emit() error {
	line := append(f.buf, '\n')
	f.buf = f.buf[:0]
	_, err := f.w.Write(line)
	return err
}
