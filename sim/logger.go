package sim

import (
	"fmt"
	"os"
	"strings"
)

// Logger writes one CSV row per step, in the column order given at creation.
type Logger struct {
	f      *os.File
	format string
}

func NewLogger(path string, columns ...string) (*Logger, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	fmt.Fprint(f, strings.Join(columns, ","), "\n")
	cells := strings.Repeat("%f,", len(columns))
	return &Logger{f: f, format: cells[:len(cells)-1] + "\n"}, nil
}

func (l *Logger) Log(v ...interface{}) {
	if l == nil {
		return
	}
	fmt.Fprintf(l.f, l.format, v...)
}

func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	return l.f.Close()
}
