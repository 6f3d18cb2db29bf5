// Package console carries human-readable progress and failure text from the
// updater to whoever is watching: a log, a UART, or both.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Sink receives one diagnostic line per call. Delivery is best effort.
type Sink interface {
	Printf(format string, args ...any)
}

// Discard drops every message.
var Discard Sink = discard{}

type discard struct{}

func (discard) Printf(string, ...any) {}

// Log forwards messages to a logrus logger at info level.
type Log struct {
	log logrus.FieldLogger
}

// NewLog returns a sink writing to log.
func NewLog(log logrus.FieldLogger) *Log {
	return &Log{log: log}
}

// Printf implements Sink.
func (l *Log) Printf(format string, args ...any) {
	l.log.Info(line(format, args...))
}

// Writer writes CRLF-terminated text lines, as a board console does over a UART.
type Writer struct {
	w io.Writer
}

// NewWriter returns a sink writing to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Printf implements Sink.
func (c *Writer) Printf(format string, args ...any) {
	io.WriteString(c.w, line(format, args...)+"\r\n")
}

// Multi fans a message out to several sinks.
type Multi []Sink

// Printf implements Sink.
func (m Multi) Printf(format string, args ...any) {
	for _, s := range m {
		s.Printf(format, args...)
	}
}

func line(format string, args ...any) string {
	return strings.TrimRight(fmt.Sprintf(format, args...), "\r\n")
}
