// Package protocol implements the framed text protocol spoken between
// clients and the booking server.  A request frame is
//
//	TOKEN(#FIELD)*>
//
// Fields are separated by '#' and the frame ends at the first '>'.
// Responses are plain text terminated by a blank line and carry no frame
// marker.
package protocol

import (
	"strings"
)

const (
	// EndMarker terminates a request frame.
	EndMarker = '>'
	// FieldSeparator separates the command token and its fields.
	FieldSeparator = "#"
)

// Command tokens understood by the server.
const (
	CmdLogin     = "LOGIN"
	CmdLogout    = "LOGOUT"
	CmdAllTk     = "ALLTK"
	CmdTravel    = "TRVL"
	CmdRun       = "RUN"
	CmdCost      = "COST"
	CmdBook      = "BKD"
	CmdBookSaver = "BKDT"
	CmdTerm      = "TERM"
	CmdDown      = "DOWN"
)

// Frame is one parsed request.
type Frame struct {
	Command string
	Fields  []string
}

// Parse splits the bytes of one frame, without its end marker, into the
// command token and fields.  Whitespace around the token is dropped so
// line oriented clients can send a newline after each frame; fields are
// kept verbatim.
func Parse(raw []byte) Frame {
	parts := strings.Split(string(raw), FieldSeparator)
	return Frame{
		Command: strings.TrimSpace(parts[0]),
		Fields:  parts[1:],
	}
}

// Field returns the i-th field and whether it was present.
func (f Frame) Field(i int) (string, bool) {
	if i < 0 || i >= len(f.Fields) {
		return "", false
	}
	return f.Fields[i], true
}

// Encode builds the wire form of a request frame.
func Encode(command string, fields ...string) []byte {
	var b strings.Builder
	b.WriteString(command)
	for _, f := range fields {
		b.WriteString(FieldSeparator)
		b.WriteString(f)
	}
	b.WriteByte(EndMarker)
	return []byte(b.String())
}

// Response renders response text: an optional header line, the body
// lines, and the terminating blank line.
func Response(header string, lines ...string) []byte {
	var b strings.Builder
	if header != "" {
		b.WriteString(header)
		b.WriteByte('\n')
	}
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return []byte(b.String())
}
