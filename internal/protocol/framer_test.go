package protocol

import (
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want Frame
	}{
		{"LOGIN#1#secret", Frame{Command: "LOGIN", Fields: []string{"1", "secret"}}},
		{"ALLTK", Frame{Command: "ALLTK", Fields: []string{}}},
		{"\nTRVL#4", Frame{Command: "TRVL", Fields: []string{"4"}}},
		{"BKDT#4#Monday#", Frame{Command: "BKDT", Fields: []string{"4", "Monday", ""}}},
		{"", Frame{Command: "", Fields: []string{}}},
	}
	for _, tt := range tests {
		got := Parse([]byte(tt.raw))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.raw, diff)
		}
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	wire := Encode(CmdBookSaver, "7", "Friday", "18:05")
	if string(wire) != "BKDT#7#Friday#18:05>" {
		t.Fatalf("Encode = %q", wire)
	}
	f, err := NewFramer(strings.NewReader(string(wire)), 0, 0).Next()
	if err != nil {
		t.Fatal(err)
	}
	if f.Command != CmdBookSaver || len(f.Fields) != 3 {
		t.Errorf("decoded %+v", f)
	}
}

func TestResponse(t *testing.T) {
	got := string(Response("Day Information for: 3", "Monday", "Tuesday"))
	want := "Day Information for: 3\nMonday\nTuesday\n\n"
	if got != want {
		t.Errorf("Response = %q, want %q", got, want)
	}
	if got := string(Response("", "Goodbye.")); got != "Goodbye.\n\n" {
		t.Errorf("Response without header = %q", got)
	}
}

func TestFramerReassemblesSplitReads(t *testing.T) {
	// OneByteReader delivers a single byte per read.
	r := iotest.OneByteReader(strings.NewReader("LOGIN#12#a long password>"))
	f, err := NewFramer(r, 80, 0).Next()
	if err != nil {
		t.Fatal(err)
	}
	want := Frame{Command: "LOGIN", Fields: []string{"12", "a long password"}}
	if diff := cmp.Diff(want, f); diff != "" {
		t.Errorf("frame mismatch (-want +got):\n%s", diff)
	}
}

func TestFramerKeepsBytesAfterMarker(t *testing.T) {
	fr := NewFramer(strings.NewReader("TRVL#1>RUN#1#Monday>TERM>"), 80, 0)
	var got []string
	for {
		f, err := fr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, f.Command)
	}
	if diff := cmp.Diff([]string{"TRVL", "RUN", "TERM"}, got); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestFramerFrameLongerThanReadSize(t *testing.T) {
	long := strings.Repeat("x", 300)
	fr := NewFramer(strings.NewReader("LOGIN#1#"+long+">"), 80, 0)
	f, err := fr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if got, _ := f.Field(1); got != long {
		t.Errorf("password field has %d bytes, want %d", len(got), len(long))
	}
}

func TestFramerTooLarge(t *testing.T) {
	fr := NewFramer(strings.NewReader(strings.Repeat("A", 100)), 10, 32)
	_, err := fr.Next()
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("err = %v, want ErrFrameTooLarge", err)
	}
}

func TestFramerEndOfStream(t *testing.T) {
	if _, err := NewFramer(strings.NewReader(""), 0, 0).Next(); !errors.Is(err, io.EOF) {
		t.Errorf("empty stream: err = %v, want io.EOF", err)
	}
	if _, err := NewFramer(strings.NewReader("ALLTK>\n"), 0, 0).Next(); err != nil {
		t.Errorf("first frame: %v", err)
	}
	fr := NewFramer(strings.NewReader("ALLTK>\n"), 0, 0)
	_, _ = fr.Next()
	if _, err := fr.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("trailing newline: err = %v, want io.EOF", err)
	}
	if _, err := NewFramer(strings.NewReader("COST#4"), 0, 0).Next(); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("truncated frame: err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestFramerOverConnection(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		client.Write([]byte("COS"))
		client.Write([]byte("T#9>AL"))
		client.Write([]byte("LTK>"))
		client.Close()
	}()

	fr := NewFramer(server, 4, 0)
	first, err := fr.Next()
	if err != nil {
		t.Fatal(err)
	}
	second, err := fr.Next()
	if err != nil {
		t.Fatal(err)
	}
	if first.Command != CmdCost || second.Command != CmdAllTk {
		t.Errorf("got %q then %q", first.Command, second.Command)
	}
	if _, err := fr.Next(); !errors.Is(err, io.EOF) {
		t.Errorf("after close: err = %v, want io.EOF", err)
	}
}
