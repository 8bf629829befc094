package dispatch

import "github.com/iliyamo/bordrail/internal/protocol"

// Kind classifies the outcome of one command.
type Kind int

const (
	Success Kind = iota
	ValidationError
	Unauthorized
	NotFound
	Failure
	Unrecognized
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "success"
	case ValidationError:
		return "validation_error"
	case Unauthorized:
		return "unauthorized"
	case NotFound:
		return "not_found"
	case Failure:
		return "failure"
	case Unrecognized:
		return "unrecognized"
	}
	return "unknown"
}

// Result is the outcome of a command: the response text plus the effects
// the session must apply after writing it.
type Result struct {
	Kind      Kind
	Header    string
	Lines     []string
	Terminate bool // end the session after responding
}

// Bytes renders the response as written to the client.
func (r Result) Bytes() []byte {
	return protocol.Response(r.Header, r.Lines...)
}

func message(kind Kind, text string) Result {
	return Result{Kind: kind, Lines: []string{text}}
}
