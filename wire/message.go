package wire

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status classifies a response on the wire. Synchronous replies and
// asynchronous pushes share one stream; the status value is the only
// discriminator between them.
type Status int

const (
	// StatusOK is a successful reply to the client's own command.
	StatusOK Status = 0

	// StatusNotify is an asynchronous push caused by another client's
	// action or by item expiry, not a reply to anything.
	StatusNotify Status = 1

	// StatusError is a generic command failure (bad params, domain errors).
	StatusError Status = -1

	// StatusBadState means the command is not legal in the session's
	// current authentication state.
	StatusBadState Status = -4
)

// Response is the envelope written to a client's stream, one JSON object
// per line.
type Response struct {
	Status  Status `json:"status"`
	Payload string `json:"payload"`
}

// OK builds a successful reply.
func OK(payload string) Response { return Response{Status: StatusOK, Payload: payload} }

// Notify builds an asynchronous push notification.
func Notify(payload string) Response { return Response{Status: StatusNotify, Payload: payload} }

// Error builds a generic command failure reply.
func Error(payload string) Response { return Response{Status: StatusError, Payload: payload} }

// BadState builds an illegal-transition reply.
func BadState(payload string) Response { return Response{Status: StatusBadState, Payload: payload} }

// Encode serializes the response as a single JSON line, newline terminated.
func (r Response) Encode() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return append(data, '\n'), nil
}

// DecodeResponse parses one encoded response line. The trailing newline,
// if present, is ignored.
func DecodeResponse(line []byte) (Response, error) {
	var r Response
	if err := json.Unmarshal(line, &r); err != nil {
		return Response{}, fmt.Errorf("decode response: %w", err)
	}
	return r, nil
}

// Request is one parsed command line. The first token is the command,
// the remaining tokens are its parameters. The final parameter of
// item-bearing commands may itself contain spaces; handlers reassemble
// it with JoinedParams.
type Request struct {
	Command string
	Params  []string
}

// ParseRequest splits a raw command line into command and parameters.
// Surrounding whitespace is ignored. Returns an error for a blank line.
func ParseRequest(line string) (Request, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Request{}, fmt.Errorf("empty command line")
	}
	return Request{Command: tokens[0], Params: tokens[1:]}, nil
}

// JoinedParams reassembles params[from:] into a single space-separated
// string. Used for trailing item names that may contain spaces.
func (r Request) JoinedParams(from int) string {
	if from >= len(r.Params) {
		return ""
	}
	return strings.Join(r.Params[from:], " ")
}
