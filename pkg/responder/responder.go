package responder

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const ContentType = "application/json"

// Kind identifica o tipo do envelope de resposta.
type Kind string

const (
	KindSync  Kind = "sync"
	KindError Kind = "error"
)

// Envelope is the wire shape of every response written by the layer.
type Envelope struct {
	Type     Kind `json:"type"`
	Status   int  `json:"status"`
	Metadata any  `json:"metadata"`
}

// Result is what a handler returns: a payload plus the status and kind it
// should be written with. Write is the only place a Result becomes an Envelope.
type Result struct {
	Status  int
	Payload any
	Kind    Kind
}

// OK builds a 200 sync result.
func OK(payload any) Result {
	return Result{Status: http.StatusOK, Payload: payload, Kind: KindSync}
}

// Fail builds an error result with the given status.
func Fail(status int, payload any) Result {
	return Result{Status: status, Payload: payload, Kind: KindError}
}

func (r Result) IsError() bool {
	return r.Kind == KindError
}

// Envelope converts the result into its wire representation.
func (r Result) Envelope() Envelope {
	kind := r.Kind
	if kind == "" {
		kind = KindSync
	}
	status := r.Status
	if status == 0 {
		status = http.StatusOK
	}
	return Envelope{Type: kind, Status: status, Metadata: r.Payload}
}

// Write serializes the result envelope to w.
func Write(w http.ResponseWriter, r Result) error {
	env := r.Envelope()
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("responder: marshal envelope: %w", err)
	}

	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(env.Status)
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("responder: write body: %w", err)
	}
	return nil
}
