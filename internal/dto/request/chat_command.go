// Package request defines inbound payloads: the websocket command envelope
// and the REST request bodies.
package request

import (
	"encoding/json"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance for websocket payloads. REST
// bodies go through gin's binding layer instead.
var validate = validator.New()

// CommandEnvelope is the first-pass decode of an inbound websocket frame:
// only the discriminator is read, the rest stays raw until the
// type-specific payload struct is known.
type CommandEnvelope struct {
	Type string `json:"type"`

	raw json.RawMessage
}

// DecodeCommand parses a frame into an envelope.
func DecodeCommand(data []byte) (*CommandEnvelope, error) {
	var env CommandEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	env.raw = data
	return &env, nil
}

// Bind decodes the envelope into a command payload and validates it.
func (e *CommandEnvelope) Bind(payload any) error {
	if err := json.Unmarshal(e.raw, payload); err != nil {
		return err
	}
	return validate.Struct(payload)
}
