package validation

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// realtimeEventSchema describes the wire shape of a realtime association
// event as published by the protocol bridge. Fields the renderer only
// optionally uses (variant, body) stay unconstrained beyond their type.
const realtimeEventSchema = `{
  "type": "object",
  "required": ["timelineID", "association"],
  "properties": {
    "timelineID": {"type": "string", "minLength": 1},
    "item": {
      "type": "object",
      "required": ["resourceID", "owner"],
      "properties": {
        "resourceID": {"type": "string", "minLength": 1},
        "owner": {"type": "string", "minLength": 1},
        "timelineID": {"type": "string"},
        "lastUpdate": {"type": "string"}
      }
    },
    "association": {
      "type": "object",
      "required": ["id", "schema", "target", "author", "signedAt"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "schema": {"type": "string", "minLength": 1},
        "target": {"type": "string", "minLength": 1},
        "author": {"type": "string", "minLength": 1},
        "owner": {"type": "string"},
        "signedAt": {"type": "string"},
        "variant": {"type": "string"},
        "body": {"type": "object"}
      }
    }
  }
}`

// Validator checks inbound realtime event payloads before they enter the
// classification pipeline.
type Validator struct {
	schema *gojsonschema.Schema
}

func NewValidator() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(realtimeEventSchema))
	if err != nil {
		return nil, fmt.Errorf("compile realtime event schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// ValidateRealtimeEvent returns an error describing every violation when the
// payload does not match the expected wire shape.
func (v *Validator) ValidateRealtimeEvent(raw []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return fmt.Errorf("validate payload: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, resErr := range result.Errors() {
		msgs = append(msgs, resErr.String())
	}
	return fmt.Errorf("invalid realtime event: %s", strings.Join(msgs, "; "))
}
