// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
	jschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/samber/oops"

	"github.com/axosm/axosm/internal/world"
)

// MoveRequestSchemaID is the $id of the move request schema.
const MoveRequestSchemaID = "https://axosm.dev/schemas/move-request.schema.json"

// maxSchemaErrors bounds how many violations are reported back to a client.
const maxSchemaErrors = 3

// GenerateMoveRequestSchema returns the JSON Schema for MoveRequest.
func GenerateMoveRequestSchema() ([]byte, error) {
	r := jsonschema.Reflector{DoNotReference: true}
	schema := r.Reflect(&MoveRequest{})
	schema.ID = jsonschema.ID(MoveRequestSchemaID)
	schema.Title = "Axosm Move Request"
	schema.Description = "Body of POST /api/move"

	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return nil, oops.Code("SCHEMA_GENERATE_FAILED").Wrap(err)
	}
	return data, nil
}

var moveRequestSchema = sync.OnceValues(func() (*jschema.Schema, error) {
	raw, err := GenerateMoveRequestSchema()
	if err != nil {
		return nil, err
	}
	doc, err := jschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").Wrap(err)
	}
	c := jschema.NewCompiler()
	if err := c.AddResource(MoveRequestSchemaID, doc); err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").Wrap(err)
	}
	sch, err := c.Compile(MoveRequestSchemaID)
	if err != nil {
		return nil, oops.Code("SCHEMA_COMPILE_FAILED").Wrap(err)
	}
	return sch, nil
})

// decodeMoveRequest validates body against the move request schema and
// decodes it. Schema violations are returned as *world.ValidationError.
func decodeMoveRequest(body []byte) (MoveRequest, error) {
	sch, err := moveRequestSchema()
	if err != nil {
		return MoveRequest{}, err
	}

	doc, err := jschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return MoveRequest{}, &world.ValidationError{Field: "body", Message: "malformed JSON"}
	}
	if err := sch.Validate(doc); err != nil {
		var verr *jschema.ValidationError
		if errors.As(err, &verr) {
			return MoveRequest{}, schemaViolation(verr)
		}
		return MoveRequest{}, oops.Code("SCHEMA_VALIDATE_FAILED").Wrap(err)
	}

	var req MoveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return MoveRequest{}, &world.ValidationError{Field: "body", Message: err.Error()}
	}
	return req, nil
}

func schemaViolation(verr *jschema.ValidationError) *world.ValidationError {
	out := verr.BasicOutput()
	var (
		field    string
		messages []string
	)
	for _, unit := range out.Errors {
		if unit.Error == nil || len(unit.Errors) > 0 {
			continue
		}
		loc := strings.TrimPrefix(unit.InstanceLocation, "/")
		if field == "" {
			field = loc
		}
		messages = append(messages, fmt.Sprintf("%s: %s", displayLocation(loc), unit.Error))
		if len(messages) == maxSchemaErrors {
			break
		}
	}
	if field == "" {
		field = "body"
	}
	if len(messages) == 0 {
		messages = append(messages, "does not match the move request schema")
	}
	return &world.ValidationError{Field: strings.ReplaceAll(field, "/", "."), Message: strings.Join(messages, "; ")}
}

func displayLocation(loc string) string {
	if loc == "" {
		return "body"
	}
	return strings.ReplaceAll(loc, "/", ".")
}
