// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Axosm Contributors

package api

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axosm/axosm/internal/world"
)

func TestGenerateMoveRequestSchema(t *testing.T) {
	raw, err := GenerateMoveRequestSchema()
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(raw, &schema))
	assert.Equal(t, MoveRequestSchemaID, schema["$id"])
	assert.Equal(t, "Axosm Move Request", schema["title"])

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "player_id")
	assert.Contains(t, props, "unit_id")
	assert.Contains(t, props, "destination")
	assert.ElementsMatch(t, []any{"player_id", "unit_id", "destination"}, schema["required"])
}

func TestDecodeMoveRequest(t *testing.T) {
	body := `{"player_id":5,"unit_id":"01HZX3V4ZKQ7B2M8N6P0R9S1TA","destination":{"location_type":"Orbit","planet_id":4242}}`

	req, err := decodeMoveRequest([]byte(body))
	require.NoError(t, err)
	assert.Equal(t, int64(5), req.PlayerID)
	assert.Equal(t, "01HZX3V4ZKQ7B2M8N6P0R9S1TA", req.UnitID)
	assert.Equal(t, world.JSONOrbit, req.Destination.LocationType)
	require.NotNil(t, req.Destination.PlanetID)
	assert.Equal(t, int64(4242), *req.Destination.PlanetID)
}

func TestDecodeMoveRequest_SchemaViolations(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{"not json", `player_id=5`, "body"},
		{"zero player", `{"player_id":0,"unit_id":"01HZX3V4ZKQ7B2M8N6P0R9S1TA","destination":{"location_type":"Space","system_id":1}}`, "player_id"},
		{"face out of range", `{"player_id":1,"unit_id":"01HZX3V4ZKQ7B2M8N6P0R9S1TA","destination":{"location_type":"PlanetSurface","planet_id":1,"face":30,"u":0,"v":0}}`, "destination.face"},
		{"unknown field", `{"player_id":1,"unit_id":"01HZX3V4ZKQ7B2M8N6P0R9S1TA","destination":{"location_type":"Space","system_id":1},"speed":9}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeMoveRequest([]byte(tt.body))
			require.Error(t, err)
			var verr *world.ValidationError
			require.True(t, errors.As(err, &verr), "got %T: %v", err, err)
			if tt.wantField != "" {
				assert.Equal(t, tt.wantField, verr.Field)
			}
			assert.NotEmpty(t, verr.Message)
		})
	}
}
