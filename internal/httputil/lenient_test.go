package httputil

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLenientIntUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
		wantErr bool
	}{
		{name: "number", payload: `{"n": 8}`, want: 8},
		{name: "string", payload: `{"n": "8"}`, want: 8},
		{name: "padded string", payload: `{"n": " 16 "}`, want: 16},
		{name: "negative", payload: `{"n": -1}`, want: -1},
		{name: "null", payload: `{"n": null}`, want: 0},
		{name: "absent", payload: `{}`, want: 0},
		{name: "word", payload: `{"n": "eight"}`, wantErr: true},
		{name: "float", payload: `{"n": 1.5}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body struct {
				N LenientInt `json:"n"`
			}
			err := json.Unmarshal([]byte(tt.payload), &body)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, body.N.Int())
		})
	}
}
