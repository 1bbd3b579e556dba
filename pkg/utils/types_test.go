package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

/************************************************************************************************
** Increment pattern decoding: a slot is either a number or a {relativeTo, add} object
************************************************************************************************/
func TestIncrementUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []TIncrement
		wantErr bool
	}{
		{
			name:  "direct increments",
			input: `[2, 1, 1]`,
			want:  []TIncrement{Direct(2), Direct(1), Direct(1)},
		},
		{
			name:  "mixed direct and relative",
			input: `[10, {"relativeTo": 0, "add": 5}]`,
			want:  []TIncrement{Direct(10), RelativeTo(0, 5)},
		},
		{
			name:  "explicit zero reference",
			input: `[{"relativeTo": 0, "add": 0}]`,
			want:  []TIncrement{RelativeTo(0, 0)},
		},
		{
			name:    "missing add",
			input:   `[{"relativeTo": 0}]`,
			wantErr: true,
		},
		{
			name:    "string entry",
			input:   `["5"]`,
			wantErr: true,
		},
		{
			name:    "fractional minutes",
			input:   `[2.5]`,
			wantErr: true,
		},
		{
			name:    "null entry",
			input:   `[null]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []TIncrement
			err := json.Unmarshal([]byte(tt.input), &got)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIncrementUnmarshalYAML(t *testing.T) {
	input := `
startTime: "09:00"
photoCount: 4
incrementPattern:
  - 10
  - relativeTo: 0
    add: 5
  - {relativeTo: 2, add: 1}
`
	var rng TTimeRange
	require.NoError(t, yaml.Unmarshal([]byte(input), &rng))

	assert.Equal(t, "09:00", rng.StartTime)
	assert.Equal(t, 4, rng.PhotoCount)
	assert.Equal(t, []TIncrement{Direct(10), RelativeTo(0, 5), RelativeTo(2, 1)}, rng.IncrementPattern)

	var bad TTimeRange
	assert.Error(t, yaml.Unmarshal([]byte("incrementPattern: [[1, 2]]"), &bad))
	assert.Error(t, yaml.Unmarshal([]byte("incrementPattern: [{add: 1}]"), &bad))
}

func TestIncrementMarshal(t *testing.T) {
	pattern := []TIncrement{Direct(3), RelativeTo(1, 4)}

	data, err := json.Marshal(pattern)
	require.NoError(t, err)
	assert.JSONEq(t, `[3, {"relativeTo": 1, "add": 4}]`, string(data))

	out, err := yaml.Marshal(pattern)
	require.NoError(t, err)
	var back []TIncrement
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, pattern, back)

	assert.Equal(t, "3", pattern[0].String())
	assert.Equal(t, "{relativeTo:1 add:4}", pattern[1].String())
}
