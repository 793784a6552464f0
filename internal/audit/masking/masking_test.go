package masking_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ledgerwell/praxis/internal/audit/masking"
)

func TestMaskSecret(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "empty", input: "", want: ""},
		{name: "whitespace", input: "   ", want: ""},
		{name: "short", input: "abc", want: "****"},
		{name: "keeps_suffix", input: "chk_live_abcdef9876", want: "****9876"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, masking.MaskSecret(tc.input))
		})
	}
}

func TestRedactMetadata(t *testing.T) {
	assert.Nil(t, masking.RedactMetadata(nil))

	out := masking.RedactMetadata(map[string]any{
		"framework":       "MICRO_FRS105",
		"api_key":         "chk_live_abcdef9876",
		"registry_secret": "topsecret99",
		"count":           int64(3),
		"":                "dropped",
		"nested": map[string]any{
			"password": "hunter2x",
			"note":     "kept",
		},
	})

	assert.Equal(t, "MICRO_FRS105", out["framework"])
	assert.Equal(t, "****9876", out["api_key"])
	assert.Equal(t, "****et99", out["registry_secret"])
	assert.Equal(t, int64(3), out["count"])
	assert.NotContains(t, out, "")

	nested := out["nested"].(map[string]any)
	assert.Equal(t, "****er2x", nested["password"])
	assert.Equal(t, "kept", nested["note"])
}
