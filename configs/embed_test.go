package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestExampleConfig_IsValidYAML(t *testing.T) {
	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(ExampleConfig), &doc))

	for _, section := range []string{"build", "index", "logging"} {
		assert.Contains(t, doc, section)
	}
}
