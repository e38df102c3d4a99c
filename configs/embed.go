// Package configs embeds the annotated configuration template written by
// 'wikidex config init'.
package configs

import _ "embed"

// ExampleConfig is a fully commented config file holding the defaults.
//
//go:embed wikidex.example.yaml
var ExampleConfig string
