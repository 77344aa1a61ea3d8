package config

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Schema returns the JSON schema of the config file. Every field is optional since files are read on
// top of the defaults.
func Schema() ([]byte, error) {
	r := &jsonschema.Reflector{DoNotReference: true, RequiredFromJSONSchemaTags: true}
	return json.MarshalIndent(r.Reflect(&Config{}), "", "  ")
}
