package output

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/temirov/lx/internal/types"
)

const (
	indentPrefix = ""
	indentSpacer = "  "
	yamlIndent   = 2

	encodeJSONErrorFormat = "encode json: %w"
	encodeYAMLErrorFormat = "encode yaml: %w"
)

// WriteJSON writes the annotated tree and its warnings as indented JSON.
func WriteJSON(writer io.Writer, result types.BuildResult) error {
	encoded, marshalError := json.MarshalIndent(result, indentPrefix, indentSpacer)
	if marshalError != nil {
		return fmt.Errorf(encodeJSONErrorFormat, marshalError)
	}
	encoded = append(encoded, '\n')
	if _, writeError := writer.Write(encoded); writeError != nil {
		return fmt.Errorf(encodeJSONErrorFormat, writeError)
	}
	return nil
}

// WriteYAML writes the annotated tree and its warnings as a YAML document.
func WriteYAML(writer io.Writer, result types.BuildResult) error {
	encoder := yaml.NewEncoder(writer)
	encoder.SetIndent(yamlIndent)
	if encodeError := encoder.Encode(result); encodeError != nil {
		return fmt.Errorf(encodeYAMLErrorFormat, encodeError)
	}
	if closeError := encoder.Close(); closeError != nil {
		return fmt.Errorf(encodeYAMLErrorFormat, closeError)
	}
	return nil
}
