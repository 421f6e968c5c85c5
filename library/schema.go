package library

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

// JSONSchema describes Date as a "YYYY-MM-DD" string.
func (Date) JSONSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "string",
		Format:      "date",
		Pattern:     `^\d{4}-\d{2}-\d{2}$`,
		Description: "Calendar date (YYYY-MM-DD)",
	}
}

// Schema returns the JSON Schema of the data file.
func Schema() *jsonschema.Schema {
	s := jsonschema.Reflect(&Data{})
	s.Title = "Library data file"
	s.Description = "Books, library cards, outstanding loans and the identifier counters."
	return s
}

// SchemaJSON returns Schema as indented JSON.
func SchemaJSON() ([]byte, error) {
	out, err := json.MarshalIndent(Schema(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	return out, nil
}
