package llm

// Schema types.
const (
	TypeObject  = "object"
	TypeArray   = "array"
	TypeString  = "string"
	TypeNumber  = "number"
	TypeInteger = "integer"
	TypeBoolean = "boolean"
)

// Schema is the subset of JSON Schema used to constrain structured output.
// An empty Type accepts any value.
type Schema struct {
	Type        string             `json:"type,omitempty"`
	Description string             `json:"description,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Required    []string           `json:"required,omitempty"`
	MinItems    *int64             `json:"minItems,omitempty"`
	Minimum     *float64           `json:"minimum,omitempty"`
}

// Object builds an object schema whose listed properties are all required.
func Object(props map[string]*Schema, required ...string) *Schema {
	return &Schema{Type: TypeObject, Properties: props, Required: required}
}

// ArrayOf builds an array schema.
func ArrayOf(items *Schema, minItems int64) *Schema {
	s := &Schema{Type: TypeArray, Items: items}
	if minItems > 0 {
		s.MinItems = &minItems
	}
	return s
}

// String builds a string schema, optionally restricted to enum values.
func String(description string, enum ...string) *Schema {
	return &Schema{Type: TypeString, Description: description, Enum: enum}
}

// NonNegativeInteger builds an integer schema with minimum 0.
func NonNegativeInteger(description string) *Schema {
	zero := 0.0
	return &Schema{Type: TypeInteger, Description: description, Minimum: &zero}
}

// FreeForm builds a schema that accepts any object.
func FreeForm(description string) *Schema {
	return &Schema{Type: TypeObject, Description: description}
}

// Any builds a schema that accepts any value.
func Any(description string) *Schema {
	return &Schema{Description: description}
}
