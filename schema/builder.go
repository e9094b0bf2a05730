package schema

// Object returns an object schema. Names listed in required must be present.
func Object(properties map[string]*Property, required ...string) map[string]any {
	props := make(map[string]any, len(properties))
	for name, p := range properties {
		props[name] = p.build()
	}
	out := map[string]any{
		"type":       "object",
		"properties": props,
	}
	if len(required) > 0 {
		out["required"] = required
	}
	return out
}

// Property is one parameter in an object schema. Constraint methods return the
// receiver so they can be chained.
type Property struct {
	typ         string
	description string
	enum        []any
	format      string
	minimum     *float64
	maximum     *float64
	minLength   *int
	maxLength   *int
	pattern     string
	items       map[string]any
	properties  map[string]any
	required    []string
	def         any
}

func String(description string) *Property  { return &Property{typ: "string", description: description} }
func Integer(description string) *Property { return &Property{typ: "integer", description: description} }
func Number(description string) *Property  { return &Property{typ: "number", description: description} }
func Boolean(description string) *Property { return &Property{typ: "boolean", description: description} }

// Array is a list whose elements match items, e.g. map[string]any{"type": "string"}.
func Array(description string, items map[string]any) *Property {
	return &Property{typ: "array", description: description, items: items}
}

// Nested is an object-valued property.
func Nested(description string, properties map[string]*Property, required ...string) *Property {
	obj := Object(properties)
	return &Property{
		typ:         "object",
		description: description,
		properties:  obj["properties"].(map[string]any),
		required:    required,
	}
}

func (p *Property) Enum(values ...any) *Property { p.enum = values; return p }

// Format sets a string format such as "email", "date-time" or "uri".
func (p *Property) Format(format string) *Property { p.format = format; return p }

func (p *Property) Min(v float64) *Property     { p.minimum = &v; return p }
func (p *Property) Max(v float64) *Property     { p.maximum = &v; return p }
func (p *Property) MinLength(n int) *Property   { p.minLength = &n; return p }
func (p *Property) MaxLength(n int) *Property   { p.maxLength = &n; return p }
func (p *Property) Pattern(re string) *Property { p.pattern = re; return p }
func (p *Property) Default(v any) *Property     { p.def = v; return p }

func (p *Property) build() map[string]any {
	m := map[string]any{}
	if p.typ != "" {
		m["type"] = p.typ
	}
	if p.description != "" {
		m["description"] = p.description
	}
	if len(p.enum) > 0 {
		m["enum"] = p.enum
	}
	if p.format != "" {
		m["format"] = p.format
	}
	if p.minimum != nil {
		m["minimum"] = *p.minimum
	}
	if p.maximum != nil {
		m["maximum"] = *p.maximum
	}
	if p.minLength != nil {
		m["minLength"] = *p.minLength
	}
	if p.maxLength != nil {
		m["maxLength"] = *p.maxLength
	}
	if p.pattern != "" {
		m["pattern"] = p.pattern
	}
	if p.items != nil {
		m["items"] = p.items
	}
	if p.properties != nil {
		m["properties"] = p.properties
	}
	if len(p.required) > 0 {
		m["required"] = p.required
	}
	if p.def != nil {
		m["default"] = p.def
	}
	return m
}
