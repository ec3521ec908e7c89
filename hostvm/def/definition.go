package def

// Kind selects how a seeded object is built.
type Kind string

const (
	KindObject Kind = "object"
	KindArray  Kind = "array"
	KindString Kind = "string"
)

// Definition is the full set of classes and seeded objects.
type Definition struct {
	Classes []Class  `yaml:"classes" toml:"classes"`
	Objects []Object `yaml:"objects" toml:"objects"`

	// Source is the file the definition was loaded from (set at load time).
	Source string `yaml:"-" toml:"-"`
}

// Class declares a class and its members.
type Class struct {
	Name    string   `yaml:"name" toml:"name"`
	Super   string   `yaml:"super,omitempty" toml:"super"`
	Fields  []Field  `yaml:"fields,omitempty" toml:"fields"`
	Methods []Method `yaml:"methods,omitempty" toml:"methods"`
}

// Field declares a field by name and type signature.
type Field struct {
	Name   string `yaml:"name" toml:"name"`
	Sig    string `yaml:"sig" toml:"sig"`
	Static bool   `yaml:"static,omitempty" toml:"static"`
}

// Method declares a method by name and type signature.
type Method struct {
	Name   string `yaml:"name" toml:"name"`
	Sig    string `yaml:"sig" toml:"sig"`
	Static bool   `yaml:"static,omitempty" toml:"static"`
}

// Object is a seeded object. Seeded objects are rooted: they live as long as
// the runtime does and can be fetched by name.
type Object struct {
	Name     string         `yaml:"name" toml:"name"`
	Kind     Kind           `yaml:"kind,omitempty" toml:"kind"`
	Class    string         `yaml:"class,omitempty" toml:"class"`
	Fields   map[string]any `yaml:"fields,omitempty" toml:"fields"`
	Elements []string       `yaml:"elements,omitempty" toml:"elements"`
	Text     string         `yaml:"text,omitempty" toml:"text"`
}

// ObjectKind returns the object's kind, defaulting to KindObject.
func (o *Object) ObjectKind() Kind {
	if o.Kind == "" {
		return KindObject
	}
	return o.Kind
}

// Class returns the class declared under name, or nil.
func (d *Definition) Class(name string) *Class {
	if name == "" {
		return nil
	}
	for i := range d.Classes {
		if d.Classes[i].Name == name {
			return &d.Classes[i]
		}
	}
	return nil
}

// Object returns the seeded object declared under name, or nil.
func (d *Definition) Object(name string) *Object {
	if name == "" {
		return nil
	}
	for i := range d.Objects {
		if d.Objects[i].Name == name {
			return &d.Objects[i]
		}
	}
	return nil
}

// LookupField finds an instance or static field on class or its supers.
func (d *Definition) LookupField(class, name string) (*Field, bool) {
	seen := make(map[string]bool)
	for c := d.Class(class); c != nil && !seen[c.Name]; c = d.Class(c.Super) {
		seen[c.Name] = true
		for i := range c.Fields {
			if c.Fields[i].Name == name {
				return &c.Fields[i], true
			}
		}
	}
	return nil, false
}
