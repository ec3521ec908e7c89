package def

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/wippyai/hostref/errors"
)

// Validate checks the definition for internal consistency and returns every
// problem found, combined.
func (d *Definition) Validate() error {
	var err error

	classes := make(map[string]bool, len(d.Classes))
	for i := range d.Classes {
		c := &d.Classes[i]
		if c.Name == "" {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig,
				fmt.Sprintf("classes[%d]", i), "class name is empty"))
			continue
		}
		if classes[c.Name] {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, c.Name, "duplicate class"))
		}
		classes[c.Name] = true
	}

	for i := range d.Classes {
		err = multierr.Append(err, d.validateClass(&d.Classes[i], classes))
	}
	err = multierr.Append(err, d.validateHierarchy())

	objects := make(map[string]bool, len(d.Objects))
	for i := range d.Objects {
		o := &d.Objects[i]
		if o.Name == "" {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig,
				fmt.Sprintf("objects[%d]", i), "object name is empty"))
			continue
		}
		if objects[o.Name] {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, o.Name, "duplicate object"))
		}
		objects[o.Name] = true
	}

	for i := range d.Objects {
		err = multierr.Append(err, d.validateObject(&d.Objects[i], classes, objects))
	}
	return err
}

func (d *Definition) validateClass(c *Class, classes map[string]bool) error {
	var err error
	if c.Super != "" && !classes[c.Super] {
		err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, c.Name,
			fmt.Sprintf("unknown super class %q", c.Super)))
	}

	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		name := c.Name + "." + f.Name
		if seen[f.Name] {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, name, "duplicate field"))
		}
		seen[f.Name] = true
		if !ValidFieldSig(f.Sig) {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, name,
				fmt.Sprintf("invalid field signature %q", f.Sig)))
		}
	}

	type methodKey struct{ name, sig string }
	methods := make(map[methodKey]bool, len(c.Methods))
	for _, m := range c.Methods {
		name := c.Name + "." + m.Name
		key := methodKey{m.Name, m.Sig}
		if methods[key] {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, name, "duplicate method"))
		}
		methods[key] = true
		if !ValidMethodSig(m.Sig) {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, name,
				fmt.Sprintf("invalid method signature %q", m.Sig)))
		}
	}
	return err
}

func (d *Definition) validateObject(o *Object, classes, objects map[string]bool) error {
	var err error
	ref := func(what, target string) {
		if target != "" && !objects[target] {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, o.Name,
				fmt.Sprintf("%s refers to unknown object %q", what, target)))
		}
	}

	switch o.ObjectKind() {
	case KindObject:
		if !classes[o.Class] {
			return errors.InvalidData(errors.PhaseConfig, o.Name, fmt.Sprintf("unknown class %q", o.Class))
		}
		for name, v := range o.Fields {
			f, ok := d.LookupField(o.Class, name)
			if !ok || f.Static {
				err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, o.Name,
					fmt.Sprintf("class %s has no instance field %q", o.Class, name)))
				continue
			}
			coerced, cerr := Coerce(f.Sig, v)
			if cerr != nil {
				err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, o.Name,
					fmt.Sprintf("field %s: %v", name, cerr)))
				continue
			}
			if target, isRef := coerced.(string); isRef {
				ref("field "+name, target)
			}
		}
		if len(o.Elements) > 0 || o.Text != "" {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, o.Name,
				"elements and text need kind array or string"))
		}

	case KindArray:
		if o.Class != "" && !classes[o.Class] {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, o.Name,
				fmt.Sprintf("unknown element class %q", o.Class)))
		}
		for i, e := range o.Elements {
			ref(fmt.Sprintf("element %d", i), e)
		}
		if len(o.Fields) > 0 {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, o.Name, "arrays have no fields"))
		}

	case KindString:
		if len(o.Fields) > 0 || len(o.Elements) > 0 {
			err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, o.Name,
				"strings have neither fields nor elements"))
		}

	default:
		err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, o.Name,
			fmt.Sprintf("unknown kind %q", o.Kind)))
	}
	return err
}

// validateHierarchy rejects super chains that loop back on themselves.
func (d *Definition) validateHierarchy() error {
	var err error
	for i := range d.Classes {
		start := d.Classes[i].Name
		seen := map[string]bool{start: true}
		for c := d.Class(d.Classes[i].Super); c != nil; c = d.Class(c.Super) {
			if seen[c.Name] {
				if c.Name == start {
					err = multierr.Append(err, errors.InvalidData(errors.PhaseConfig, start, "cyclic super chain"))
				}
				break
			}
			seen[c.Name] = true
		}
	}
	return err
}
