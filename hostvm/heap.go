package hostvm

import (
	"fmt"

	"github.com/wippyai/hostref"
	"github.com/wippyai/hostref/errors"
	"github.com/wippyai/hostref/hostvm/def"
)

// Built-in class names.
const (
	ClassObject            = "java/lang/Object"
	ClassClass             = "java/lang/Class"
	ClassString            = "java/lang/String"
	ClassThrowable         = "java/lang/Throwable"
	ClassNoClassDefFound   = "java/lang/NoClassDefFoundError"
	ClassNoSuchField       = "java/lang/NoSuchFieldError"
	ClassNoSuchMethod      = "java/lang/NoSuchMethodError"
	ClassIndexOutOfBounds  = "java/lang/ArrayIndexOutOfBoundsException"
	ClassOutOfMemory       = "java/lang/OutOfMemoryError"
	classObjectArrayPrefix = "[L"
)

type class struct {
	name    string
	super   *class
	mirror  *object
	fields  map[string]*field
	methods map[string]*method // name + sig
}

func (c *class) lookupField(name string) *field {
	for k := c; k != nil; k = k.super {
		if f, ok := k.fields[name]; ok {
			return f
		}
	}
	return nil
}

func (c *class) lookupMethod(name, sig string) *method {
	for k := c; k != nil; k = k.super {
		if m, ok := k.methods[name+sig]; ok {
			return m
		}
	}
	return nil
}

func (c *class) isA(other *class) bool {
	for k := c; k != nil; k = k.super {
		if k == other {
			return true
		}
	}
	return false
}

type field struct {
	class  *class
	name   string
	sig    string
	id     hostref.FieldID
	static bool
}

type method struct {
	class  *class
	name   string
	sig    string
	id     hostref.MethodID
	static bool
}

// payload locates string bytes in the arena.
type payload struct {
	ptr  uint32
	size uint32
}

// object is a managed heap object. Unrooted objects live while at least one
// reference slot or pending failure points at them.
type object struct {
	class   *class
	mirror  *class // set on class objects
	fields  map[hostref.FieldID]any
	text    *payload
	name    string
	message string
	elems   []*object
	refs    int
	array   bool
	rooted  bool
}

// className returns the class name of the object a slot refers to.
func (o *object) className() string {
	if o == nil || o.class == nil {
		return ""
	}
	return o.class.name
}

// defineClass registers a class and its rooted class object. Caller holds
// vm.mu.
func (vm *VM) defineClass(name string, super *class) *class {
	c := &class{
		name:    name,
		super:   super,
		fields:  make(map[string]*field),
		methods: make(map[string]*method),
	}
	c.mirror = &object{class: vm.classes[ClassClass], mirror: c, rooted: true}
	vm.classes[name] = c
	return c
}

func (vm *VM) defineBuiltins() {
	obj := vm.defineClass(ClassObject, nil)
	cls := vm.defineClass(ClassClass, obj)
	obj.mirror.class = cls
	cls.mirror.class = cls

	vm.defineClass(ClassString, obj)
	throwable := vm.defineClass(ClassThrowable, obj)
	for _, name := range []string{
		ClassNoClassDefFound,
		ClassNoSuchField,
		ClassNoSuchMethod,
		ClassIndexOutOfBounds,
		ClassOutOfMemory,
	} {
		vm.defineClass(name, throwable)
	}
}

func (vm *VM) addField(c *class, name, sig string, static bool) {
	vm.nextID++
	f := &field{class: c, name: name, sig: sig, id: hostref.FieldID(vm.nextID), static: static}
	c.fields[name] = f
	vm.fields[f.id] = f
}

func (vm *VM) addMethod(c *class, name, sig string, static bool) {
	vm.nextID++
	m := &method{class: c, name: name, sig: sig, id: hostref.MethodID(vm.nextID), static: static}
	c.methods[name+sig] = m
	vm.methods[m.id] = m
}

// arrayClass returns the class of object arrays with elements of elem,
// defining it on first use.
func (vm *VM) arrayClass(elem string) *class {
	if elem == "" {
		elem = ClassObject
	}
	name := classObjectArrayPrefix + elem + ";"
	if c, ok := vm.classes[name]; ok {
		return c
	}
	return vm.defineClass(name, vm.classes[ClassObject])
}

// newString copies text into the arena. Caller holds vm.mu.
func (vm *VM) newString(text string) (*object, error) {
	ptr, err := vm.arena.Alloc(uint32(len(text)))
	if err != nil {
		return nil, err
	}
	if err := vm.arena.Write(ptr, []byte(text)); err != nil {
		vm.arena.Free(ptr)
		return nil, err
	}
	return &object{
		class: vm.classes[ClassString],
		text:  &payload{ptr: ptr, size: uint32(len(text))},
	}, nil
}

// stringValue reads the contents of a string object.
func (vm *VM) stringValue(o *object) string {
	if o.text == nil {
		return ""
	}
	data, err := vm.arena.Read(o.text.ptr, o.text.size)
	if err != nil {
		return ""
	}
	return string(data)
}

// unref drops one reference to o and frees it once unreachable.
func (vm *VM) unref(o *object) {
	o.refs--
	if o.refs > 0 || o.rooted {
		return
	}
	if o.text != nil {
		vm.arena.Free(o.text.ptr)
		o.text = nil
	}
	vm.freed++
}

// load seeds the heap from a definition. Caller holds vm.mu.
func (vm *VM) load(d *def.Definition) error {
	if err := d.Validate(); err != nil {
		return err
	}

	for _, c := range d.Classes {
		if _, ok := vm.classes[c.Name]; ok {
			return errors.InvalidData(errors.PhaseConfig, c.Name, "redefines a built-in class")
		}
		vm.defineClass(c.Name, nil)
	}
	for _, c := range d.Classes {
		cls := vm.classes[c.Name]
		cls.super = vm.classes[ClassObject]
		if c.Super != "" {
			cls.super = vm.classes[c.Super]
		}
		for _, f := range c.Fields {
			vm.addField(cls, f.Name, f.Sig, f.Static)
		}
		for _, m := range c.Methods {
			vm.addMethod(cls, m.Name, m.Sig, m.Static)
		}
	}

	for _, o := range d.Objects {
		var obj *object
		switch o.ObjectKind() {
		case def.KindString:
			s, err := vm.newString(o.Text)
			if err != nil {
				return errors.Wrap(errors.PhaseConfig, errors.KindAllocation, err,
					fmt.Sprintf("seed string %s", o.Name))
			}
			obj = s
		case def.KindArray:
			obj = &object{class: vm.arrayClass(o.Class), array: true, elems: make([]*object, len(o.Elements))}
		default:
			obj = &object{class: vm.classes[o.Class], fields: make(map[hostref.FieldID]any, len(o.Fields))}
		}
		obj.name = o.Name
		obj.rooted = true
		vm.roots[o.Name] = obj
	}

	for _, o := range d.Objects {
		obj := vm.roots[o.Name]
		for i, name := range o.Elements {
			obj.elems[i] = vm.roots[name]
		}
		for name, raw := range o.Fields {
			f := obj.class.lookupField(name)
			v, err := def.Coerce(f.sig, raw)
			if err != nil {
				return errors.InvalidData(errors.PhaseConfig, o.Name, err.Error())
			}
			if target, isRef := v.(string); isRef {
				if target == "" {
					continue
				}
				v = vm.roots[target]
			}
			obj.fields[f.id] = v
		}
	}
	return nil
}
