package ref

import (
	"fmt"

	"github.com/wippyai/hostref"
)

// fakeVM and fakeIface are an instrumented host runtime that records every
// call and every misuse. They are not thread-aware.
type fakeVM struct {
	iface      *fakeIface
	calls      []string
	attached   bool
	failAttach bool
	badVersion bool
	detachErr  bool
}

func newFakeVM() *fakeVM {
	return &fakeVM{iface: newFakeIface()}
}

func (v *fakeVM) GetEnv(hostref.Version) (hostref.Interface, hostref.Status) {
	v.calls = append(v.calls, "GetEnv")
	if v.badVersion {
		return nil, hostref.ErrVersion
	}
	if !v.attached {
		return nil, hostref.ErrDetached
	}
	return v.iface, hostref.OK
}

func (v *fakeVM) AttachCurrentThread() (hostref.Interface, hostref.Status) {
	v.calls = append(v.calls, "AttachCurrentThread")
	if v.failAttach {
		return nil, hostref.Err
	}
	v.attached = true
	return v.iface, hostref.OK
}

func (v *fakeVM) DetachCurrentThread() hostref.Status {
	v.calls = append(v.calls, "DetachCurrentThread")
	if v.detachErr {
		return hostref.Err
	}
	v.attached = false
	return hostref.OK
}

func (v *fakeVM) count(op string) int {
	n := 0
	for _, c := range v.calls {
		if c == op {
			n++
		}
	}
	return n
}

type fakeField struct {
	sig    string
	id     hostref.FieldID
	static bool
}

type fakeMethod struct {
	sig    string
	id     hostref.MethodID
	static bool
}

type fakeClass struct {
	name    string
	fields  map[string]fakeField
	methods map[string]fakeMethod
}

type fakeObj struct {
	class  *fakeClass
	fields map[hostref.FieldID]any
	elems  []*fakeObj
	str    *string
}

type fakeIface struct {
	classes     map[string]*fakeClass
	live        map[uintptr]string // handle -> "local" | "global"
	targets     map[uintptr]any
	pinned      map[uintptr]int
	pending     *fakeObj
	calls       []string
	misuse      []string
	next        uintptr
	nextID      uintptr
	copyStrings bool
	outOfMemory bool
}

func newFakeIface() *fakeIface {
	return &fakeIface{
		classes: make(map[string]*fakeClass),
		live:    make(map[uintptr]string),
		targets: make(map[uintptr]any),
		pinned:  make(map[uintptr]int),
		next:    0x100,
	}
}

func (f *fakeIface) defineClass(name string) *fakeClass {
	c := &fakeClass{
		name:    name,
		fields:  make(map[string]fakeField),
		methods: make(map[string]fakeMethod),
	}
	f.classes[name] = c
	return c
}

func (f *fakeIface) addField(c *fakeClass, name, sig string, static bool) hostref.FieldID {
	f.nextID++
	id := hostref.FieldID(f.nextID)
	c.fields[name] = fakeField{sig: sig, id: id, static: static}
	return id
}

func (f *fakeIface) addMethod(c *fakeClass, name, sig string, static bool) hostref.MethodID {
	f.nextID++
	id := hostref.MethodID(f.nextID)
	c.methods[name] = fakeMethod{sig: sig, id: id, static: static}
	return id
}

// newLocal hands out a local reference to target without recording a call,
// standing in for a reference the runtime passed to native code.
func (f *fakeIface) newLocal(target any) uintptr {
	return f.newRef("local", target)
}

func (f *fakeIface) newRef(kind string, target any) uintptr {
	f.next += 8
	f.live[f.next] = kind
	f.targets[f.next] = target
	return f.next
}

func (f *fakeIface) deleteRef(kind string, h uintptr) {
	if h == 0 {
		f.misuse = append(f.misuse, "delete of null "+kind)
		return
	}
	if f.live[h] != kind {
		f.misuse = append(f.misuse, fmt.Sprintf("delete of stale %s %#x", kind, h))
		return
	}
	if f.pinned[h] > 0 {
		f.misuse = append(f.misuse, fmt.Sprintf("delete of %#x with pinned chars", h))
	}
	delete(f.live, h)
	delete(f.targets, h)
}

func (f *fakeIface) record(op string) {
	f.calls = append(f.calls, op)
}

func (f *fakeIface) count(op string) int {
	n := 0
	for _, c := range f.calls {
		if c == op {
			n++
		}
	}
	return n
}

func (f *fakeIface) liveCount(kind string) int {
	n := 0
	for _, k := range f.live {
		if k == kind {
			n++
		}
	}
	return n
}

func (f *fakeIface) object(h hostref.Object) *fakeObj {
	o, _ := f.targets[uintptr(h)].(*fakeObj)
	return o
}

func (f *fakeIface) class(h hostref.Class) *fakeClass {
	c, _ := f.targets[uintptr(h)].(*fakeClass)
	return c
}

func (f *fakeIface) fail(what string) {
	msg := what
	f.pending = &fakeObj{str: &msg}
}

func (f *fakeIface) FindClass(name string) hostref.Class {
	f.record("FindClass")
	c, ok := f.classes[name]
	if !ok {
		f.fail("NoClassDefFoundError: " + name)
		return 0
	}
	return hostref.Class(f.newRef("local", c))
}

func (f *fakeIface) GetObjectClass(obj hostref.Object) hostref.Class {
	f.record("GetObjectClass")
	o := f.object(obj)
	if o == nil || o.class == nil {
		return 0
	}
	return hostref.Class(f.newRef("local", o.class))
}

func (f *fakeIface) lookupField(class hostref.Class, name, sig string, static bool) hostref.FieldID {
	c := f.class(class)
	if c == nil {
		f.misuse = append(f.misuse, "field lookup on null class")
		return 0
	}
	fd, ok := c.fields[name]
	if !ok || fd.sig != sig || fd.static != static {
		f.fail("NoSuchFieldError: " + name)
		return 0
	}
	return fd.id
}

func (f *fakeIface) lookupMethod(class hostref.Class, name, sig string, static bool) hostref.MethodID {
	c := f.class(class)
	if c == nil {
		f.misuse = append(f.misuse, "method lookup on null class")
		return 0
	}
	m, ok := c.methods[name]
	if !ok || m.sig != sig || m.static != static {
		f.fail("NoSuchMethodError: " + name)
		return 0
	}
	return m.id
}

func (f *fakeIface) GetFieldID(class hostref.Class, name, sig string) hostref.FieldID {
	f.record("GetFieldID")
	return f.lookupField(class, name, sig, false)
}

func (f *fakeIface) GetStaticFieldID(class hostref.Class, name, sig string) hostref.FieldID {
	f.record("GetStaticFieldID")
	return f.lookupField(class, name, sig, true)
}

func (f *fakeIface) GetMethodID(class hostref.Class, name, sig string) hostref.MethodID {
	f.record("GetMethodID")
	return f.lookupMethod(class, name, sig, false)
}

func (f *fakeIface) GetStaticMethodID(class hostref.Class, name, sig string) hostref.MethodID {
	f.record("GetStaticMethodID")
	return f.lookupMethod(class, name, sig, true)
}

func (f *fakeIface) NewGlobalRef(obj hostref.Object) hostref.Object {
	f.record("NewGlobalRef")
	if obj == 0 {
		return 0
	}
	return hostref.Object(f.newRef("global", f.targets[uintptr(obj)]))
}

func (f *fakeIface) DeleteGlobalRef(obj hostref.Object) {
	f.record("DeleteGlobalRef")
	f.deleteRef("global", uintptr(obj))
}

func (f *fakeIface) DeleteLocalRef(obj hostref.Object) {
	f.record("DeleteLocalRef")
	f.deleteRef("local", uintptr(obj))
}

func (f *fakeIface) ExceptionOccurred() hostref.Throwable {
	f.record("ExceptionOccurred")
	if f.pending == nil {
		return 0
	}
	return hostref.Throwable(f.newRef("local", f.pending))
}

func (f *fakeIface) ExceptionDescribe() {
	f.record("ExceptionDescribe")
}

func (f *fakeIface) ExceptionClear() {
	f.record("ExceptionClear")
	f.pending = nil
}

func (f *fakeIface) GetArrayLength(array hostref.Object) int {
	f.record("GetArrayLength")
	return len(f.object(array).elems)
}

func (f *fakeIface) GetObjectArrayElement(array hostref.Object, index int) hostref.Object {
	f.record("GetObjectArrayElement")
	elems := f.object(array).elems
	if index < 0 || index >= len(elems) {
		f.fail(fmt.Sprintf("ArrayIndexOutOfBoundsException: %d", index))
		return 0
	}
	if elems[index] == nil {
		return 0
	}
	return hostref.Object(f.newRef("local", elems[index]))
}

func (f *fakeIface) field(obj hostref.Object, field hostref.FieldID) any {
	return f.object(obj).fields[field]
}

func (f *fakeIface) GetIntField(obj hostref.Object, field hostref.FieldID) int32 {
	f.record("GetIntField")
	v, _ := f.field(obj, field).(int32)
	return v
}

func (f *fakeIface) GetLongField(obj hostref.Object, field hostref.FieldID) int64 {
	f.record("GetLongField")
	v, _ := f.field(obj, field).(int64)
	return v
}

func (f *fakeIface) GetBooleanField(obj hostref.Object, field hostref.FieldID) bool {
	f.record("GetBooleanField")
	v, _ := f.field(obj, field).(bool)
	return v
}

func (f *fakeIface) GetFloatField(obj hostref.Object, field hostref.FieldID) float32 {
	f.record("GetFloatField")
	v, _ := f.field(obj, field).(float32)
	return v
}

func (f *fakeIface) GetDoubleField(obj hostref.Object, field hostref.FieldID) float64 {
	f.record("GetDoubleField")
	v, _ := f.field(obj, field).(float64)
	return v
}

func (f *fakeIface) GetObjectField(obj hostref.Object, field hostref.FieldID) hostref.Object {
	f.record("GetObjectField")
	target, _ := f.field(obj, field).(*fakeObj)
	if target == nil {
		return 0
	}
	return hostref.Object(f.newRef("local", target))
}

func (f *fakeIface) NewStringUTF(text string) hostref.String {
	f.record("NewStringUTF")
	if f.outOfMemory {
		f.fail("OutOfMemoryError")
		return 0
	}
	return hostref.String(f.newRef("local", &fakeObj{str: &text}))
}

func (f *fakeIface) GetStringUTFChars(str hostref.String) ([]byte, bool) {
	f.record("GetStringUTFChars")
	o := f.object(hostref.Object(str))
	f.pinned[uintptr(str)]++
	return []byte(*o.str), f.copyStrings
}

func (f *fakeIface) ReleaseStringUTFChars(str hostref.String, _ []byte) {
	f.record("ReleaseStringUTFChars")
	if f.pinned[uintptr(str)] == 0 {
		f.misuse = append(f.misuse, "release of unpinned chars")
		return
	}
	f.pinned[uintptr(str)]--
}

func (f *fakeIface) GetStringUTFLength(str hostref.String) int {
	f.record("GetStringUTFLength")
	return len(*f.object(hostref.Object(str)).str)
}

var (
	_ hostref.VM        = (*fakeVM)(nil)
	_ hostref.Interface = (*fakeIface)(nil)
)
