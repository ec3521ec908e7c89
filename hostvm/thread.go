package hostvm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/hostref"
	"github.com/wippyai/hostref/errors"
)

// Thread is the interface of one attached thread. Every call must come from
// that thread while it is still attached; other calls are recorded as
// violations and return zero values.
type Thread struct {
	vm      *VM
	pending *object
	id      int64
}

// ID returns the thread id the interface is bound to.
func (t *Thread) ID() int64 {
	return t.id
}

// enter takes the VM lock and checks the caller. It returns false with the
// lock released if the call must not proceed.
func (t *Thread) enter(op string) bool {
	vm := t.vm
	vm.mu.Lock()
	if vm.threads[t.id] != t {
		vm.violate(errors.New(errors.PhaseAttach, errors.KindDetach).
			Name(op).
			Thread(t.id).
			Detail("interface used after its thread detached").
			Build())
		vm.mu.Unlock()
		return false
	}
	if caller := threadID(); caller != t.id {
		vm.violate(errors.WrongThread(errors.PhaseAccess, op, t.id, caller))
		vm.mu.Unlock()
		return false
	}
	return true
}

func (t *Thread) leave() {
	t.vm.mu.Unlock()
}

// setPending replaces the pending failure. Caller holds vm.mu.
func (t *Thread) setPending(o *object) {
	if t.pending != nil {
		t.vm.unref(t.pending)
	}
	if o != nil {
		o.refs++
	}
	t.pending = o
}

// throw raises a failure of the named class. Caller holds vm.mu.
func (t *Thread) throw(className, message string) {
	t.setPending(&object{class: t.vm.classes[className], message: message})
}

func (t *Thread) newLocal(o *object) uintptr {
	return t.vm.newRef(RefLocal, t.id, o)
}

// Root returns a new local reference to the seeded object name, or null if
// there is none.
func (t *Thread) Root(name string) hostref.Object {
	if !t.enter("Root") {
		return 0
	}
	defer t.leave()

	o, ok := t.vm.roots[name]
	if !ok {
		return 0
	}
	return hostref.Object(t.newLocal(o))
}

func (t *Thread) FindClass(name string) hostref.Class {
	if !t.enter("FindClass") {
		return 0
	}
	defer t.leave()

	c, ok := t.vm.classes[name]
	if !ok {
		t.throw(ClassNoClassDefFound, name)
		return 0
	}
	return hostref.Class(t.newLocal(c.mirror))
}

func (t *Thread) GetObjectClass(obj hostref.Object) hostref.Class {
	if !t.enter("GetObjectClass") {
		return 0
	}
	defer t.leave()

	o := t.object(errors.PhaseLookup, "GetObjectClass", uintptr(obj))
	if o == nil {
		return 0
	}
	return hostref.Class(t.newLocal(o.class.mirror))
}

// classArg resolves a class handle. Caller holds vm.mu.
func (t *Thread) classArg(op string, cls hostref.Class) *class {
	o := t.object(errors.PhaseLookup, op, uintptr(cls))
	if o == nil {
		return nil
	}
	if o.mirror == nil {
		t.vm.violate(errors.TypeMismatch(errors.PhaseLookup, op, ClassClass, o.className()))
		return nil
	}
	return o.mirror
}

func (t *Thread) fieldID(op string, cls hostref.Class, name, sig string, static bool) hostref.FieldID {
	if !t.enter(op) {
		return 0
	}
	defer t.leave()

	c := t.classArg(op, cls)
	if c == nil {
		return 0
	}
	f := c.lookupField(name)
	if f == nil || f.sig != sig || f.static != static {
		t.throw(ClassNoSuchField, name)
		return 0
	}
	return f.id
}

func (t *Thread) methodID(op string, cls hostref.Class, name, sig string, static bool) hostref.MethodID {
	if !t.enter(op) {
		return 0
	}
	defer t.leave()

	c := t.classArg(op, cls)
	if c == nil {
		return 0
	}
	m := c.lookupMethod(name, sig)
	if m == nil || m.static != static {
		t.throw(ClassNoSuchMethod, name)
		return 0
	}
	return m.id
}

func (t *Thread) GetFieldID(cls hostref.Class, name, sig string) hostref.FieldID {
	return t.fieldID("GetFieldID", cls, name, sig, false)
}

func (t *Thread) GetStaticFieldID(cls hostref.Class, name, sig string) hostref.FieldID {
	return t.fieldID("GetStaticFieldID", cls, name, sig, true)
}

func (t *Thread) GetMethodID(cls hostref.Class, name, sig string) hostref.MethodID {
	return t.methodID("GetMethodID", cls, name, sig, false)
}

func (t *Thread) GetStaticMethodID(cls hostref.Class, name, sig string) hostref.MethodID {
	return t.methodID("GetStaticMethodID", cls, name, sig, true)
}

func (t *Thread) NewGlobalRef(obj hostref.Object) hostref.Object {
	if !t.enter("NewGlobalRef") {
		return 0
	}
	defer t.leave()

	o := t.deref(errors.PhaseRelease, "NewGlobalRef", uintptr(obj))
	if o == nil {
		return 0
	}
	return hostref.Object(t.vm.newRef(RefGlobal, 0, o))
}

func (t *Thread) DeleteGlobalRef(obj hostref.Object) {
	if !t.enter("DeleteGlobalRef") {
		return
	}
	defer t.leave()
	t.deleteRef("DeleteGlobalRef", RefGlobal, uintptr(obj))
}

func (t *Thread) DeleteLocalRef(obj hostref.Object) {
	if !t.enter("DeleteLocalRef") {
		return
	}
	defer t.leave()
	t.deleteRef("DeleteLocalRef", RefLocal, uintptr(obj))
}

func (t *Thread) ExceptionOccurred() hostref.Throwable {
	if !t.enter("ExceptionOccurred") {
		return 0
	}
	defer t.leave()

	if t.pending == nil {
		return 0
	}
	return hostref.Throwable(t.newLocal(t.pending))
}

// ExceptionDescribe logs the pending failure. It does not clear it.
func (t *Thread) ExceptionDescribe() {
	if !t.enter("ExceptionDescribe") {
		return
	}
	defer t.leave()

	if t.pending == nil {
		return
	}
	t.vm.described++
	t.vm.log.Info("pending failure",
		zap.String("class", t.pending.className()),
		zap.String("message", t.pending.message),
		zap.Int64("thread", t.id))
}

func (t *Thread) ExceptionClear() {
	if !t.enter("ExceptionClear") {
		return
	}
	defer t.leave()
	t.setPending(nil)
}

// array resolves an array argument. Caller holds vm.mu.
func (t *Thread) array(op string, arr hostref.Object) *object {
	o := t.object(errors.PhaseAccess, op, uintptr(arr))
	if o == nil {
		return nil
	}
	if !o.array {
		t.vm.violate(errors.TypeMismatch(errors.PhaseAccess, op, "array", o.className()))
		return nil
	}
	return o
}

func (t *Thread) GetArrayLength(arr hostref.Object) int {
	if !t.enter("GetArrayLength") {
		return 0
	}
	defer t.leave()

	o := t.array("GetArrayLength", arr)
	if o == nil {
		return 0
	}
	return len(o.elems)
}

func (t *Thread) GetObjectArrayElement(arr hostref.Object, index int) hostref.Object {
	const op = "GetObjectArrayElement"
	if !t.enter(op) {
		return 0
	}
	defer t.leave()

	o := t.array(op, arr)
	if o == nil {
		return 0
	}
	if index < 0 || index >= len(o.elems) {
		t.vm.violate(errors.OutOfBounds(errors.PhaseAccess, op, index, len(o.elems)))
		t.throw(ClassIndexOutOfBounds, fmt.Sprintf("index %d out of bounds for length %d", index, len(o.elems)))
		return 0
	}
	el := o.elems[index]
	if el == nil {
		return 0
	}
	return hostref.Object(t.newLocal(el))
}

// fieldValue reads an instance field declared with a signature matching
// sig. Caller holds vm.mu.
func fieldValue[T any](t *Thread, op, sig string, obj hostref.Object, id hostref.FieldID) T {
	var zero T
	o := t.object(errors.PhaseAccess, op, uintptr(obj))
	if o == nil {
		return zero
	}

	f, ok := t.vm.fields[id]
	if !ok || f.static {
		t.vm.violate(errors.InvalidInput(errors.PhaseAccess,
			fmt.Sprintf("%s: %#x is not an instance field id", op, uintptr(id))))
		return zero
	}
	if !sigMatches(f.sig, sig) {
		t.vm.violate(errors.TypeMismatch(errors.PhaseAccess, op, sig, f.sig))
		return zero
	}
	if !o.class.isA(f.class) {
		t.vm.violate(errors.TypeMismatch(errors.PhaseAccess, op, f.class.name, o.className()))
		return zero
	}

	v, _ := o.fields[id].(T)
	return v
}

func sigMatches(declared, want string) bool {
	if want == "L" {
		return strings.HasPrefix(declared, "L") || strings.HasPrefix(declared, "[")
	}
	return declared == want
}

func (t *Thread) GetIntField(obj hostref.Object, id hostref.FieldID) int32 {
	if !t.enter("GetIntField") {
		return 0
	}
	defer t.leave()
	return fieldValue[int32](t, "GetIntField", "I", obj, id)
}

func (t *Thread) GetLongField(obj hostref.Object, id hostref.FieldID) int64 {
	if !t.enter("GetLongField") {
		return 0
	}
	defer t.leave()
	return fieldValue[int64](t, "GetLongField", "J", obj, id)
}

func (t *Thread) GetBooleanField(obj hostref.Object, id hostref.FieldID) bool {
	if !t.enter("GetBooleanField") {
		return false
	}
	defer t.leave()
	return fieldValue[bool](t, "GetBooleanField", "Z", obj, id)
}

func (t *Thread) GetFloatField(obj hostref.Object, id hostref.FieldID) float32 {
	if !t.enter("GetFloatField") {
		return 0
	}
	defer t.leave()
	return fieldValue[float32](t, "GetFloatField", "F", obj, id)
}

func (t *Thread) GetDoubleField(obj hostref.Object, id hostref.FieldID) float64 {
	if !t.enter("GetDoubleField") {
		return 0
	}
	defer t.leave()
	return fieldValue[float64](t, "GetDoubleField", "D", obj, id)
}

func (t *Thread) GetObjectField(obj hostref.Object, id hostref.FieldID) hostref.Object {
	if !t.enter("GetObjectField") {
		return 0
	}
	defer t.leave()

	target := fieldValue[*object](t, "GetObjectField", "L", obj, id)
	if target == nil {
		return 0
	}
	return hostref.Object(t.newLocal(target))
}

func (t *Thread) NewStringUTF(text string) hostref.String {
	if !t.enter("NewStringUTF") {
		return 0
	}
	defer t.leave()

	o, err := t.vm.newString(text)
	if err != nil {
		t.throw(ClassOutOfMemory, err.Error())
		return 0
	}
	return hostref.String(t.newLocal(o))
}

// stringArg resolves a string argument. Caller holds vm.mu.
func (t *Thread) stringArg(op string, str hostref.String) *object {
	o := t.object(errors.PhaseDecode, op, uintptr(str))
	if o == nil {
		return nil
	}
	if o.text == nil {
		t.vm.violate(errors.TypeMismatch(errors.PhaseDecode, op, ClassString, o.className()))
		return nil
	}
	return o
}

// GetStringUTFChars pins the string's characters until
// ReleaseStringUTFChars is called with the same handle. The result is a view
// into the arena unless the VM was created WithCopyStrings.
func (t *Thread) GetStringUTFChars(str hostref.String) ([]byte, bool) {
	const op = "GetStringUTFChars"
	if !t.enter(op) {
		return nil, false
	}
	defer t.leave()

	vm := t.vm
	o := t.stringArg(op, str)
	if o == nil {
		return nil, false
	}
	data, err := vm.arena.Read(o.text.ptr, o.text.size)
	if err != nil {
		vm.violate(errors.Wrap(errors.PhaseDecode, errors.KindOutOfBounds, err, op))
		return nil, false
	}
	if vm.cfg.copyStrings {
		buf := make([]byte, len(data))
		copy(buf, data)
		data = buf
	}

	slot, _ := decode(uintptr(str))
	vm.refs.Borrow(slot)
	vm.pinned++
	return data, vm.cfg.copyStrings
}

func (t *Thread) ReleaseStringUTFChars(str hostref.String, _ []byte) {
	const op = "ReleaseStringUTFChars"
	if !t.enter(op) {
		return
	}
	defer t.leave()

	vm := t.vm
	if t.stringArg(op, str) == nil {
		return
	}
	slot, _ := decode(uintptr(str))
	if !vm.refs.ReturnBorrow(slot) {
		vm.violate(errors.New(errors.PhaseDecode, errors.KindInvalidInput).
			Name(op).
			Handle(uintptr(str)).
			Detail("characters are not pinned through this reference").
			Build())
		return
	}
	vm.pinned--
}

func (t *Thread) GetStringUTFLength(str hostref.String) int {
	const op = "GetStringUTFLength"
	if !t.enter(op) {
		return 0
	}
	defer t.leave()

	o := t.stringArg(op, str)
	if o == nil {
		return 0
	}
	return int(o.text.size)
}

var _ hostref.Interface = (*Thread)(nil)
