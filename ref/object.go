package ref

import (
	"github.com/wippyai/hostref"
	"github.com/wippyai/hostref/errors"
)

// Object is a scoped reference to any managed object, arrays included.
type Object struct {
	LocalRef[hostref.Object]
}

// NewObject takes ownership of the scoped reference obj.
func NewObject(env *Env, obj hostref.Object) *Object {
	o := &Object{}
	o.env = env
	o.ref = obj
	return o
}

// ArrayLength returns the element count. The object must be an array.
func (o *Object) ArrayLength() int {
	return o.env.Interface().GetArrayLength(o.ref)
}

// ArrayElement returns a new scoped reference to the element at index,
// owned by the caller. The object must be an object array. A null result is
// either a null element or a failed access, whose failure is drained.
func (o *Object) ArrayElement(index int) hostref.Object {
	el := o.env.Interface().GetObjectArrayElement(o.ref, index)
	if el == 0 {
		drainFailure(o.env, errors.New(errors.PhaseAccess, errors.KindOutOfBounds).
			Name("GetObjectArrayElement").
			Value(index).
			Build())
	}
	return el
}

// FieldValue is the set of field types Get can decode.
type FieldValue interface {
	int32 | int64 | bool | float32 | float64 | hostref.Object
}

// Get reads a field of o as T. T must match the field's declared type.
// A hostref.Object result is a new scoped reference owned by the caller.
func Get[T FieldValue](o *Object, field hostref.FieldID) T {
	var v T
	iface := o.env.Interface()
	switch p := any(&v).(type) {
	case *int32:
		*p = iface.GetIntField(o.ref, field)
	case *int64:
		*p = iface.GetLongField(o.ref, field)
	case *bool:
		*p = iface.GetBooleanField(o.ref, field)
	case *float32:
		*p = iface.GetFloatField(o.ref, field)
	case *float64:
		*p = iface.GetDoubleField(o.ref, field)
	case *hostref.Object:
		*p = iface.GetObjectField(o.ref, field)
	}
	return v
}
