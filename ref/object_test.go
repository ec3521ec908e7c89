package ref

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wippyai/hostref"
)

func TestGet_IntField(t *testing.T) {
	env, iface := newTestEnv(t)
	cls := iface.defineClass("Foo")
	bar := iface.addField(cls, "bar", "I", false)
	obj := hostref.Object(iface.newLocal(&fakeObj{
		class:  cls,
		fields: map[hostref.FieldID]any{bar: int32(42)},
	}))

	func() {
		o := NewObject(env, obj)
		defer o.Close()

		c := ClassOf(env, o.Get())
		defer c.Close()

		field := c.FieldID("bar", "I")
		require.NotZero(t, field)
		assert.Equal(t, int32(42), Get[int32](o, field))
	}()

	assert.Empty(t, iface.live)
	assert.Empty(t, iface.misuse)
}

func TestGet_AllFieldTypes(t *testing.T) {
	env, iface := newTestEnv(t)
	cls := iface.defineClass("All")
	fi := iface.addField(cls, "i", "I", false)
	fj := iface.addField(cls, "j", "J", false)
	fz := iface.addField(cls, "z", "Z", false)
	ff := iface.addField(cls, "f", "F", false)
	fd := iface.addField(cls, "d", "D", false)
	fl := iface.addField(cls, "l", "LAll;", false)

	inner := &fakeObj{class: cls}
	o := NewObject(env, hostref.Object(iface.newLocal(&fakeObj{
		class: cls,
		fields: map[hostref.FieldID]any{
			fi: int32(-7),
			fj: int64(1) << 40,
			fz: true,
			ff: float32(1.5),
			fd: 2.25,
			fl: inner,
		},
	})))
	defer o.Close()

	assert.Equal(t, int32(-7), Get[int32](o, fi))
	assert.Equal(t, int64(1)<<40, Get[int64](o, fj))
	assert.True(t, Get[bool](o, fz))
	assert.Equal(t, float32(1.5), Get[float32](o, ff))
	assert.Equal(t, 2.25, Get[float64](o, fd))

	ref := Get[hostref.Object](o, fl)
	require.NotZero(t, ref)
	assert.Same(t, inner, iface.object(ref))
	NewObject(env, ref).Close()

	assert.Equal(t, []string{
		"GetIntField",
		"GetLongField",
		"GetBooleanField",
		"GetFloatField",
		"GetDoubleField",
		"GetObjectField",
		"DeleteLocalRef",
	}, iface.calls)
}

func TestGet_NullObjectField(t *testing.T) {
	env, iface := newTestEnv(t)
	cls := iface.defineClass("Foo")
	next := iface.addField(cls, "next", "LFoo;", false)
	o := NewObject(env, hostref.Object(iface.newLocal(&fakeObj{class: cls})))
	defer o.Close()

	n := NewObject(env, Get[hostref.Object](o, next))
	assert.False(t, n.Valid())
	n.Close()
	assert.Zero(t, iface.count("DeleteLocalRef"))
}

func TestObject_Array(t *testing.T) {
	env, iface := newTestEnv(t)
	a, b := &fakeObj{}, &fakeObj{}
	arr := NewObject(env, hostref.Object(iface.newLocal(&fakeObj{elems: []*fakeObj{a, b}})))

	require.Equal(t, 2, arr.ArrayLength())
	for i, want := range []*fakeObj{a, b} {
		el := NewObject(env, arr.ArrayElement(i))
		assert.Same(t, want, iface.object(el.Get()))
		el.Close()
	}
	arr.Close()

	assert.Equal(t, 3, iface.count("DeleteLocalRef"))
	assert.Empty(t, iface.live)
}

func TestObject_ArrayElementOutOfRangeDrains(t *testing.T) {
	env, iface := newTestEnv(t)
	arr := NewObject(env, hostref.Object(iface.newLocal(&fakeObj{elems: []*fakeObj{{}}})))
	defer arr.Close()

	assert.Zero(t, arr.ArrayElement(5))

	want := []string{
		"GetObjectArrayElement",
		"ExceptionOccurred",
		"ExceptionDescribe",
		"ExceptionClear",
		"DeleteLocalRef",
	}
	if diff := cmp.Diff(want, iface.calls); diff != "" {
		t.Errorf("call sequence mismatch (-want +got):\n%s", diff)
	}
	assert.Nil(t, iface.pending)
	assert.Equal(t, 1, iface.liveCount("local"))
}

func TestObject_NullArrayElement(t *testing.T) {
	env, iface := newTestEnv(t)
	arr := NewObject(env, hostref.Object(iface.newLocal(&fakeObj{elems: []*fakeObj{nil}})))
	defer arr.Close()

	assert.Zero(t, arr.ArrayElement(0))
	assert.Equal(t, []string{"GetObjectArrayElement", "ExceptionOccurred"}, iface.calls)
}
