package hostvm

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wippyai/hostref"
	"github.com/wippyai/hostref/hostvm/def"
)

func loadDef(t *testing.T) *def.Definition {
	t.Helper()
	d, err := def.Load(filepath.Join("testdata", "foo.yaml"))
	require.NoError(t, err)
	return d
}

func newVM(t *testing.T, opts ...Option) *VM {
	t.Helper()
	vm, err := New(context.Background(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, vm.Close(context.Background())) })
	return vm
}

func newObservedVM(t *testing.T, opts ...Option) (*VM, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	opts = append([]Option{WithLogger(zap.New(core))}, opts...)
	return newVM(t, opts...), logs
}

// attachTest pins the test goroutine to its thread and attaches it.
func attachTest(t *testing.T, vm *VM) *Thread {
	t.Helper()
	runtime.LockOSThread()
	t.Cleanup(runtime.UnlockOSThread)

	iface, status := vm.AttachCurrentThread()
	require.Equal(t, hostref.OK, status)
	return iface.(*Thread)
}

// onOtherThread runs fn on a separate locked goroutine and waits for it.
func onOtherThread(fn func()) {
	done := make(chan struct{})
	go func() {
		defer close(done)
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		fn()
	}()
	<-done
}

// classOf names the class a class handle refers to.
func (vm *VM) classOf(h hostref.Class) string {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	slot, typeID := decode(uintptr(h))
	v, ok := vm.refs.GetTyped(slot, typeID)
	if !ok {
		return ""
	}
	if o := v.(*object); o.mirror != nil {
		return o.mirror.name
	}
	return ""
}
