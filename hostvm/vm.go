package hostvm

import (
	"context"
	"runtime"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/hostref"
	"github.com/wippyai/hostref/engine"
	"github.com/wippyai/hostref/errors"
	"github.com/wippyai/hostref/resource"
)

// Reference slot type ids in the VM's resource table.
const (
	RefLocal uint32 = iota + 1
	RefGlobal
)

// RefKind names a reference slot type id.
func RefKind(typeID uint32) string {
	switch typeID {
	case RefLocal:
		return "local"
	case RefGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Stats is a snapshot of the VM's bookkeeping.
type Stats struct {
	LocalRefs   int
	GlobalRefs  int
	Threads     int
	Attaches    int
	Detaches    int
	Described   int
	PinnedChars int
	LeakedRefs  int
	Freed       int
	Violations  int
	ArenaInUse  uint32
}

// VM is an in-process host runtime. It implements hostref.VM and audits
// every reference operation made through its thread interfaces.
//
// All state is guarded by one mutex. Observers registered with Subscribe run
// with that mutex held and must not call back into the VM.
type VM struct {
	cfg        config
	log        *zap.Logger
	arena      *engine.Arena
	refs       *resource.UnifiedTable
	classes    map[string]*class
	fields     map[hostref.FieldID]*field
	methods    map[hostref.MethodID]*method
	roots      map[string]*object
	threads    map[int64]*Thread
	violations []error
	mu         sync.Mutex
	nextID     uintptr
	attaches   int
	detaches   int
	described  int
	pinned     int
	leaked     int
	freed      int
	closed     bool
}

// New creates a VM with the built-in classes plus whatever the options add.
func New(ctx context.Context, opts ...Option) (*VM, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	log := cfg.logger
	if log == nil {
		log = Logger()
	}

	arena, err := engine.NewArena(ctx, &engine.Config{MemoryLimitPages: cfg.memoryLimitPages})
	if err != nil {
		return nil, err
	}

	vm := &VM{
		cfg:     cfg,
		log:     log,
		arena:   arena,
		refs:    resource.NewTable(),
		classes: make(map[string]*class),
		fields:  make(map[hostref.FieldID]*field),
		methods: make(map[hostref.MethodID]*method),
		roots:   make(map[string]*object),
		threads: make(map[int64]*Thread),
	}

	vm.mu.Lock()
	vm.defineBuiltins()
	if cfg.def != nil {
		err = vm.load(cfg.def)
	}
	vm.mu.Unlock()

	if err != nil {
		return nil, multierr.Append(err, vm.Close(ctx))
	}

	log.Debug("host runtime created",
		zap.Int("classes", len(vm.classes)),
		zap.Int("roots", len(vm.roots)),
		zap.Bool("copy_strings", cfg.copyStrings))
	return vm, nil
}

// GetEnv returns the interface of the calling thread if it is attached.
func (vm *VM) GetEnv(version hostref.Version) (hostref.Interface, hostref.Status) {
	if version.String() == "unknown" || version > vm.cfg.maxVersion {
		return nil, hostref.ErrVersion
	}

	vm.mu.Lock()
	defer vm.mu.Unlock()

	t, ok := vm.threads[threadID()]
	if !ok {
		return nil, hostref.ErrDetached
	}
	return t, hostref.OK
}

// AttachCurrentThread attaches the calling thread. Attaching an attached
// thread returns its existing interface.
func (vm *VM) AttachCurrentThread() (hostref.Interface, hostref.Status) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	if vm.closed || vm.cfg.attachFailure {
		return nil, hostref.Err
	}

	tid := threadID()
	if t, ok := vm.threads[tid]; ok {
		return t, hostref.OK
	}
	return vm.attach(tid), hostref.OK
}

// DetachCurrentThread detaches the calling thread. Local references the
// thread still holds are freed and counted as leaks.
func (vm *VM) DetachCurrentThread() hostref.Status {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	t, ok := vm.threads[threadID()]
	if !ok {
		return hostref.ErrDetached
	}
	vm.detach(t)
	return hostref.OK
}

func (vm *VM) attach(tid int64) *Thread {
	t := &Thread{vm: vm, id: tid}
	vm.threads[tid] = t
	vm.attaches++
	vm.log.Debug("thread attached", zap.Int64("thread", tid))
	return t
}

func (vm *VM) detach(t *Thread) {
	leaked := vm.freeLocals(t, nil)
	t.setPending(nil)
	delete(vm.threads, t.id)
	vm.detaches++
	vm.leaked += leaked

	if leaked > 0 {
		vm.log.Warn("local references leaked at detach",
			zap.Int64("thread", t.id),
			zap.Int("count", leaked))
	} else {
		vm.log.Debug("thread detached", zap.Int64("thread", t.id))
	}
}

// freeLocals deletes the local references owned by t, except those in keep,
// giving back any pinned characters first. Returns the number freed.
func (vm *VM) freeLocals(t *Thread, keep map[resource.Handle]bool) int {
	n := 0
	for _, slot := range vm.refs.Owned(RefLocal, t.id) {
		if keep[slot] {
			continue
		}
		for vm.refs.ReturnBorrow(slot) {
			vm.pinned--
		}
		v, err := vm.refs.Remove(slot)
		if err != nil {
			continue
		}
		vm.unref(v.(*object))
		n++
	}
	return n
}

// InvokeNative calls fn the way the runtime calls a native method: on a
// thread of its own, with the named root objects as local reference
// arguments. Local references still alive when fn returns are freed without
// counting as leaks; characters still pinned are recorded as violations.
// A panic in fn is re-raised on the calling goroutine.
func (vm *VM) InvokeNative(fn func(env hostref.Interface, args ...hostref.Object), roots ...string) error {
	type result struct {
		err      error
		panicked any
	}

	done := make(chan result, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		var res result
		defer func() {
			res.panicked = recover()
			done <- res
		}()
		res.err = vm.invoke(fn, roots)
	}()

	res := <-done
	if res.panicked != nil {
		panic(res.panicked)
	}
	return res.err
}

func (vm *VM) invoke(fn func(hostref.Interface, ...hostref.Object), roots []string) error {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return errors.InvalidInput(errors.PhaseAttach, "runtime closed")
	}

	tid := threadID()
	t, attached := vm.threads[tid]
	if !attached {
		t = vm.attach(tid)
	}

	keep := make(map[resource.Handle]bool)
	for _, slot := range vm.refs.Owned(RefLocal, tid) {
		keep[slot] = true
	}

	pop := func() {
		for _, slot := range vm.refs.Owned(RefLocal, tid) {
			if !keep[slot] && vm.refs.Borrows(slot) > 0 {
				vm.violate(errors.OutstandingBorrow(encode(slot, RefLocal)))
			}
		}
		vm.freeLocals(t, keep)
		if !attached && vm.threads[tid] == t {
			vm.detach(t)
		}
	}

	args := make([]hostref.Object, 0, len(roots))
	for _, name := range roots {
		o, ok := vm.roots[name]
		if !ok {
			pop()
			vm.mu.Unlock()
			return errors.NotFound(errors.PhaseAccess, "root", name)
		}
		args = append(args, hostref.Object(vm.newRef(RefLocal, tid, o)))
	}
	vm.mu.Unlock()

	defer func() {
		vm.mu.Lock()
		defer vm.mu.Unlock()
		pop()
	}()

	fn(t, args...)
	return nil
}

// Stats returns a snapshot of the VM's counters.
func (vm *VM) Stats() Stats {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	return Stats{
		LocalRefs:   vm.refs.CountTyped(RefLocal),
		GlobalRefs:  vm.refs.CountTyped(RefGlobal),
		Threads:     len(vm.threads),
		Attaches:    vm.attaches,
		Detaches:    vm.detaches,
		Described:   vm.described,
		PinnedChars: vm.pinned,
		LeakedRefs:  vm.leaked,
		Freed:       vm.freed,
		Violations:  len(vm.violations),
		ArenaInUse:  vm.arena.InUse(),
	}
}

// Violations returns every misuse recorded so far, oldest first.
func (vm *VM) Violations() []error {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	out := make([]error, len(vm.violations))
	copy(out, vm.violations)
	return out
}

// Err combines every recorded violation, or returns nil if there are none.
func (vm *VM) Err() error {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return multierr.Combine(vm.violations...)
}

// Subscribe registers o for reference slot lifecycle events.
func (vm *VM) Subscribe(o resource.Observer) {
	vm.refs.Subscribe(o)
}

// Unsubscribe removes an observer added with Subscribe.
func (vm *VM) Unsubscribe(o resource.Observer) {
	vm.refs.Unsubscribe(o)
}

// Describe returns the class name of the object an event's slot refers to,
// or "" when the event carries no object.
func Describe(e resource.Event) string {
	o, _ := e.Value.(*object)
	return o.className()
}

// Close detaches every thread, counting their local references as leaks,
// drops the remaining global references, then releases the reference table
// and the string arena.
func (vm *VM) Close(ctx context.Context) error {
	vm.mu.Lock()
	if vm.closed {
		vm.mu.Unlock()
		return nil
	}
	vm.closed = true

	for _, t := range vm.threads {
		vm.detach(t)
	}
	if globals := vm.refs.CountTyped(RefGlobal); globals > 0 {
		vm.log.Warn("global references alive at close", zap.Int("count", globals))
	}
	vm.refs.Clear()
	vm.mu.Unlock()

	return multierr.Combine(vm.refs.Close(), vm.arena.Close(ctx))
}

// violate records a misuse. Caller holds vm.mu.
func (vm *VM) violate(err *errors.Error) {
	vm.violations = append(vm.violations, err)
	vm.log.Warn("reference violation", zap.Error(err))
}

var _ hostref.VM = (*VM)(nil)
