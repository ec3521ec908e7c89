package main

import (
	"context"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/wippyai/hostref"
	"github.com/wippyai/hostref/errors"
	"github.com/wippyai/hostref/hostvm/def"
	"github.com/wippyai/hostref/ref"
)

// rooter is implemented by thread interfaces that expose seeded objects.
type rooter interface {
	Root(name string) hostref.Object
}

// workload walks every seeded object of a definition from several attached
// threads at once.
type workload struct {
	def        *def.Definition
	workers    int
	iterations int
	leak       bool // release one new string per pass without deleting it
	missing    bool // look up an unknown class per pass
}

// run starts the workers and waits for them. Each worker attaches through
// ref.NewEnv, so a host runtime must be registered.
func (w *workload) run(ctx context.Context) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs error
	)
	for i := 0; i < w.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			if err := w.worker(ctx); err != nil {
				logger.Warn("worker failed", zap.Int("worker", id), zap.Error(err))
				mu.Lock()
				errs = multierr.Append(errs, err)
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()
	return errs
}

func (w *workload) worker(ctx context.Context) (err error) {
	env, err := ref.NewEnv()
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, env.Close()) }()

	roots, ok := env.Interface().(rooter)
	if !ok {
		return errors.InvalidInput(errors.PhaseAccess, "host runtime does not expose seeded objects")
	}

	for i := 0; i < w.iterations; i++ {
		if ctx.Err() != nil {
			return nil
		}
		w.pass(env, roots)
	}
	return nil
}

// pass visits every seeded object once.
func (w *workload) pass(env *ref.Env, roots rooter) {
	for i := range w.def.Objects {
		w.visit(env, roots, &w.def.Objects[i])
	}

	if w.missing {
		ref.FindClass(env, "com/example/Missing").Close()
	}
	if w.leak {
		ref.NewString(env, "leaked").Release()
	}
}

func (w *workload) visit(env *ref.Env, roots rooter, o *def.Object) {
	obj := ref.NewObject(env, roots.Root(o.Name))
	defer obj.Close()
	if !obj.Valid() {
		return
	}

	switch o.ObjectKind() {
	case def.KindString:
		s, _ := ref.DecodeString(env, hostref.String(obj.Release()))
		defer s.Close()
		logger.Debug("string", zap.String("root", o.Name), zap.String("text", s.Text()))

	case def.KindArray:
		n := obj.ArrayLength()
		for i := 0; i < n; i++ {
			ref.NewObject(env, obj.ArrayElement(i)).Close()
		}

	default:
		g := obj.Promote()
		defer g.Delete(env)

		cls := ref.ClassOf(env, obj.Get())
		defer cls.Close()
		for _, f := range instanceFields(w.def, o.Class) {
			readField(env, obj, cls, f)
		}
	}
}

// instanceFields lists the instance fields of class and its supers.
func instanceFields(d *def.Definition, class string) []def.Field {
	var fields []def.Field
	seen := make(map[string]bool)
	for c := d.Class(class); c != nil && !seen[c.Name]; c = d.Class(c.Super) {
		seen[c.Name] = true
		for _, f := range c.Fields {
			if !f.Static {
				fields = append(fields, f)
			}
		}
	}
	return fields
}

func readField(env *ref.Env, obj *ref.Object, cls *ref.Class, f def.Field) {
	id := cls.FieldID(f.Name, f.Sig)
	if id == 0 {
		return
	}

	var v any
	switch f.Sig {
	case "I":
		v = ref.Get[int32](obj, id)
	case "J":
		v = ref.Get[int64](obj, id)
	case "Z":
		v = ref.Get[bool](obj, id)
	case "F":
		v = ref.Get[float32](obj, id)
	case "D":
		v = ref.Get[float64](obj, id)
	default:
		target := ref.NewObject(env, ref.Get[hostref.Object](obj, id))
		v = target.Valid()
		target.Close()
	}
	logger.Debug("field", zap.String("name", f.Name), zap.Any("value", v))
}
