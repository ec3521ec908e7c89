// Package hostref defines the handle ABI of a managed host runtime and is the
// root of a resource-safety layer over it.
//
// The host runtime hands native code opaque references to objects, classes and
// strings living in its managed heap. Every reference must be released exactly
// once, on the thread that owns it, or the runtime leaks slots or corrupts
// itself. This module wraps that discipline in scoped Go types.
//
// # Architecture Overview
//
//	hostref/          Root package with the VM and Interface contracts
//	├── ref/          Scoped environment and reference wrappers (the core)
//	├── errors/       Structured error types
//	├── resource/     Reference slot tables with borrow tracking
//	├── engine/       wazero-backed linear memory arena
//	├── hostvm/       In-process host runtime for tests and audits
//	│   └── def/      Host definition files (YAML or TOML)
//	└── cmd/refwatch  CLI: workload runner and live reference monitor
//
// # Quick Start
//
// Register the runtime once, then open an environment per native entry:
//
//	ref.RegisterHost(vm)
//
//	env, err := ref.NewEnv()
//	if err != nil {
//	    return err
//	}
//	defer env.Close()
//
//	cls := ref.FindClass(env, "Foo")
//	defer cls.Close()
//	if !cls.Valid() {
//	    return nil
//	}
//	bar := cls.FieldID("bar", "I")
//
//	obj := ref.NewObject(env, handle)
//	defer obj.Close()
//	fmt.Println(ref.Get[int32](obj, bar))
//
// # Thread Safety
//
// An Env is bound to the OS thread that created it. NewEnv locks the calling
// goroutine to its thread until Close. Never share an Env or any wrapper built
// from it with another goroutine. The registered VM is written once at start
// up and only read afterwards.
package hostref
