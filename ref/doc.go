// Package ref makes the host runtime's reference discipline hard to get wrong.
//
// Every handle the runtime gives out must be deleted exactly once, on the
// thread that received it, after its last use. The types here pair each
// handle with that obligation:
//
//	Env        the thread's interface; detaches on Close if it attached
//	LocalRef   a scoped reference; deleted on Close
//	Class      LocalRef plus field and method lookup
//	Object     LocalRef plus array access and typed field reads
//	String     LocalRef plus borrowed characters, given back first
//	Global     a long-lived reference; deleted explicitly
//
// Ownership moves in two ways. Release hands the raw handle to the caller and
// makes Close a no-op. NewGlobalRef and Promote create a second, independent
// reference; the scoped one is still deleted by Close.
//
// Use defer to get release on every exit path. Deferred calls run in reverse,
// so wrappers are closed before the Env they were built from:
//
//	env, err := ref.NewEnv()
//	if err != nil {
//	    return err
//	}
//	defer env.Close()
//
//	s, _ := ref.DecodeString(env, arg)
//	defer s.Close()
//
// Lookups that the runtime rejects (unknown class, field or method) yield a
// null result. The runtime's pending failure is described to its diagnostic
// channel and cleared before the call returns.
package ref
