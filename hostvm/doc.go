// Package hostvm is an in-process host runtime implementing hostref.VM.
//
// It has no bytecode and no collector. It keeps just enough of a managed
// heap (classes with fields and methods, plain objects, object arrays and
// strings) to back every call of hostref.Interface, and it audits how those
// calls are made:
//
//   - local references are bound to the thread that received them; any
//     still alive when the thread detaches are freed and counted as leaks
//   - every interface call checks it runs on its own, still attached thread
//   - deleting a freed, foreign or wrongly typed handle is a violation
//   - deleting a string reference while its characters are pinned is a
//     violation, and the reference stays alive
//
// Reference slots live in a resource.UnifiedTable, so observers see every
// create, delete, pin and unpin. String payloads live in an engine.Arena:
// GetStringUTFChars hands out views into the arena's linear memory unless
// the VM is created WithCopyStrings.
//
//	vm, err := hostvm.New(ctx, hostvm.WithDefinition(d))
//	if err != nil {
//		return err
//	}
//	defer vm.Close(ctx)
//
//	ref.RegisterHost(vm)
//	// ... run native code ...
//	if err := vm.Err(); err != nil {
//		// reference misuse was recorded
//	}
package hostvm
