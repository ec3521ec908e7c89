package hostref

// Handle types are opaque references into the host runtime's managed heap.
// The zero value of every handle type is the null reference.
type (
	Object    uintptr
	Class     uintptr
	String    uintptr
	Throwable uintptr
)

// Handle is satisfied by every reference type the runtime hands out.
type Handle interface {
	~uintptr
}

// FieldID identifies a field of a class. Zero means not found.
type FieldID uintptr

// MethodID identifies a method of a class. Zero means not found.
type MethodID uintptr

// Version selects the interface revision requested from GetEnv.
type Version int32

const (
	Version1_2 Version = 0x00010002
	Version1_4 Version = 0x00010004
	Version1_6 Version = 0x00010006
	Version1_8 Version = 0x00010008
)

func (v Version) String() string {
	switch v {
	case Version1_2:
		return "1.2"
	case Version1_4:
		return "1.4"
	case Version1_6:
		return "1.6"
	case Version1_8:
		return "1.8"
	default:
		return "unknown"
	}
}

// Status is the result code of VM-level calls.
type Status int32

const (
	OK          Status = 0
	Err         Status = -1
	ErrDetached Status = -2
	ErrVersion  Status = -3
)

func (s Status) String() string {
	switch s {
	case OK:
		return "ok"
	case ErrDetached:
		return "thread detached"
	case ErrVersion:
		return "unsupported version"
	default:
		return "error"
	}
}

// VM is the process-level control interface of the host runtime.
type VM interface {
	// GetEnv returns the interface attached to the calling thread, or
	// ErrDetached if the thread is not attached.
	GetEnv(version Version) (Interface, Status)

	// AttachCurrentThread registers the calling thread with the runtime.
	AttachCurrentThread() (Interface, Status)

	// DetachCurrentThread unregisters the calling thread. Local references
	// still owned by the thread are freed by the runtime.
	DetachCurrentThread() Status
}

// Interface is the thread-local function table of the host runtime.
// An Interface must only be used on the thread it was obtained on.
type Interface interface {
	FindClass(name string) Class
	GetObjectClass(obj Object) Class

	GetFieldID(class Class, name, sig string) FieldID
	GetStaticFieldID(class Class, name, sig string) FieldID
	GetMethodID(class Class, name, sig string) MethodID
	GetStaticMethodID(class Class, name, sig string) MethodID

	NewGlobalRef(obj Object) Object
	DeleteGlobalRef(obj Object)
	DeleteLocalRef(obj Object)

	ExceptionOccurred() Throwable
	ExceptionDescribe()
	ExceptionClear()

	GetArrayLength(array Object) int
	GetObjectArrayElement(array Object, index int) Object

	GetIntField(obj Object, field FieldID) int32
	GetLongField(obj Object, field FieldID) int64
	GetBooleanField(obj Object, field FieldID) bool
	GetFloatField(obj Object, field FieldID) float32
	GetDoubleField(obj Object, field FieldID) float64
	GetObjectField(obj Object, field FieldID) Object

	NewStringUTF(text string) String
	// GetStringUTFChars returns the modified UTF-8 bytes of str. isCopy
	// reports whether the bytes are a private copy or a view into the
	// runtime's memory. The bytes stay valid until ReleaseStringUTFChars.
	GetStringUTFChars(str String) (chars []byte, isCopy bool)
	ReleaseStringUTFChars(str String, chars []byte)
	GetStringUTFLength(str String) int
}
