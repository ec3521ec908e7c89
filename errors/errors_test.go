package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type status string

func (s status) String() string { return string(s) }

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseRelease,
				Kind:   KindStaleHandle,
				Name:   "DeleteLocalRef",
				Handle: 0x2a,
				Thread: 7,
				Detail: "handle is not live",
			},
			contains: []string{"[release]", "stale_handle", "DeleteLocalRef", "handle=0x2a", "thread=7", "handle is not live"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseLookup,
				Kind:  KindClassNotFound,
			},
			contains: []string{"[lookup]", "class_not_found"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseMemory,
				Kind:   KindAllocation,
				Detail: "arena full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[memory]", "allocation", "arena full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				assert.Contains(t, msg, s)
			}
		})
	}
}

func TestError_OmitsZeroHandleAndThread(t *testing.T) {
	msg := ClassNotFound("Missing").Error()
	assert.NotContains(t, msg, "handle=")
	assert.NotContains(t, msg, "thread=")
	assert.Contains(t, msg, "Missing")
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseConfig,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	assert.ErrorIs(t, err.Unwrap(), cause)
	assert.ErrorIs(t, errors.Unwrap(err), cause)
	assert.ErrorIs(t, err, cause)
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseAccess,
		Kind:  KindWrongThread,
		Name:  "GetIntField",
	}

	assert.True(t, err.Is(&Error{Phase: PhaseAccess, Kind: KindWrongThread}))
	assert.False(t, err.Is(&Error{Phase: PhaseRelease, Kind: KindWrongThread}))
	assert.False(t, err.Is(&Error{Phase: PhaseAccess, Kind: KindStaleHandle}))
	assert.False(t, err.Is(errors.New("plain")))

	target := &Error{Phase: PhaseAccess, Kind: KindWrongThread}
	assert.ErrorIs(t, err, target)
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseRelease, KindStaleHandle).
		Name("DeleteGlobalRef").
		Handle(0x10).
		Thread(99).
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "global", "local").
		Build()

	assert.Equal(t, PhaseRelease, err.Phase)
	assert.Equal(t, KindStaleHandle, err.Kind)
	assert.Equal(t, "DeleteGlobalRef", err.Name)
	assert.Equal(t, uintptr(0x10), err.Handle)
	assert.Equal(t, int64(99), err.Thread)
	assert.Equal(t, 42, err.Value)
	assert.ErrorIs(t, err.Cause, cause)
	assert.Equal(t, "expected global, got local", err.Detail)
}

func TestBuilder_DetailWithoutArgs(t *testing.T) {
	err := New(PhaseLookup, KindNotFound).Detail("100%% literal").Build()
	assert.Equal(t, "100%% literal", err.Detail)
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"NotRegistered", NotRegistered(), PhaseRegister, KindNotRegistered},
		{"AttachFailed", AttachFailed(status("thread detached")), PhaseAttach, KindAttach},
		{"DetachFailed", DetachFailed(status("error")), PhaseAttach, KindDetach},
		{"VersionUnsupported", VersionUnsupported(status("1.6")), PhaseAttach, KindVersion},
		{"ClassNotFound", ClassNotFound("Foo"), PhaseLookup, KindClassNotFound},
		{"FieldNotFound", FieldNotFound("bar", "I"), PhaseLookup, KindFieldNotFound},
		{"MethodNotFound", MethodNotFound("run", "()V"), PhaseLookup, KindMethodNotFound},
		{"StaleHandle", StaleHandle(PhaseRelease, "DeleteLocalRef", 3), PhaseRelease, KindStaleHandle},
		{"WrongThread", WrongThread(PhaseAccess, "GetIntField", 1, 2), PhaseAccess, KindWrongThread},
		{"OutstandingBorrow", OutstandingBorrow(5), PhaseRelease, KindOutstandingBorrow},
		{"TypeMismatch", TypeMismatch(PhaseAccess, "GetIntField", "I", "J"), PhaseAccess, KindTypeMismatch},
		{"OutOfBounds", OutOfBounds(PhaseAccess, "GetObjectArrayElement", 10, 5), PhaseAccess, KindOutOfBounds},
		{"AllocationFailed", AllocationFailed(1024, nil), PhaseMemory, KindAllocation},
		{"NotFound", NotFound(PhaseConfig, "object", "foo"), PhaseConfig, KindNotFound},
		{"InvalidInput", InvalidInput(PhaseConfig, "bad"), PhaseConfig, KindInvalidInput},
		{"InvalidData", InvalidData(PhaseConfig, "Foo.bar", "bad value"), PhaseConfig, KindInvalidData},
		{"Wrap", Wrap(PhaseConfig, KindInvalidData, errors.New("x"), "parse"), PhaseConfig, KindInvalidData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.phase, tt.err.Phase)
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.NotEmpty(t, tt.err.Error())
		})
	}

	t.Run("details", func(t *testing.T) {
		assert.Contains(t, AttachFailed(status("thread detached")).Detail, "thread detached")
		assert.Contains(t, AllocationFailed(1024, nil).Detail, "1024")
		assert.Equal(t, 10, OutOfBounds(PhaseAccess, "x", 10, 5).Value)
		assert.Contains(t, WrongThread(PhaseAccess, "x", 1, 2).Detail, "thread 1")
		assert.Equal(t, int64(2), WrongThread(PhaseAccess, "x", 1, 2).Thread)
	})
}
