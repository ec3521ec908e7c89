package ref

import (
	"strings"

	"github.com/wippyai/hostref"
	"github.com/wippyai/hostref/errors"
)

// String is a scoped string reference plus, when decoded, the characters
// borrowed from the runtime. The characters are always given back before the
// reference is deleted or handed off.
type String struct {
	LocalRef[hostref.String]
	chars     []byte
	length    int
	ownsChars bool
}

// NewString creates a managed string from text, up to the first NUL byte.
func NewString(env *Env, text string) *String {
	return NewStringN(env, text, -1)
}

// NewStringN creates a managed string from the first n bytes of text. A
// negative n means up to the first NUL byte or the end of text. Chars
// returns the source bytes; nothing is borrowed from the runtime. If the
// runtime cannot create the string, its failure is drained and the returned
// String is invalid and empty.
func NewStringN(env *Env, text string, n int) *String {
	switch {
	case n < 0:
		if i := strings.IndexByte(text, 0); i >= 0 {
			n = i
		} else {
			n = len(text)
		}
	case n > len(text):
		n = len(text)
	}

	s := &String{}
	s.env = env
	s.ref = env.Interface().NewStringUTF(text[:n])
	if s.ref == 0 {
		drainFailure(env, errors.AllocationFailed(uint32(n), nil))
		return s
	}
	s.chars = []byte(text[:n])
	s.length = n
	return s
}

// DecodeString takes ownership of str and borrows its characters. The bool
// reports whether the runtime made a private copy rather than exposing its
// own memory. A null str yields an empty String and no runtime calls.
func DecodeString(env *Env, str hostref.String) (*String, bool) {
	s := &String{}
	s.env = env
	s.ref = str
	if str == 0 {
		return s, false
	}

	iface := env.Interface()
	chars, isCopy := iface.GetStringUTFChars(str)
	s.chars = chars
	s.length = iface.GetStringUTFLength(str)
	s.ownsChars = chars != nil
	return s, isCopy
}

// Chars returns the characters. Undefined after Close or Release.
func (s *String) Chars() []byte {
	return s.chars
}

// Length returns the length of Chars in bytes.
func (s *String) Length() int {
	return s.length
}

// Text returns a copy of Chars as a Go string.
func (s *String) Text() string {
	return string(s.chars)
}

// Close gives the characters back, then deletes the reference.
func (s *String) Close() {
	s.releaseChars()
	s.LocalRef.Close()
}

// Release gives the characters back, then hands the raw reference to the
// caller.
func (s *String) Release() hostref.String {
	s.releaseChars()
	return s.LocalRef.Release()
}

func (s *String) releaseChars() {
	if s.ownsChars {
		s.env.Interface().ReleaseStringUTFChars(s.ref, s.chars)
		s.ownsChars = false
	}
	s.chars = nil
	s.length = 0
}
