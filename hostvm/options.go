package hostvm

import (
	"go.uber.org/zap"

	"github.com/wippyai/hostref"
	"github.com/wippyai/hostref/engine"
	"github.com/wippyai/hostref/hostvm/def"
)

type config struct {
	def              *def.Definition
	logger           *zap.Logger
	copyStrings      bool
	maxVersion       hostref.Version
	memoryLimitPages uint32
	attachFailure    bool
}

func defaultConfig() config {
	return config{
		maxVersion:       hostref.Version1_8,
		memoryLimitPages: engine.DefaultMemoryLimitPages,
	}
}

// Option configures a VM.
type Option func(*config)

// WithDefinition seeds the VM with the classes and objects of d.
func WithDefinition(d *def.Definition) Option {
	return func(c *config) { c.def = d }
}

// WithLogger sets the logger for lifecycle events, described failures and
// violations.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithCopyStrings makes GetStringUTFChars hand out private copies instead of
// views into the string arena.
func WithCopyStrings(copyStrings bool) Option {
	return func(c *config) { c.copyStrings = copyStrings }
}

// WithMaxVersion sets the highest interface revision GetEnv accepts.
func WithMaxVersion(v hostref.Version) Option {
	return func(c *config) { c.maxVersion = v }
}

// WithMemoryLimitPages caps the string arena, in 64KB pages.
func WithMemoryLimitPages(pages uint32) Option {
	return func(c *config) { c.memoryLimitPages = pages }
}

// WithAttachFailure makes every AttachCurrentThread fail.
func WithAttachFailure(fail bool) Option {
	return func(c *config) { c.attachFailure = fail }
}
