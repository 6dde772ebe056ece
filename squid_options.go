package squid

import (
	"github.com/squidvm/squid/buildinfo"
	"github.com/squidvm/squid/bytecode"
	"github.com/squidvm/squid/output"
	"github.com/squidvm/squid/vm"
)

// Option configures loading and running a binary.
type Option func(*options)

type options struct {
	build        buildinfo.Info
	forceNewer   bool
	versionOnly  bool
	out          *output.Channel
	outputConfig output.Config
	trace        bool
	vm           []vm.Option
}

func collectOptions(opts ...Option) *options {
	o := &options{build: buildinfo.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

func (o *options) loadOptions() bytecode.LoadOptions {
	return bytecode.LoadOptions{
		PrintVersionOnly: o.versionOnly,
		ForceNewer:       o.forceNewer,
		VM:               o.build,
		Stdout:           o.outputConfig.Stdout,
		Stderr:           o.outputConfig.Stderr,
	}
}

func (o *options) vmOpts() []vm.Option {
	opts := []vm.Option{vm.WithBuildInfo(o.build)}
	return append(opts, o.vm...)
}

// WithBuildInfo sets the virtual machine build binaries are checked against.
func WithBuildInfo(info buildinfo.Info) Option {
	return func(o *options) {
		o.build = info
	}
}

// WithForceNewer accepts binaries compiled for a newer virtual machine.
func WithForceNewer(force bool) Option {
	return func(o *options) {
		o.forceNewer = force
	}
}

// WithVersionOnly makes Load print the binary's compatibility details and
// return bytecode.ErrVersionOnly.
func WithVersionOnly(only bool) Option {
	return func(o *options) {
		o.versionOnly = only
	}
}

// WithOutputConfig configures the output channel Run starts. Its writers are
// also used for loader reports.
func WithOutputConfig(cfg output.Config) Option {
	return func(o *options) {
		o.outputConfig = cfg
	}
}

// WithOutput runs on an existing output channel instead of starting one. The
// caller closes it.
func WithOutput(out *output.Channel) Option {
	return func(o *options) {
		o.out = out
	}
}

// WithTrace traces every executed instruction as a dev message. Dev
// messages are only written when the output channel runs in dev mode.
func WithTrace(trace bool) Option {
	return func(o *options) {
		o.trace = trace
	}
}

// WithVMOptions passes options to the virtual machine. This option is
// additive.
func WithVMOptions(opts ...vm.Option) Option {
	return func(o *options) {
		o.vm = append(o.vm, opts...)
	}
}
