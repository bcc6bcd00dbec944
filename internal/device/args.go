package device

import "strings"

// keepFlag reports whether a host compiler argument is passed through to
// the device compiler.
func keepFlag(arg string) bool {
	switch arg {
	case "-cxx-isystem", "-internal-isystem", "-internal-externc-isystem", "-x":
		return true
	}
	return strings.HasPrefix(arg, "-std=c++") || strings.HasPrefix(arg, "-f")
}

// FilterHostArgs keeps the include, language and -f arguments of a host
// compiler invocation. Values following a kept flag are kept with it, up to
// the next dash argument.
func FilterHostArgs(args []string) []string {
	var out []string
	keeping := false
	for _, arg := range args {
		if strings.HasPrefix(arg, "-") {
			keeping = false
		}
		if keeping || keepFlag(arg) {
			out = append(out, arg)
			keeping = true
		}
	}
	return out
}

// ArgSet caches the filtered host arguments and collects arguments
// registered at run time.
//
// The static list is built on first use and kept until Reset. Registered
// arguments survive Reset and apply to every later invocation.
type ArgSet struct {
	host       []string
	buffer     string
	static     []string
	built      bool
	registered []string
}

// NewArgSet creates an argument set over the host compiler arguments.
// buffer is the serialized source path appended to the static list.
func NewArgSet(host []string, buffer string) *ArgSet {
	return &ArgSet{
		host:   append([]string(nil), host...),
		buffer: buffer,
	}
}

// Static returns the filtered host arguments followed by -w and the buffer
// path.
func (a *ArgSet) Static() []string {
	if !a.built {
		a.static = append(FilterHostArgs(a.host), "-w", a.buffer)
		a.built = true
	}
	return append([]string(nil), a.static...)
}

// Register appends flag, and value when non-empty, to every later
// invocation.
func (a *ArgSet) Register(flag, value string) {
	a.registered = append(a.registered, flag)
	if value != "" {
		a.registered = append(a.registered, value)
	}
}

// Registered returns the run-time arguments in registration order.
func (a *ArgSet) Registered() []string {
	return append([]string(nil), a.registered...)
}

// Reset drops the cached static list; the next Static call rebuilds it.
func (a *ArgSet) Reset() {
	a.static = nil
	a.built = false
}
