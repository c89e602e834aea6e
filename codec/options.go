package codec

import "strings"

// Option is a single name/value pair as carried on the wire in a RRQ, WRQ
// or OACK packet.
type Option struct {
	Name  string
	Value string
}

// Options is an ordered list of option name/value pairs. Lookups on known
// option names are case-insensitive, as required by RFC 2347; the list
// otherwise preserves nothing beyond the name/value pairs themselves, in
// the order they appeared on the wire.
type Options []Option

// Get returns the value of the first option named name (case-insensitive)
// and whether it was present.
func (o Options) Get(name string) (string, bool) {
	for _, opt := range o {
		if strings.EqualFold(opt.Name, name) {
			return opt.Value, true
		}
	}
	return "", false
}

// Has reports whether an option named name is present.
func (o Options) Has(name string) bool {
	_, ok := o.Get(name)
	return ok
}

// with returns a copy of o with (name, value) appended. It does not dedupe;
// callers that must reject duplicate names (decoding from the wire) check
// that themselves before calling with.
func (o Options) with(name, value string) Options {
	return append(o, Option{Name: name, Value: value})
}

// Without returns a copy of o with any option named name removed
// (case-insensitive), preserving the order of the rest.
func (o Options) Without(name string) Options {
	out := make(Options, 0, len(o))
	for _, opt := range o {
		if !strings.EqualFold(opt.Name, name) {
			out = append(out, opt)
		}
	}
	return out
}

// With returns a copy of o with (name, value) appended, without checking
// for an existing option of the same name. Used by option negotiation code
// building up a fresh Options list (e.g. composing an OACK).
func (o Options) With(name, value string) Options {
	return o.with(name, value)
}

// Names returns the option names in wire order.
func (o Options) Names() []string {
	names := make([]string, len(o))
	for i, opt := range o {
		names[i] = opt.Name
	}
	return names
}
