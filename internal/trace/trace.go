// Package trace dumps decoded TFTP packets for interactive debugging,
// the way the teacher's snoop.go used go-spew to inspect packets by hand
// while developing the wire codec. It is wired into the CLI entrypoints'
// --verbose packet trace rather than left as a throwaway utility.
package trace

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"

	"github.com/Joe-Degs/gotftpd/codec"
)

var config = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
}

// Dump renders a decoded packet as a multi-line, field-by-field
// representation suitable for a --verbose trace line.
func Dump(label string, p codec.Packet) string {
	return fmt.Sprintf("%s:\n%s", label, config.Sdump(p))
}

// DumpRaw decodes b and dumps the result, or reports the decode error
// directly, so a trace can be enabled before traffic is known to be
// well-formed.
func DumpRaw(label string, b []byte) string {
	p, err := codec.Decode(b)
	if err != nil {
		return fmt.Sprintf("%s: <invalid packet: %v>", label, err)
	}
	return Dump(label, p)
}
