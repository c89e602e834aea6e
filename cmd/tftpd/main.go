// Command tftpd is the reference TFTP server application: it parses the
// CLI flags of spec.md section 6, binds the well-known UDP port, and
// serves read/write requests from files under a confined root directory.
package main

import (
	"fmt"
	"os"

	"github.com/Joe-Degs/gotftpd/internal/config"
)

func main() {
	opts, opt := config.NewServerOpts()
	args, err := opt.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.Help {
		fmt.Fprintln(os.Stdout, opt.Help())
		return
	}

	root := opts.Root
	if len(args) > 0 {
		root = args[0]
	}

	if err := run(opts, root); err != nil {
		fmt.Fprintln(os.Stderr, "tftpd:", err)
		os.Exit(1)
	}
}
