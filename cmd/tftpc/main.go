// Command tftpc is the reference TFTP client application: get downloads
// a remote file to a local path, put uploads a local file to the
// server, both driving the engine package's client-read/client-write
// operations directly (the same factories dit.go re-exports).
package main

import (
	"fmt"
	"os"

	"github.com/Joe-Degs/gotftpd/internal/config"
)

func usage(help string) {
	fmt.Fprintln(os.Stderr, "usage: tftpc [options] get|put <remote-file> [local-file]")
	fmt.Fprintln(os.Stderr, help)
}

func main() {
	opts, opt := config.NewClientOpts()
	args, err := opt.Parse(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if opts.Help {
		usage(opt.Help())
		return
	}
	if len(args) < 2 {
		usage(opt.Help())
		os.Exit(2)
	}

	verb := args[0]
	opts.RemoteFile = args[1]
	opts.Local = opts.RemoteFile
	if len(args) > 2 {
		opts.Local = args[2]
	}

	var runErr error
	switch verb {
	case "get":
		runErr = get(opts)
	case "put":
		runErr = put(opts)
	default:
		usage(opt.Help())
		os.Exit(2)
	}
	if runErr != nil {
		fmt.Fprintln(os.Stderr, "tftpc:", runErr)
		os.Exit(1)
	}
}
