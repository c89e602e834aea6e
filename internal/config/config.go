// Package config parses the CLI surface of the reference server and
// client applications (spec.md section 6) with go-getoptions, the
// teacher's own flag library (server/opts.go), and turns the result into
// an engine.Configuration plus the handful of knobs that are specific to
// each application (server root directory, bind address; client remote
// address, remote and local file names).
package config

import (
	"fmt"
	"io"
	"time"

	"github.com/DavidGamba/go-getoptions"

	"github.com/Joe-Degs/gotftpd/engine"
	"github.com/Joe-Degs/gotftpd/options"
)

// ServerOpts are the tftpd-compatible flags that configure the reference
// server application.
type ServerOpts struct {
	Address string // --address|-a [host][:port]
	Root    string // --server-root path

	BlockSize int // --blocksize|-B max accepted block size
	Timeout   int // --timeout|-t seconds, the retry interval
	Retries   int // --retries|-T max retransmits of the same packet

	HandleTransferSize bool // --tsize enable tsize negotiation
	Dally              bool // --dally wait out a final retransmit
	Create             bool // --create allow new files on write
	Verbose            bool // --verbose|-v
	Help               bool

	Out, Err io.Writer
}

// NewServerOpts registers the server's flag set and returns both the
// options struct it will populate and the getoptions parser, mirroring
// the teacher's NewOpts two-return shape.
func NewServerOpts() (*ServerOpts, *getoptions.GetOpt) {
	var o ServerOpts
	opt := getoptions.New()
	opt.SetMode(getoptions.Bundling)

	opt.BoolVar(&o.Help, "help", false, opt.Alias("h", "?"))
	opt.StringVar(&o.Address, "address", ":69", opt.Alias("a"),
		opt.Description("address and port to listen on"))
	opt.StringVar(&o.Root, "server-root", ".", opt.Alias("s"),
		opt.Description("restrict served files to this directory"))

	opt.IntVar(&o.BlockSize, "blocksize", 0, opt.Alias("B"),
		opt.Description("maximum block size accepted from a client; 0 disables negotiation"))
	opt.IntVar(&o.Timeout, "timeout", 2, opt.Alias("t"),
		opt.Description("retry interval in seconds until a timeout option is negotiated"))
	opt.IntVar(&o.Retries, "retries", 1, opt.Alias("T"),
		opt.Description("maximum retransmits of the same packet before failing a transfer"))

	opt.BoolVar(&o.HandleTransferSize, "tsize", false,
		opt.Description("negotiate the tsize option"))
	opt.BoolVar(&o.Dally, "dally", false,
		opt.Description("wait 2x the timeout after the final ACK/DATA to absorb a retransmit"))
	opt.BoolVar(&o.Create, "create", false, opt.Alias("c"),
		opt.Description("allow write requests to create new files"))
	opt.BoolVar(&o.Verbose, "verbose", false, opt.Alias("v"),
		opt.Description("verbose, packet-level trace output"))

	return &o, opt
}

// Configuration builds the engine.Configuration the server operations are
// created with, from the parsed flags.
func (o *ServerOpts) Configuration() engine.Configuration {
	cfg := engine.DefaultConfiguration()
	cfg.Timeout = time.Duration(o.Timeout) * time.Second
	cfg.Retries = o.Retries
	cfg.Dally = o.Dally
	cfg.Policy = options.Policy{HandleTransferSize: o.HandleTransferSize}
	if o.BlockSize > 0 {
		bs := o.BlockSize
		cfg.Policy.BlockSize = &bs
	}
	return cfg
}

// ClientOpts are the flags shared by the reference get/put client CLI.
type ClientOpts struct {
	Remote     string // server host[:port]
	Local      string // local file path
	RemoteFile string // remote file name, as seen by the server

	BlockSize int // --blocksize proposed block size; 0 = don't propose
	Timeout   int // --timeout proposed timeout seconds; 0 = don't propose
	Retries   int
	Tsize     bool
	Verbose   bool
	Help      bool
}

// NewClientOpts registers the client's flag set.
func NewClientOpts() (*ClientOpts, *getoptions.GetOpt) {
	var o ClientOpts
	opt := getoptions.New()
	opt.SetMode(getoptions.Bundling)

	opt.BoolVar(&o.Help, "help", false, opt.Alias("h", "?"))
	opt.StringVar(&o.Remote, "remote", "", opt.Alias("r"),
		opt.Required(), opt.Description("server host[:port]"))
	opt.IntVar(&o.BlockSize, "blocksize", 0, opt.Alias("B"),
		opt.Description("propose this block size; 0 omits the option"))
	opt.IntVar(&o.Timeout, "timeout", 0, opt.Alias("t"),
		opt.Description("propose this retry timeout in seconds; 0 omits the option"))
	opt.IntVar(&o.Retries, "retries", 1, opt.Alias("T"),
		opt.Description("maximum retransmits of the same packet before failing"))
	opt.BoolVar(&o.Tsize, "tsize", false,
		opt.Description("negotiate the tsize option"))
	opt.BoolVar(&o.Verbose, "verbose", false, opt.Alias("v"),
		opt.Description("verbose, packet-level trace output"))

	return &o, opt
}

// Configuration builds the engine.Configuration the client operation is
// created with.
func (o *ClientOpts) Configuration() engine.Configuration {
	cfg := engine.DefaultConfiguration()
	if o.Retries > 0 {
		cfg.Retries = o.Retries
	}
	cfg.Policy = options.Policy{HandleTransferSize: o.Tsize}
	if o.BlockSize > 0 {
		bs := o.BlockSize
		cfg.Policy.BlockSize = &bs
	}
	if o.Timeout > 0 {
		to := o.Timeout
		cfg.Policy.Timeout = &to
		cfg.Timeout = time.Duration(o.Timeout) * time.Second
	}
	return cfg
}

// ErrMissingArg is returned when a positional CLI argument required by
// the reference applications (e.g. a filename) is absent.
func ErrMissingArg(name string) error {
	return fmt.Errorf("config: missing required argument %q", name)
}
