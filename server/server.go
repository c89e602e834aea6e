package server

import (
	"net"
	"os"

	"github.com/Joe-Degs/gotftpd/codec"
	"github.com/Joe-Degs/gotftpd/engine"
	"github.com/Joe-Degs/gotftpd/options"
)

// App is the reference server application: it turns the Listener's
// decoded requests into concrete server-read/server-write Operations
// backed by files under a confined Root, grounded on the teacher's
// server/server.go and server/srvconn.go (there built around a bespoke
// Conn/FileBuffer pair; here the codec/engine packages do that work and
// App only supplies the filesystem glue and policy).
type App struct {
	root   *Root
	cfg    engine.Configuration
	create bool
	l      *Listener
}

// NewApp builds a request handler serving files under root, using cfg
// for every Operation it creates and allowing write requests to create
// new files only when create is true (spec.md section 6's CLI table has
// no such flag upstream of core, but a runnable reference server needs
// one, per SPEC_FULL.md's supplemented-features note).
func NewApp(l *Listener, root *Root, cfg engine.Configuration, create bool) *App {
	return &App{root: root, cfg: cfg, create: create, l: l}
}

// Handler returns the RequestHandler to register with a Listener via
// Listener.Handle.
func (a *App) Handler() RequestHandler {
	return a.handle
}

func (a *App) handle(remote *net.UDPAddr, kind codec.Opcode, filename string, mode codec.Mode, known options.Decoded, remaining codec.Options) {
	path, err := a.root.Resolve(filename)
	if err != nil {
		a.l.Refuse(remote, codec.AccessViolation, "path escapes server root")
		return
	}

	proposed := rebuildProposed(known, remaining)

	switch kind {
	case codec.Rrq:
		a.handleRead(remote, path, proposed)
	case codec.Wrq:
		a.handleWrite(remote, path, proposed)
	}
}

func (a *App) handleRead(remote *net.UDPAddr, path string, proposed codec.Options) {
	src, err := NewFileDataSource(path)
	if err != nil {
		a.l.Refuse(remote, fileErrorCode(err), "could not open file for reading")
		return
	}

	op, err := engine.NewServerRead(a.cfg, remote, path, proposed, src).Build()
	if err != nil {
		a.l.Refuse(remote, codec.NotDefined, err.Error())
		return
	}
	if err := op.Start(); err != nil {
		a.l.Refuse(remote, codec.NotDefined, err.Error())
	}
}

func (a *App) handleWrite(remote *net.UDPAddr, path string, proposed codec.Options) {
	sink, err := NewFileDataSink(path, a.create)
	if err != nil {
		a.l.Refuse(remote, fileErrorCode(err), "could not open file for writing")
		return
	}

	op, err := engine.NewServerWrite(a.cfg, remote, path, proposed, sink).Build()
	if err != nil {
		a.l.Refuse(remote, codec.NotDefined, err.Error())
		return
	}
	if err := op.Start(); err != nil {
		a.l.Refuse(remote, codec.NotDefined, err.Error())
	}
}

func fileErrorCode(err error) codec.ErrorCode {
	switch {
	case os.IsNotExist(err):
		return codec.FileNotFound
	case os.IsPermission(err):
		return codec.AccessViolation
	default:
		return codec.NotDefined
	}
}

// rebuildProposed reassembles the raw options list a server Operation
// negotiates over from the listener's already-split known/remaining
// options. Using IntOption.Raw (rather than re-stringifying Value) keeps
// a malformed known option's original wire text intact, so the engine's
// negotiator still refuses it instead of silently treating it as absent
// or zero.
func rebuildProposed(known options.Decoded, remaining codec.Options) codec.Options {
	var out codec.Options
	for _, f := range []struct {
		name string
		opt  options.IntOption
	}{
		{options.BlockSizeName, known.BlockSize},
		{options.TimeoutName, known.Timeout},
		{options.TransferSizeName, known.TransferSize},
	} {
		if f.opt.Presence != options.NotPresent {
			out = out.With(f.name, f.opt.Raw)
		}
	}
	return append(out, remaining...)
}
