package engine

import (
	"fmt"
	"net"
	"time"

	"github.com/Joe-Degs/gotftpd/codec"
	"github.com/Joe-Degs/gotftpd/options"
)

// Builder is the fluent, builder-style configuration surface of
// spec.md section 4.5: timeout, retries, dally, options policy, extra raw
// options, a data handler, filename, mode, remote and an optional local
// address. A Builder is produced by one of the four role constructors and
// consumed by Build, which opens the transfer's socket but does not start
// it.
type Builder struct {
	role role
	cfg  Configuration

	filename string
	mode     codec.Mode

	remote *net.UDPAddr
	local  *net.UDPAddr

	source DataSource
	sink   DataSink

	optionHandler OptionNegotiationHandler
	onComplete    CompletionHandler

	extraOptions codec.Options

	// server-role only: the request this Operation was created to serve.
	serverProposed codec.Options

	err error
}

func newBuilder(r role, cfg Configuration) *Builder {
	return &Builder{role: r, cfg: cfg, mode: codec.Octet}
}

// Timeout overrides the configured retry timeout.
func (b *Builder) Timeout(d time.Duration) *Builder { b.cfg.Timeout = d; return b }

// Retries overrides the configured retry budget.
func (b *Builder) Retries(n int) *Builder { b.cfg.Retries = n; return b }

// Dally enables or disables the post-transfer dally wait.
func (b *Builder) Dally(v bool) *Builder { b.cfg.Dally = v; return b }

// OptionsPolicy overrides the configured option policy.
func (b *Builder) OptionsPolicy(p options.Policy) *Builder { b.cfg.Policy = p; return b }

// ExtraOptions appends additional raw options to whatever the policy
// proposes, so a custom negotiation handler can see them echoed in the
// OACK. Only client roles use them; server roles ignore them.
func (b *Builder) ExtraOptions(o codec.Options) *Builder { b.extraOptions = o; return b }

// DataSource sets the send-side data handler (client-write, server-read).
func (b *Builder) DataSource(s DataSource) *Builder { b.source = s; return b }

// DataSink sets the receive-side data handler (client-read, server-write).
func (b *Builder) DataSink(s DataSink) *Builder { b.sink = s; return b }

// Filename sets the file name carried on the RRQ/WRQ (client roles only;
// server roles are constructed already knowing the filename from the
// inbound request).
func (b *Builder) Filename(name string) *Builder { b.filename = name; return b }

// Mode sets the transfer mode carried on the RRQ/WRQ. Only Octet is
// supported end to end; client roles reject anything else at Build time.
func (b *Builder) Mode(m codec.Mode) *Builder { b.mode = m; return b }

// Remote sets the peer address: the server's well-known endpoint for a
// client operation, or the requesting client's endpoint for a server
// operation.
func (b *Builder) Remote(addr *net.UDPAddr) *Builder { b.remote = addr; return b }

// Local optionally pins the local address the transfer's socket binds to.
func (b *Builder) Local(addr *net.UDPAddr) *Builder { b.local = addr; return b }

// OptionNegotiationHandler installs the client-side hook consulted with an
// OACK's unknown options, or with an empty Options when the server answers
// without an OACK.
func (b *Builder) OptionNegotiationHandler(h OptionNegotiationHandler) *Builder {
	b.optionHandler = h
	return b
}

// OnComplete installs the completion handler, called exactly once.
func (b *Builder) OnComplete(h CompletionHandler) *Builder { b.onComplete = h; return b }

// Metrics overrides the configured metrics sink.
func (b *Builder) Metrics(m MetricsSink) *Builder { b.cfg.Metrics = m; return b }

// Logger overrides the configured logger.
func (b *Builder) Logger(l Logger) *Builder { b.cfg.Logger = l; return b }

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Build validates the builder, opens the transfer's UDP socket and wires
// the role-specific state machine, but does not send anything: call
// Start on the result to do that.
func (b *Builder) Build() (*Operation, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.remote == nil {
		return nil, fmt.Errorf("engine: remote address is required")
	}
	if (b.role == roleClientRead || b.role == roleClientWrite) && b.mode != codec.Octet {
		return nil, fmt.Errorf("engine: unsupported transfer mode %s", b.mode)
	}

	o := newOperation(b.role, b.cfg)
	o.source = b.source
	o.sink = b.sink
	o.optionHandler = b.optionHandler
	o.onComplete = b.onComplete
	o.filename = b.filename
	o.rawMode = b.mode.String()

	network := "udp4"
	if b.remote.IP.To4() == nil {
		network = "udp6"
	}

	var localAddr *net.UDPAddr
	if b.local != nil {
		localAddr = b.local
	} else {
		localAddr = &net.UDPAddr{IP: net.IPv4zero, Port: 0}
		if network == "udp6" {
			localAddr = &net.UDPAddr{IP: net.IPv6zero, Port: 0}
		}
	}

	conn, err := net.ListenUDP(network, localAddr)
	if err != nil {
		return nil, fmt.Errorf("engine: open socket: %w", err)
	}
	o.conn = conn
	o.local = conn.LocalAddr().(*net.UDPAddr)
	o.remote = b.remote

	switch b.role {
	case roleServerRead, roleServerWrite:
		// The server already knows its peer from the inbound RRQ/WRQ.
		o.remoteLocked = true
		o.proposed = b.serverProposed
		if b.role == roleServerRead {
			wireServerRead(o)
		} else {
			wireServerWrite(o)
		}
	case roleClientRead:
		wireClientRead(o, buildProposed(b))
	case roleClientWrite:
		wireClientWrite(o, buildProposed(b))
	}

	return o, nil
}

func buildProposed(b *Builder) codec.Options {
	var sourceSize *uint64
	if b.role == roleClientWrite && b.source != nil {
		if sz, ok := b.source.RequestedTransferSize(); ok {
			sourceSize = &sz
		}
	}
	proposed := options.ProposeRequest(b.cfg.Policy, b.role == roleClientWrite, sourceSize)
	for _, o := range b.extraOptions {
		proposed = proposed.With(o.Name, o.Value)
	}
	return proposed
}

// NewClientRead constructs a client-read (RRQ) operation builder.
func NewClientRead(cfg Configuration) *Builder {
	return newBuilder(roleClientRead, cfg)
}

// NewClientWrite constructs a client-write (WRQ) operation builder.
func NewClientWrite(cfg Configuration) *Builder {
	return newBuilder(roleClientWrite, cfg)
}

// NewServerRead constructs a server-read operation builder: the server's
// response to an inbound RRQ. remote, filename and proposed come from the
// request decoded by the listener.
func NewServerRead(cfg Configuration, remote *net.UDPAddr, filename string, proposed codec.Options, source DataSource) *Builder {
	b := newBuilder(roleServerRead, cfg)
	b.remote = remote
	b.filename = filename
	b.serverProposed = proposed
	b.source = source
	return b
}

// NewServerWrite constructs a server-write operation builder: the
// server's response to an inbound WRQ.
func NewServerWrite(cfg Configuration, remote *net.UDPAddr, filename string, proposed codec.Options, sink DataSink) *Builder {
	b := newBuilder(roleServerWrite, cfg)
	b.remote = remote
	b.filename = filename
	b.serverProposed = proposed
	b.sink = sink
	return b
}
