// Package server implements the reference TFTP server application: the
// request-dispatch listener of spec.md section 4.4, root-directory
// confinement, and a file-backed DataSource/DataSink pairing for the
// engine's server-read/server-write operations.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/Joe-Degs/gotftpd/codec"
	"github.com/Joe-Degs/gotftpd/options"
)

// RequestHandler is handed every decoded, mode-valid RRQ/WRQ. Its duty is
// to build a server-read or server-write Operation via the engine's
// factories and Start it, or to send an ERROR through Listener.Refuse if it
// declines the request.
type RequestHandler func(remote *net.UDPAddr, kind codec.Opcode, filename string, mode codec.Mode, known options.Decoded, remaining codec.Options)

// Listener owns the well-known UDP socket (default :69) and dispatches
// inbound RRQ/WRQ datagrams to a registered RequestHandler. It never holds
// per-transfer state: once a request is handed off, the resulting
// Operation owns its own socket and lifecycle independent of the
// Listener.
type Listener struct {
	conn    *net.UDPConn
	handler RequestHandler
	log     Logger
}

// Logger is the minimal logging surface the Listener needs.
type Logger interface {
	Printf(format string, v ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Listen opens the server's well-known UDP socket at addr (host:port, the
// empty host meaning all interfaces) with the platform socket tuning of
// listenConfig (SO_REUSEADDR/SO_PRIORITY where supported).
func Listen(addr string) (*Listener, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: resolve %q: %w", addr, err)
	}
	conn, err := listenConfig().ListenPacket(context.Background(), "udp", addr)
	if err != nil {
		return nil, fmt.Errorf("server: listen %s: %w", udpAddr, err)
	}
	return &Listener{conn: conn.(*net.UDPConn), log: nopLogger{}}, nil
}

// SetLogger installs a diagnostic logger; the default is a no-op.
func (l *Listener) SetLogger(log Logger) { l.log = log }

// Handle registers the single request handler consulted for every
// inbound RRQ/WRQ. Per spec.md section 4.4, if no handler is ever
// registered, all requests are refused with ErrorCode FileNotFound.
func (l *Listener) Handle(h RequestHandler) { l.handler = h }

// Addr returns the address the Listener is bound to.
func (l *Listener) Addr() net.Addr { return l.conn.LocalAddr() }

// Refuse sends an ERROR packet to addr from a fresh transient socket,
// for a RequestHandler that declines a request before any Operation (and
// therefore no locked transfer identifier) exists.
func (l *Listener) Refuse(addr *net.UDPAddr, code codec.ErrorCode, msg string) {
	l.replyError(addr, code, msg)
}

// Close closes the listener's socket, ending Serve.
func (l *Listener) Close() error { return l.conn.Close() }

const maxRequestDatagram = 65535

// Serve reads inbound datagrams until the socket is closed or ctx-like
// cancellation isn't needed: the Listener has no per-transfer state to
// tear down, so Close is the only way to stop it. Serve blocks; run it on
// its own goroutine.
func (l *Listener) Serve() error {
	buf := make([]byte, maxRequestDatagram)
	for {
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		l.dispatch(addr, buf[:n])
	}
}

func (l *Listener) dispatch(addr *net.UDPAddr, raw []byte) {
	pkt, err := codec.Decode(raw)
	if err != nil {
		// malformed datagrams carry no transfer identifier worth
		// replying to; the spec has the listener drop them silently.
		return
	}

	req, ok := pkt.(*codec.ReadWriteRequest)
	if !ok {
		l.replyError(addr, codec.IllegalTftpOperation, fmt.Sprintf("%s not expected here", pkt.Opcode()))
		return
	}

	mode, ok := req.Mode()
	if !ok || mode != codec.Octet {
		l.replyError(addr, codec.IllegalTftpOperation, "wrong transfer mode")
		return
	}

	if l.handler == nil {
		l.replyError(addr, codec.FileNotFound, "no handler registered")
		return
	}

	known := options.Decode(req.Options)
	remaining := req.Options
	for _, name := range []string{options.BlockSizeName, options.TimeoutName, options.TransferSizeName} {
		remaining = remaining.Without(name)
	}

	l.log.Printf("request %s %q from %s", req.Op, req.Filename, addr)
	l.handler(addr, req.Op, req.Filename, mode, known, remaining)
}

// replyError sends an ERROR packet from a fresh, transient socket bound
// to the server's address and port 0, per spec.md section 4.4: such a
// reply establishes its own (new, throwaway) transfer identifier rather
// than reusing the listener's well-known port.
func (l *Listener) replyError(addr *net.UDPAddr, code codec.ErrorCode, msg string) {
	raw, err := codec.Encode(&codec.ErrorPacket{Code: code, Message: msg})
	if err != nil {
		return
	}
	local := &net.UDPAddr{IP: serverIP(l.conn), Port: 0}
	conn, err := net.DialUDP(addr.Network(), local, addr)
	if err != nil {
		l.log.Printf("reply error to %s: %v", addr, err)
		return
	}
	defer conn.Close()
	_, _ = conn.Write(raw)
}

func serverIP(conn *net.UDPConn) net.IP {
	if a, ok := conn.LocalAddr().(*net.UDPAddr); ok && a.IP != nil && !a.IP.IsUnspecified() {
		return a.IP
	}
	return net.IPv4zero
}
