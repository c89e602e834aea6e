// Package dit is the public contract surface of spec.md section 4.5: the
// Configuration and OptionsPolicy value types, the DataSource/DataSink/
// option-negotiation-handler interfaces, and the four operation
// factories (client-read, client-write, server-read, server-write).
//
// The heavy lifting — the wire codec, option negotiation, and the
// transfer state machines themselves — lives in the codec, options and
// engine packages, the way the teacher split its own protocol logic out
// of its root dit package. This file is the friendly front door: most
// callers need only import "github.com/Joe-Degs/gotftpd" and never touch
// the subpackages directly.
package dit

import (
	"net"

	"github.com/Joe-Degs/gotftpd/codec"
	"github.com/Joe-Degs/gotftpd/engine"
	"github.com/Joe-Degs/gotftpd/options"
)

// Configuration holds the knobs shared by every Operation created from
// the same factory: retry timeout and budget, dally, and the options
// policy. See engine.Configuration for field documentation.
type Configuration = engine.Configuration

// DefaultConfiguration returns the spec's default Configuration: a 2
// second timeout, 1 retry, no dally, and an empty OptionsPolicy (a
// requester proposes no options; a responder accepts only a proposed
// timeout).
func DefaultConfiguration() Configuration { return engine.DefaultConfiguration() }

// OptionsPolicy governs which options a Configuration's owner proposes
// (as a requester) or accepts (as a responder).
type OptionsPolicy = options.Policy

// Mode is a TFTP transfer mode; only Octet is supported end to end.
type Mode = codec.Mode

// Mode constants.
const (
	Octet    = codec.Octet
	Netascii = codec.Netascii
	Mail     = codec.Mail
)

// ErrorCode is a TFTP error code as specified in RFC 1350 appendix I and
// RFC 2347.
type ErrorCode = codec.ErrorCode

// ErrorCode constants.
const (
	NotDefined                 = codec.NotDefined
	FileNotFound               = codec.FileNotFound
	AccessViolation            = codec.AccessViolation
	DiskFullOrAllocationExceeds = codec.DiskFullOrAllocationExceeds
	IllegalTftpOperation       = codec.IllegalTftpOperation
	UnknownTransferID          = codec.UnknownTransferID
	FileAlreadyExists          = codec.FileAlreadyExists
	NoSuchUser                 = codec.NoSuchUser
	TftpOptionRefused          = codec.TftpOptionRefused
)

// TransferStatus is the terminal outcome of an Operation.
type TransferStatus = engine.TransferStatus

// TransferStatus values.
const (
	Successful             = engine.Successful
	CommunicationError     = engine.CommunicationError
	RequestError           = engine.RequestError
	OptionNegotiationError = engine.OptionNegotiationError
	TransferError          = engine.TransferError
	Aborted                = engine.Aborted
)

// ErrorInfo accompanies a failed TransferStatus.
type ErrorInfo = engine.ErrorInfo

// DataSource is consumed by the send-side operations: client-write and
// server-read.
type DataSource = engine.DataSource

// DataSink is consumed by the receive-side operations: client-read and
// server-write.
type DataSink = engine.DataSink

// OptionNegotiationHandler is consulted by client operations with the
// unknown options of the server's OACK, or with an empty Options when the
// server ignored the proposed options; see engine.OptionNegotiationHandler.
type OptionNegotiationHandler = engine.OptionNegotiationHandler

// CompletionHandler is called exactly once per Operation.
type CompletionHandler = engine.CompletionHandler

// MetricsSink observes packet and transfer events, the process-wide
// mutable state spec.md section 6 names; a nil sink (the zero value of
// an embedding Configuration) is a no-op.
type MetricsSink = engine.MetricsSink

// Logger is the minimal logging surface an Operation needs.
type Logger = engine.Logger

// Operation is a single TFTP transfer, produced unstarted by Builder.Build
// and run with Start.
type Operation = engine.Operation

// Builder is the fluent, builder-style configuration surface returned by
// the four factories below: set Filename/Mode/Remote/DataSource|Sink and any
// overrides, then call Build to open the transfer's socket and Start to
// send the first packet.
type Builder = engine.Builder

// NewClientRead constructs a client-read (RRQ) operation builder.
func NewClientRead(cfg Configuration) *Builder { return engine.NewClientRead(cfg) }

// NewClientWrite constructs a client-write (WRQ) operation builder.
func NewClientWrite(cfg Configuration) *Builder { return engine.NewClientWrite(cfg) }

// NewServerRead constructs a server-read operation builder: the server's
// response to an inbound RRQ, as already decoded by a server.Listener.
func NewServerRead(cfg Configuration, remote *net.UDPAddr, filename string, proposed codec.Options, source DataSource) *Builder {
	return engine.NewServerRead(cfg, remote, filename, proposed, source)
}

// NewServerWrite constructs a server-write operation builder: the
// server's response to an inbound WRQ.
func NewServerWrite(cfg Configuration, remote *net.UDPAddr, filename string, proposed codec.Options, sink DataSink) *Builder {
	return engine.NewServerWrite(cfg, remote, filename, proposed, sink)
}
