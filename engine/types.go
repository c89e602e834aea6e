// Package engine implements the four TFTP transfer state machines
// (client-read, client-write, server-read, server-write) described in
// RFC 1350/2347/2348/2349: request/option negotiation, lock-step block
// numbering, timeout/retry, the Sorcerer's Apprentice guard, and
// deterministic termination with a TransferStatus.
package engine

import (
	"time"

	"github.com/Joe-Degs/gotftpd/codec"
	"github.com/Joe-Degs/gotftpd/options"
)

// TransferStatus is the terminal outcome of an Operation.
type TransferStatus int

// TransferStatus values.
const (
	Successful TransferStatus = iota
	CommunicationError
	RequestError
	OptionNegotiationError
	TransferError
	Aborted
)

func (s TransferStatus) String() string {
	switch s {
	case Successful:
		return "successful"
	case CommunicationError:
		return "communication error"
	case RequestError:
		return "request error"
	case OptionNegotiationError:
		return "option negotiation error"
	case TransferError:
		return "transfer error"
	case Aborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// ErrorInfo accompanies a failed TransferStatus.
type ErrorInfo struct {
	Code    codec.ErrorCode
	Message string
}

// DataSource is consumed by the send-side operations: client-write and
// server-read.
type DataSource interface {
	// Start is called once before the first SendData.
	Start() error
	// SendData returns up to maxBytes bytes. A return shorter than
	// maxBytes signals end-of-stream.
	SendData(maxBytes int) ([]byte, error)
	// RequestedTransferSize returns the size to propose for tsize
	// negotiation, if known.
	RequestedTransferSize() (uint64, bool)
	// Finished is called exactly once, terminally.
	Finished()
}

// DataSink is consumed by the receive-side operations: client-read and
// server-write.
type DataSink interface {
	// Start is called once before any ReceivedData.
	Start() error
	// ReceivedTransferSize is called when tsize negotiation resolved a
	// size. Returning false vetoes the transfer.
	ReceivedTransferSize(size uint64) bool
	ReceivedData(b []byte) error
	// Finished is called exactly once, terminally.
	Finished()
}

// OptionNegotiationHandler is consulted by client operations in two cases:
// with the options left over after blksize/timeout/tsize are extracted,
// when the server's OACK carries any; and with an empty Options when the
// server replied with DATA/ACK instead of OACK while options were proposed.
// An OACK carrying only blksize/timeout/tsize does not consult it.
// Returning false refuses the transfer.
type OptionNegotiationHandler func(codec.Options) bool

// CompletionHandler is called exactly once per Operation.
type CompletionHandler func(TransferStatus)

// Logger is the minimal logging surface Operation needs; *log.Logger
// satisfies it directly.
type Logger interface {
	Printf(format string, v ...any)
}

// PacketTracer observes every packet an Operation sends or receives,
// labelled "sent" or "received". A nil tracer is a no-op; wiring one in
// is how a --verbose CLI flag gets a field-by-field packet dump instead
// of only the one-line completion log.
type PacketTracer func(direction string, pkt codec.Packet)

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// MetricsSink observes packet and transfer events. A nil sink is a no-op;
// the zero-value *NopMetrics also satisfies it.
type MetricsSink interface {
	PacketSent(op codec.Opcode)
	PacketReceived(op codec.Opcode)
	TransferFinished(status TransferStatus)
}

// NopMetrics is a MetricsSink that does nothing, used when the caller
// wires in no metrics.Sink.
type NopMetrics struct{}

// PacketSent implements MetricsSink.
func (NopMetrics) PacketSent(codec.Opcode) {}

// PacketReceived implements MetricsSink.
func (NopMetrics) PacketReceived(codec.Opcode) {}

// TransferFinished implements MetricsSink.
func (NopMetrics) TransferFinished(TransferStatus) {}

// Configuration holds the knobs shared by every operation created from the
// same factory, per spec.md section 6's configuration table.
type Configuration struct {
	// Timeout is the retry interval used until/unless a timeout option is
	// negotiated. Valid range 1..255 seconds; default 2s.
	Timeout time.Duration
	// Retries is the maximum number of retransmits of the same packet
	// before the operation fails with CommunicationError. Default 1.
	Retries int
	// Dally, if true, makes a client-read or server-write operation wait
	// 2x the timeout after its final ACK to absorb a last retransmit of
	// the peer's final DATA.
	Dally bool
	// Policy governs which options this side proposes (as a requester) or
	// accepts (as a responder).
	Policy options.Policy
	// Metrics, if non-nil, observes packet and completion events. Its
	// absence must not affect correctness.
	Metrics MetricsSink
	// Logger, if non-nil, receives diagnostic lines. Defaults to a no-op.
	Logger Logger
	// Tracer, if non-nil, is called with every packet sent or received.
	Tracer PacketTracer
	// NewCorrelationID, if non-nil, generates a per-operation id used in
	// log lines so concurrent transfers are distinguishable. Defaults to
	// a xid-backed generator (see engine/id.go).
	NewCorrelationID func() string
}

// DefaultConfiguration returns the spec's default Configuration: a 2
// second timeout, 1 retry, no dally, and an empty Policy (a requester
// proposes no options; a responder accepts only a proposed timeout and
// omits blksize and tsize from its OACK).
func DefaultConfiguration() Configuration {
	return Configuration{
		Timeout: 2 * time.Second,
		Retries: 1,
	}
}

func (c Configuration) metrics() MetricsSink {
	if c.Metrics == nil {
		return NopMetrics{}
	}
	return c.Metrics
}

func (c Configuration) logger() Logger {
	if c.Logger == nil {
		return nopLogger{}
	}
	return c.Logger
}

func (c Configuration) trace(direction string, pkt codec.Packet) {
	if c.Tracer != nil {
		c.Tracer(direction, pkt)
	}
}

func (c Configuration) newID() string {
	if c.NewCorrelationID == nil {
		return newCorrelationID()
	}
	return c.NewCorrelationID()
}
