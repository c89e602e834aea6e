package engine

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/Joe-Degs/gotftpd/codec"
)

// maxDatagram is large enough for the maximum legal blksize (65464) plus
// the DATA header, and for the maximum UDP payload in general.
const maxDatagram = 65535

const defaultBlockSize = 512

// role names the four concrete state machines an Operation can drive.
type role int

const (
	roleClientRead role = iota
	roleClientWrite
	roleServerRead
	roleServerWrite
)

// packetHandler is the role-specific logic invoked for each packet
// received from the locked peer. A non-nil error means the operation has
// already finished (the handler itself calls o.finish before returning
// one); the run loop ignores the value and checks isFinished instead.
type packetHandler func(o *Operation, pkt codec.Packet) error

// Operation is a single TFTP transfer: a small state machine that owns a
// UDP socket, a retry timer (modeled as a read deadline), a retransmit
// buffer and a receive buffer. Exactly one of client-read, client-write,
// server-read or server-write logic drives it, selected at construction.
type Operation struct {
	role role
	cfg  Configuration

	conn         *net.UDPConn
	local        *net.UDPAddr
	remote       *net.UDPAddr
	remoteLocked bool

	filename string
	rawMode  string

	source DataSource
	sink   DataSink
	optionHandler OptionNegotiationHandler

	blockSize int
	timeout   time.Duration
	attempts  int
	lastSent  []byte
	dallying  bool

	sendBlock        codec.Block // last DATA block number transmitted (sender roles)
	recvBlock        codec.Block // last block number fully processed (both directions)
	recvValid        bool        // whether recvBlock holds a real value yet (both directions)
	lastSentWasFinal bool        // whether the last DATA sent was short (sender roles)
	optionsResolved  bool        // whether option negotiation has concluded

	proposed      codec.Options // options this side proposed (client) or the peer proposed (server)
	proposedWrite *uint64       // size this side proposed via tsize on a write (client-write only)

	onPacket  packetHandler
	onTimeout func(o *Operation)
	sendFirst func(o *Operation)

	startOnce    sync.Once
	finishOnce   sync.Once
	done         chan struct{}
	status       TransferStatus
	errInfo      *ErrorInfo
	onComplete   CompletionHandler

	id  string
	log Logger
}

func newOperation(r role, cfg Configuration) *Operation {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfiguration().Timeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = DefaultConfiguration().Retries
	}
	return &Operation{
		role:      r,
		cfg:       cfg,
		blockSize: defaultBlockSize,
		timeout:   cfg.Timeout,
		done:      make(chan struct{}),
		id:        cfg.newID(),
		log:       cfg.logger(),
	}
}

// Start arms the operation: it sends the first packet (or, for a server
// operation with no negotiated options, the first DATA/ACK) and begins
// driving the state machine on a dedicated goroutine. Start is
// non-blocking and must be called exactly once.
func (o *Operation) Start() error {
	var startErr error
	o.startOnce.Do(func() {
		if o.source != nil {
			if err := o.source.Start(); err != nil {
				startErr = err
				o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
				return
			}
		}
		if o.sink != nil {
			if err := o.sink.Start(); err != nil {
				startErr = err
				o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
				return
			}
		}
		o.sendFirst(o)
		if o.isFinished() {
			return
		}
		go o.run()
	})
	return startErr
}

// Abort terminates the operation immediately without sending an ERROR
// packet.
func (o *Operation) Abort() {
	o.finish(Aborted, nil)
}

// GracefulAbort sends an ERROR packet to the peer (only if at least one
// packet has already been received from it; otherwise the ERROR is
// suppressed, per spec.md's resolution of that Open Question) and then
// terminates.
func (o *Operation) GracefulAbort(code codec.ErrorCode, msg string) {
	if o.remoteLocked {
		o.sendError(code, msg)
	}
	o.finish(Aborted, &ErrorInfo{Code: code, Message: msg})
}

// ErrorInfo returns the detail attached to a failed completion. It is only
// meaningful after the completion handler has run.
func (o *Operation) ErrorInfo() *ErrorInfo {
	return o.errInfo
}

// Status returns the terminal TransferStatus. It is only meaningful after
// the completion handler has run.
func (o *Operation) Status() TransferStatus {
	return o.status
}

// ID returns the operation's correlation id, used to tell concurrent
// transfers apart in logs.
func (o *Operation) ID() string { return o.id }

// Wait blocks until the operation finishes, then returns its terminal
// status and error detail, for a caller (a synchronous CLI client, a
// test) that has no use for OnComplete's callback style.
func (o *Operation) Wait() (TransferStatus, *ErrorInfo) {
	<-o.done
	return o.status, o.errInfo
}

func (o *Operation) finish(status TransferStatus, info *ErrorInfo) {
	o.finishOnce.Do(func() {
		o.status = status
		o.errInfo = info
		o.conn.Close()
		if o.source != nil {
			o.source.Finished()
		}
		if o.sink != nil {
			o.sink.Finished()
		}
		o.cfg.metrics().TransferFinished(status)
		o.log.Printf("[%s] finished: %s", o.id, status)
		if o.onComplete != nil {
			o.onComplete(status)
		}
		close(o.done)
	})
}

func (o *Operation) isFinished() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}

// currentDeadline returns the duration to arm the next receive with:
// 2x the negotiated/default timeout while dallying, else the timeout
// itself.
func (o *Operation) currentDeadline() time.Duration {
	if o.dallying {
		return 2 * o.timeout
	}
	return o.timeout
}

func (o *Operation) run() {
	buf := make([]byte, maxDatagram)
	for {
		if o.isFinished() {
			return
		}

		if err := o.conn.SetReadDeadline(time.Now().Add(o.currentDeadline())); err != nil {
			o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
			return
		}

		n, addr, err := o.conn.ReadFromUDP(buf)
		if err != nil {
			if o.isFinished() || errors.Is(err, net.ErrClosed) {
				return
			}
			if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
				o.onTimeout(o)
				continue
			}
			o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
			return
		}

		pkt, decErr := codec.Decode(buf[:n])
		if decErr != nil {
			// malformed datagrams are silently dropped; the peer will
			// retransmit or the retry budget will eventually expire.
			continue
		}

		if o.remoteLocked && !addrEqual(addr, o.remote) {
			o.replyUnknownTID(addr)
			continue
		}
		if !o.remoteLocked {
			o.remote = addr
			o.remoteLocked = true
		}

		o.cfg.metrics().PacketReceived(pkt.Opcode())
		o.cfg.trace("received", pkt)
		_ = o.onPacket(o, pkt)
		if o.isFinished() {
			return
		}
	}
}

func addrEqual(a, b *net.UDPAddr) bool {
	return a.IP.Equal(b.IP) && a.Port == b.Port
}

// send transmits pkt as a fresh (non-retransmit) packet: it resets the
// retry budget and remembers the raw bytes for retransmission.
func (o *Operation) send(pkt codec.Packet) error {
	raw, err := codec.Encode(pkt)
	if err != nil {
		return err
	}
	if _, err := o.conn.WriteToUDP(raw, o.remote); err != nil {
		return err
	}
	o.lastSent = raw
	o.attempts = 1
	o.cfg.metrics().PacketSent(pkt.Opcode())
	o.cfg.trace("sent", pkt)
	return nil
}

// retransmit resends the last packet without resetting the retry budget.
func (o *Operation) retransmit() error {
	if o.lastSent == nil {
		return fmt.Errorf("engine: no packet to retransmit")
	}
	if _, err := o.conn.WriteToUDP(o.lastSent, o.remote); err != nil {
		return err
	}
	return nil
}

func (o *Operation) sendError(code codec.ErrorCode, msg string) {
	raw, err := codec.Encode(&codec.ErrorPacket{Code: code, Message: msg})
	if err != nil {
		return
	}
	if o.remote != nil {
		_, _ = o.conn.WriteToUDP(raw, o.remote)
	}
}

func (o *Operation) replyUnknownTID(addr *net.UDPAddr) {
	raw, err := codec.Encode(&codec.ErrorPacket{
		Code:    codec.UnknownTransferID,
		Message: "Packet from wrong source",
	})
	if err != nil {
		return
	}
	_, _ = o.conn.WriteToUDP(raw, addr)
}

// defaultOnTimeout implements the shared timeout/retry contract of
// spec.md section 4.3: attempts counts total transmissions sent so far
// (the initial send counts as attempt 1); a timeout retransmits while
// attempts < Retries+1, else the operation fails.
func defaultOnTimeout(o *Operation) {
	if o.attempts < o.cfg.Retries+1 {
		if err := o.retransmit(); err != nil {
			o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
			return
		}
		o.attempts++
		return
	}
	o.finish(CommunicationError, &ErrorInfo{Message: "retry budget exhausted"})
}

// dallyOnTimeout finalizes a dallying operation as Successful once the
// dally window elapses without another retransmit from the peer.
func dallyOnTimeout(o *Operation) {
	o.finish(Successful, nil)
}

func illegalOperation(o *Operation, msg string) error {
	o.sendError(codec.IllegalTftpOperation, msg)
	o.finish(TransferError, &ErrorInfo{Code: codec.IllegalTftpOperation, Message: msg})
	return errFinished
}

var errFinished = errors.New("engine: operation finished")
