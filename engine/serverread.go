package engine

import (
	"time"

	"github.com/Joe-Degs/gotftpd/codec"
	"github.com/Joe-Degs/gotftpd/options"
)

// wireServerRead drives the server's response to an inbound RRQ: negotiate
// options against the server's own Policy, send either an OACK (waiting for
// the client's ACK block 0) or DATA block 1 directly, then send blocks in
// lock-step.
func wireServerRead(o *Operation) {
	var actualSize uint64
	if o.source != nil {
		if sz, ok := o.source.RequestedTransferSize(); ok {
			actualSize = sz
		}
	}

	resp, err := options.NegotiateResponder(o.proposed, o.cfg.Policy, false, actualSize)
	if err != nil {
		msg := err.Error()
		o.sendFirst = func(o *Operation) {
			o.sendError(codec.TftpOptionRefused, msg)
			o.finish(OptionNegotiationError, &ErrorInfo{Code: codec.TftpOptionRefused, Message: msg})
		}
		o.onTimeout = defaultOnTimeout
		o.onPacket = func(o *Operation, pkt codec.Packet) error { return nil }
		return
	}

	o.sendFirst = func(o *Operation) {
		if len(resp) > 0 {
			decoded := options.Decode(resp)
			if bs := decoded.BlockSize.IntPtr(); bs != nil {
				o.blockSize = *bs
			}
			if decoded.Timeout.Presence == options.Decoded {
				o.timeout = time.Duration(decoded.Timeout.Value) * time.Second
			}
			if err := o.send(&codec.OAckPacket{Options: resp}); err != nil {
				o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
			}
			return
		}
		o.optionsResolved = true
		o.recvBlock = 0
		o.recvValid = true
		sendNextBlock(o)
	}
	o.onTimeout = defaultOnTimeout
	o.onPacket = serverReadOnPacket
}

func serverReadOnPacket(o *Operation, pkt codec.Packet) error {
	switch p := pkt.(type) {
	case *codec.AckPacket:
		if !o.optionsResolved {
			o.optionsResolved = true
		}
		return senderHandleAck(o, p)

	case *codec.ErrorPacket:
		o.finish(RequestError, &ErrorInfo{Code: p.Code, Message: p.Message})
		return nil

	default:
		return illegalOperation(o, "unexpected packet in server-read")
	}
}
