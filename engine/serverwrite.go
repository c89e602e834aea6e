package engine

import (
	"time"

	"github.com/Joe-Degs/gotftpd/codec"
	"github.com/Joe-Degs/gotftpd/options"
)

// wireServerWrite drives the server's response to an inbound WRQ: negotiate
// options against the server's own Policy, send either an OACK or ACK block
// 0 directly, then receive blocks in lock-step. Dally applies here: the
// server is the final ACK sender.
func wireServerWrite(o *Operation) {
	resp, err := options.NegotiateResponder(o.proposed, o.cfg.Policy, true, 0)
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

	decoded := options.Decode(o.proposed)
	if decoded.TransferSize.Presence == options.Decoded {
		if o.sink != nil && !o.sink.ReceivedTransferSize(uint64(decoded.TransferSize.Value)) {
			msg := "transfer size refused"
			o.sendFirst = func(o *Operation) {
				o.sendError(codec.DiskFullOrAllocationExceeds, msg)
				o.finish(TransferError, &ErrorInfo{Code: codec.DiskFullOrAllocationExceeds, Message: msg})
			}
			o.onTimeout = defaultOnTimeout
			o.onPacket = func(o *Operation, pkt codec.Packet) error { return nil }
			return
		}
	}

	o.sendFirst = func(o *Operation) {
		if len(resp) > 0 {
			respDecoded := options.Decode(resp)
			if bs := respDecoded.BlockSize.IntPtr(); bs != nil {
				o.blockSize = *bs
			}
			if respDecoded.Timeout.Presence == options.Decoded {
				o.timeout = time.Duration(respDecoded.Timeout.Value) * time.Second
			}
			if err := o.send(&codec.OAckPacket{Options: resp}); err != nil {
				o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
			}
			return
		}
		o.optionsResolved = true
		if err := o.send(&codec.AckPacket{Block: 0}); err != nil {
			o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
		}
	}
	o.onTimeout = defaultOnTimeout
	o.onPacket = serverWriteOnPacket
}

func serverWriteOnPacket(o *Operation, pkt codec.Packet) error {
	switch p := pkt.(type) {
	case *codec.DataPacket:
		if !o.optionsResolved {
			o.optionsResolved = true
		}
		return receiverHandleData(o, p)

	case *codec.ErrorPacket:
		o.finish(RequestError, &ErrorInfo{Code: p.Code, Message: p.Message})
		return nil

	default:
		return illegalOperation(o, "unexpected packet in server-write")
	}
}
