package engine

import (
	"time"

	"github.com/Joe-Degs/gotftpd/codec"
	"github.com/Joe-Degs/gotftpd/options"
)

// wireClientWrite drives a WRQ: send the request, expect either an OACK or
// ACK block 0 directly, then send blocks in lock-step until a short block
// is acked.
func wireClientWrite(o *Operation, proposed codec.Options) {
	o.proposed = proposed
	if decoded := options.Decode(proposed); decoded.TransferSize.Presence == options.Decoded {
		v := uint64(decoded.TransferSize.Value)
		o.proposedWrite = &v
	}

	o.sendFirst = func(o *Operation) {
		req := &codec.ReadWriteRequest{Op: codec.Wrq, Filename: o.filename, RawMode: o.rawMode, Options: proposed}
		if err := o.send(req); err != nil {
			o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
		}
	}
	o.onTimeout = defaultOnTimeout
	o.onPacket = clientWriteOnPacket
}

func clientWriteOnPacket(o *Operation, pkt codec.Packet) error {
	switch p := pkt.(type) {
	case *codec.OAckPacket:
		negotiated, err := options.ValidateResponse(o.proposed, p.Options, true, o.proposedWrite, o.optionHandler)
		if err != nil {
			msg := err.Error()
			o.sendError(codec.TftpOptionRefused, msg)
			o.finish(OptionNegotiationError, &ErrorInfo{Code: codec.TftpOptionRefused, Message: msg})
			return nil
		}
		if bs := negotiated.BlockSize.IntPtr(); bs != nil {
			o.blockSize = *bs
		}
		if t := negotiated.Timeout; t.Presence == options.Decoded {
			o.timeout = time.Duration(t.Value) * time.Second
		}
		o.optionsResolved = true
		o.recvBlock = 0
		o.recvValid = true
		sendNextBlock(o)
		return nil

	case *codec.AckPacket:
		if !o.optionsResolved {
			if len(o.proposed) > 0 {
				if o.optionHandler != nil && !o.optionHandler(codec.Options{}) {
					msg := "options refused by application"
					o.sendError(codec.TftpOptionRefused, msg)
					o.finish(OptionNegotiationError, &ErrorInfo{Code: codec.TftpOptionRefused, Message: msg})
					return nil
				}
			}
			o.optionsResolved = true
		}
		return senderHandleAck(o, p)

	case *codec.ErrorPacket:
		o.finish(RequestError, &ErrorInfo{Code: p.Code, Message: p.Message})
		return nil

	default:
		return illegalOperation(o, "unexpected packet in client-write")
	}
}
