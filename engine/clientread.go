package engine

import (
	"time"

	"github.com/Joe-Degs/gotftpd/codec"
	"github.com/Joe-Degs/gotftpd/options"
)

// wireClientRead drives a RRQ: send the request, expect either an OACK (if
// options were proposed) or DATA block 1 directly, then receive blocks in
// lock-step until a short block ends the transfer.
func wireClientRead(o *Operation, proposed codec.Options) {
	o.proposed = proposed

	o.sendFirst = func(o *Operation) {
		req := &codec.ReadWriteRequest{Op: codec.Rrq, Filename: o.filename, RawMode: o.rawMode, Options: proposed}
		if err := o.send(req); err != nil {
			o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
		}
	}
	o.onTimeout = defaultOnTimeout
	o.onPacket = clientReadOnPacket
}

func clientReadOnPacket(o *Operation, pkt codec.Packet) error {
	switch p := pkt.(type) {
	case *codec.OAckPacket:
		negotiated, err := options.ValidateResponse(o.proposed, p.Options, true, nil, o.optionHandler)
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
		if ts := negotiated.TransferSize; ts.Presence == options.Decoded {
			if o.sink != nil && !o.sink.ReceivedTransferSize(uint64(ts.Value)) {
				msg := "transfer size refused"
				o.sendError(codec.DiskFullOrAllocationExceeds, msg)
				o.finish(TransferError, &ErrorInfo{Code: codec.DiskFullOrAllocationExceeds, Message: msg})
				return nil
			}
		}
		o.optionsResolved = true
		if err := o.send(&codec.AckPacket{Block: 0}); err != nil {
			o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
		}
		return nil

	case *codec.DataPacket:
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
		return receiverHandleData(o, p)

	case *codec.ErrorPacket:
		o.finish(RequestError, &ErrorInfo{Code: p.Code, Message: p.Message})
		return nil

	default:
		return illegalOperation(o, "unexpected packet in client-read")
	}
}
