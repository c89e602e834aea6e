package engine

import "github.com/Joe-Degs/gotftpd/codec"

// receiverHandleData implements the generic lock-step DATA handling shared
// by client-read and server-write: an oversized payload is a protocol
// violation, a duplicate of the last accepted block re-acks without
// touching the sink again, an out-of-sequence block fails the transfer, and
// a short payload marks the final block, at which point the operation
// either finishes immediately or enters its dally wait.
func receiverHandleData(o *Operation, p *codec.DataPacket) error {
	if len(p.Data) > o.blockSize {
		return illegalOperation(o, "data block exceeds negotiated block size")
	}

	if o.recvValid && p.Block == o.recvBlock {
		if err := o.send(&codec.AckPacket{Block: p.Block}); err != nil {
			o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
			return nil
		}
		if len(p.Data) < o.blockSize && o.cfg.Dally {
			enterDally(o)
		}
		return nil
	}

	expected := o.recvBlock.Next()
	if p.Block != expected {
		return illegalOperation(o, "unexpected block number in DATA")
	}

	if err := o.sink.ReceivedData(p.Data); err != nil {
		o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
		return nil
	}
	o.recvBlock = p.Block
	o.recvValid = true

	if err := o.send(&codec.AckPacket{Block: p.Block}); err != nil {
		o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
		return nil
	}

	if len(p.Data) < o.blockSize {
		if o.cfg.Dally {
			enterDally(o)
		} else {
			o.finish(Successful, nil)
		}
	}
	return nil
}

// enterDally switches a receive-side operation into its post-transfer
// quiet period: the timeout doubles and another timeout finalizes the
// operation as Successful instead of retransmitting.
func enterDally(o *Operation) {
	if o.dallying {
		return
	}
	o.dallying = true
	o.onTimeout = dallyOnTimeout
}
