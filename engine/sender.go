package engine

import "github.com/Joe-Degs/gotftpd/codec"

// sendNextBlock pulls the next chunk from the DataSource, transmits it as
// the block following o.sendBlock, and remembers whether it was short (the
// final block of the transfer). It is shared by client-write and
// server-read, the two roles that drive the DATA side of the lock-step.
func sendNextBlock(o *Operation) {
	buf, err := o.source.SendData(o.blockSize)
	if err != nil {
		o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
		return
	}
	next := o.sendBlock.Next()
	if err := o.send(&codec.DataPacket{Block: next, Data: buf}); err != nil {
		o.finish(CommunicationError, &ErrorInfo{Message: err.Error()})
		return
	}
	o.sendBlock = next
	o.lastSentWasFinal = len(buf) < o.blockSize
}

// senderHandleAck implements the generic lock-step ACK handling shared by
// client-write and server-read: the Sorcerer's Apprentice guard against a
// duplicate ACK, rejection of an ACK for a block that was never sent, and
// advancing to the next block (or finishing) on a legitimate ACK.
func senderHandleAck(o *Operation, p *codec.AckPacket) error {
	if o.recvValid && p.Block == o.recvBlock {
		// Duplicate of the last ACK already acted on: the peer's ACK was
		// probably lost and it is retransmitting the request/DATA that
		// preceded it. Ignore; do not resend data, per RFC 1350's note on
		// the Sorcerer's Apprentice Syndrome.
		return nil
	}
	if p.Block != o.sendBlock {
		return illegalOperation(o, "unexpected block number in ACK")
	}
	o.recvBlock = p.Block
	o.recvValid = true
	if o.lastSentWasFinal {
		o.finish(Successful, nil)
		return nil
	}
	sendNextBlock(o)
	return nil
}
