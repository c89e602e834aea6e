// Package options implements the pure option-negotiation rules of
// RFC 2347 (options extension), RFC 2348 (block size) and RFC 2349
// (timeout interval, transfer size). It never touches a socket: it only
// parses codec.Options lists and decides what a requester should propose
// or what a responder should echo back.
package options

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Joe-Degs/gotftpd/codec"
)

// Known option names as they appear on the wire.
const (
	BlockSizeName    = "blksize"
	TimeoutName      = "timeout"
	TransferSizeName = "tsize"
)

// Presence distinguishes an absent option from one that was present but
// failed to parse, per spec: these two outcomes must be told apart by the
// caller.
type Presence int

// Presence values.
const (
	NotPresent Presence = iota
	Decoded
	Malformed
)

// IntOption is the decode result of a single known integer-valued option.
type IntOption struct {
	Presence Presence
	Value    int64
	// Raw is the option's literal wire text, kept regardless of whether
	// it parsed, so a caller that only has the Decoded triple (not the
	// original codec.Options) can still reconstruct the proposal exactly
	// or report the offending text in a refusal message.
	Raw string
}

// IntPtr returns &int(Value) if the option decoded successfully, else nil.
func (f IntOption) IntPtr() *int {
	if f.Presence != Decoded {
		return nil
	}
	v := int(f.Value)
	return &v
}

func decodeIntOption(opts codec.Options, name string, lo, hi int64) IntOption {
	raw, ok := opts.Get(name)
	if !ok {
		return IntOption{Presence: NotPresent}
	}
	if raw == "" {
		return IntOption{Presence: Malformed, Raw: raw}
	}
	for _, c := range raw {
		if c < '0' || c > '9' {
			return IntOption{Presence: Malformed, Raw: raw}
		}
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < lo || v > hi {
		return IntOption{Presence: Malformed, Raw: raw}
	}
	return IntOption{Presence: Decoded, Value: v, Raw: raw}
}

// Decoded holds the three known options, each independently decoded.
type Decoded struct {
	BlockSize    IntOption
	Timeout      IntOption
	TransferSize IntOption
}

// Decode parses the three known options out of a raw option list. Unknown
// options are left for the caller to inspect via codec.Options directly.
func Decode(opts codec.Options) Decoded {
	return Decoded{
		BlockSize:    decodeIntOption(opts, BlockSizeName, 8, 65464),
		Timeout:      decodeIntOption(opts, TimeoutName, 1, 255),
		TransferSize: decodeIntOption(opts, TransferSizeName, 0, math.MaxInt64),
	}
}

// Policy mirrors the Configuration knobs table: the same field means "the
// value to propose" when held by a requester (client) and "the maximum or
// only accepted value" when held by a responder (server). A nil field
// means the option is never proposed, or never restricted/accepted.
type Policy struct {
	BlockSize          *int
	Timeout            *int
	HandleTransferSize bool
}

// ErrOptionRefused classifies a negotiation failure. Callers map it to
// TftpOptionRefused / OptionNegotiationError.
var ErrOptionRefused = errors.New("options: refused")

func refusedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrOptionRefused, fmt.Sprintf(format, args...))
}

// ProposeRequest builds the option list a requester sends with its
// RRQ/WRQ, from its own Policy. For a read transfer, tsize (when enabled)
// is proposed as "0" to ask the responder for the real size; for a write,
// it is the source's reported size, omitted if unknown.
func ProposeRequest(policy Policy, isWrite bool, sourceSize *uint64) codec.Options {
	var opts codec.Options
	if policy.BlockSize != nil {
		opts = opts.With(BlockSizeName, strconv.Itoa(*policy.BlockSize))
	}
	if policy.Timeout != nil {
		opts = opts.With(TimeoutName, strconv.Itoa(*policy.Timeout))
	}
	if policy.HandleTransferSize {
		if isWrite {
			if sourceSize != nil {
				opts = opts.With(TransferSizeName, strconv.FormatUint(*sourceSize, 10))
			}
		} else {
			opts = opts.With(TransferSizeName, "0")
		}
	}
	return opts
}

// NegotiateResponder computes the OACK option list a responder sends back,
// given what was proposed and the responder's own Policy. The responder
// never invents an option that was not proposed. actualSize is the real
// transfer size to echo for a read with tsize requested; it is ignored
// otherwise.
func NegotiateResponder(proposed codec.Options, policy Policy, isWrite bool, actualSize uint64) (codec.Options, error) {
	decoded := Decode(proposed)
	var resp codec.Options

	if raw, ok := proposed.Get(BlockSizeName); ok {
		if decoded.BlockSize.Presence == Malformed {
			return nil, refusedf("blksize value %q out of range", raw)
		}
		if policy.BlockSize != nil {
			accepted := decoded.BlockSize.Value
			if int64(*policy.BlockSize) < accepted {
				accepted = int64(*policy.BlockSize)
			}
			resp = resp.With(BlockSizeName, strconv.FormatInt(accepted, 10))
		}
	}

	if raw, ok := proposed.Get(TimeoutName); ok {
		if decoded.Timeout.Presence == Malformed {
			return nil, refusedf("timeout value %q out of range", raw)
		}
		if policy.Timeout == nil || decoded.Timeout.Value <= int64(*policy.Timeout) {
			resp = resp.With(TimeoutName, strconv.FormatInt(decoded.Timeout.Value, 10))
		}
	}

	if raw, ok := proposed.Get(TransferSizeName); ok {
		if decoded.TransferSize.Presence == Malformed {
			return nil, refusedf("tsize value %q malformed", raw)
		}
		if policy.HandleTransferSize {
			if isWrite {
				resp = resp.With(TransferSizeName, strconv.FormatInt(decoded.TransferSize.Value, 10))
			} else {
				resp = resp.With(TransferSizeName, strconv.FormatUint(actualSize, 10))
			}
		}
	}

	return resp, nil
}

// ValidateResponse checks a requester's proposed options against a
// responder's OACK, applying the universal rules shared by both roles,
// and returns the negotiated values. requireExactTimeout is true for the
// client side (the client requires an exact echo); expectedWriteSize, if
// non-nil, is the size the requester proposed for a write, which the
// responder must echo unchanged. handleUnknown, if non-nil, is given any
// options left over once blksize/timeout/tsize are extracted; a false
// return refuses the transfer.
func ValidateResponse(proposed, response codec.Options, requireExactTimeout bool, expectedWriteSize *uint64, handleUnknown func(codec.Options) bool) (Decoded, error) {
	for _, opt := range response {
		if !proposed.Has(opt.Name) {
			return Decoded{}, refusedf("option %q was not proposed", opt.Name)
		}
	}

	decoded := Decode(response)

	if v, ok := response.Get(BlockSizeName); ok {
		if decoded.BlockSize.Presence == Malformed {
			return Decoded{}, refusedf("blksize value %q out of range", v)
		}
		proposedVal := Decode(proposed).BlockSize.Value
		if decoded.BlockSize.Value > proposedVal {
			return Decoded{}, refusedf("block size %d exceeds proposed %d", decoded.BlockSize.Value, proposedVal)
		}
	}

	if v, ok := response.Get(TimeoutName); ok {
		if decoded.Timeout.Presence == Malformed {
			return Decoded{}, refusedf("timeout value %q out of range", v)
		}
		if requireExactTimeout {
			proposedVal := Decode(proposed).Timeout.Value
			if decoded.Timeout.Value != proposedVal {
				return Decoded{}, refusedf("timeout %d does not match proposed %d", decoded.Timeout.Value, proposedVal)
			}
		}
	}

	if v, ok := response.Get(TransferSizeName); ok {
		if decoded.TransferSize.Presence == Malformed {
			return Decoded{}, refusedf("tsize value %q malformed", v)
		}
		if expectedWriteSize != nil && decoded.TransferSize.Value != int64(*expectedWriteSize) {
			return Decoded{}, refusedf("tsize %d does not match proposed %d", decoded.TransferSize.Value, *expectedWriteSize)
		}
	}

	leftover := response
	for _, name := range []string{BlockSizeName, TimeoutName, TransferSizeName} {
		leftover = leftover.Without(name)
	}
	if len(leftover) > 0 {
		if handleUnknown == nil || !handleUnknown(leftover) {
			return Decoded{}, refusedf("unknown options refused: %v", leftover.Names())
		}
	}

	return decoded, nil
}
