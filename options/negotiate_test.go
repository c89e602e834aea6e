package options

import (
	"errors"
	"testing"

	"github.com/Joe-Degs/gotftpd/codec"
)

func intp(v int) *int { return &v }

func TestProposeRequestRead(t *testing.T) {
	policy := Policy{BlockSize: intp(1024), HandleTransferSize: true}
	opts := ProposeRequest(policy, false, nil)

	if v, ok := opts.Get(BlockSizeName); !ok || v != "1024" {
		t.Errorf("expected blksize=1024, got %v (present=%v)", v, ok)
	}
	if v, ok := opts.Get(TransferSizeName); !ok || v != "0" {
		t.Errorf("expected tsize=0 for a read, got %v (present=%v)", v, ok)
	}
}

func TestProposeRequestWrite(t *testing.T) {
	size := uint64(12345)
	policy := Policy{HandleTransferSize: true}
	opts := ProposeRequest(policy, true, &size)

	if v, ok := opts.Get(TransferSizeName); !ok || v != "12345" {
		t.Errorf("expected tsize=12345, got %v (present=%v)", v, ok)
	}
}

func TestNegotiateResponderClampsBlockSize(t *testing.T) {
	proposed := codec.Options{{Name: BlockSizeName, Value: "1400"}}
	resp, err := NegotiateResponder(proposed, Policy{BlockSize: intp(512)}, false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := resp.Get(BlockSizeName); v != "512" {
		t.Errorf("expected clamped blksize 512, got %v", v)
	}
}

func TestNegotiateResponderOmitsWithoutPolicy(t *testing.T) {
	proposed := codec.Options{{Name: BlockSizeName, Value: "1400"}}
	resp, err := NegotiateResponder(proposed, Policy{}, false, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Has(BlockSizeName) {
		t.Errorf("expected no blksize in response, got %v", resp)
	}
}

func TestNegotiateResponderEchoesReadTransferSize(t *testing.T) {
	proposed := codec.Options{{Name: TransferSizeName, Value: "0"}}
	resp, err := NegotiateResponder(proposed, Policy{HandleTransferSize: true}, false, 9001)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, _ := resp.Get(TransferSizeName); v != "9001" {
		t.Errorf("expected tsize=9001, got %v", v)
	}
}

func TestValidateResponseRejectsOversizedBlockSize(t *testing.T) {
	proposed := codec.Options{{Name: BlockSizeName, Value: "512"}}
	response := codec.Options{{Name: BlockSizeName, Value: "1024"}}
	_, err := ValidateResponse(proposed, response, true, nil, nil)
	if !errors.Is(err, ErrOptionRefused) {
		t.Errorf("expected ErrOptionRefused, got %v", err)
	}
}

func TestValidateResponseRequiresExactTimeout(t *testing.T) {
	proposed := codec.Options{{Name: TimeoutName, Value: "5"}}
	response := codec.Options{{Name: TimeoutName, Value: "6"}}
	_, err := ValidateResponse(proposed, response, true, nil, nil)
	if !errors.Is(err, ErrOptionRefused) {
		t.Errorf("expected ErrOptionRefused for mismatched timeout, got %v", err)
	}
}

func TestValidateResponseRejectsUnproposedOption(t *testing.T) {
	proposed := codec.Options{{Name: BlockSizeName, Value: "512"}}
	response := codec.Options{{Name: TimeoutName, Value: "5"}}
	_, err := ValidateResponse(proposed, response, true, nil, nil)
	if !errors.Is(err, ErrOptionRefused) {
		t.Errorf("expected ErrOptionRefused for unproposed option, got %v", err)
	}
}

func TestValidateResponseAcceptsSubset(t *testing.T) {
	proposed := codec.Options{{Name: BlockSizeName, Value: "1400"}, {Name: TimeoutName, Value: "3"}}
	response := codec.Options{{Name: BlockSizeName, Value: "1024"}}
	decoded, err := ValidateResponse(proposed, response, true, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.BlockSize.Value != 1024 {
		t.Errorf("expected negotiated blksize 1024, got %v", decoded.BlockSize.Value)
	}
}

func TestValidateResponseUnknownOptionHandler(t *testing.T) {
	proposed := codec.Options{{Name: "X-custom", Value: "1"}}
	response := codec.Options{{Name: "X-custom", Value: "1"}}

	called := false
	_, err := ValidateResponse(proposed, response, true, nil, func(o codec.Options) bool {
		called = true
		return true
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Errorf("expected unknown option handler to be invoked")
	}

	_, err = ValidateResponse(proposed, response, true, nil, func(o codec.Options) bool { return false })
	if !errors.Is(err, ErrOptionRefused) {
		t.Errorf("expected ErrOptionRefused when handler refuses, got %v", err)
	}

	_, err = ValidateResponse(proposed, response, true, nil, nil)
	if !errors.Is(err, ErrOptionRefused) {
		t.Errorf("expected ErrOptionRefused with no handler, got %v", err)
	}
}

func TestDecodeKeepsRawTextOfMalformedOption(t *testing.T) {
	opts := codec.Options{{Name: BlockSizeName, Value: "not-a-number"}}
	decoded := Decode(opts)
	if decoded.BlockSize.Presence != Malformed {
		t.Fatalf("expected Malformed, got %v", decoded.BlockSize.Presence)
	}
	if decoded.BlockSize.Raw != "not-a-number" {
		t.Errorf("expected Raw to preserve original text, got %q", decoded.BlockSize.Raw)
	}
	if decoded.BlockSize.IntPtr() != nil {
		t.Errorf("expected IntPtr to be nil for a malformed value")
	}
}

func TestValidateResponseWriteTransferSizeMismatch(t *testing.T) {
	size := uint64(100)
	proposed := codec.Options{{Name: TransferSizeName, Value: "100"}}
	response := codec.Options{{Name: TransferSizeName, Value: "99"}}
	_, err := ValidateResponse(proposed, response, true, &size, nil)
	if !errors.Is(err, ErrOptionRefused) {
		t.Errorf("expected ErrOptionRefused for tsize mismatch, got %v", err)
	}
}
