package codec

import (
	"bytes"
	"errors"
	"testing"
)

func TestEncodeRequest(t *testing.T) {
	tests := []struct {
		name     string
		req      ReadWriteRequest
		expected []byte
	}{
		{
			name: "simple read request",
			req: ReadWriteRequest{
				Op:       Rrq,
				Filename: "testfile.txt",
				RawMode:  "octet",
			},
			expected: []byte{0, 1, 't', 'e', 's', 't', 'f', 'i', 'l', 'e', '.', 't', 'x', 't', 0, 'o', 'c', 't', 'e', 't', 0},
		},
		{
			name: "write request with options",
			req: ReadWriteRequest{
				Op:       Wrq,
				Filename: "outfile.bin",
				RawMode:  "octet",
				Options: Options{
					{Name: "blksize", Value: "1024"},
					{Name: "timeout", Value: "5"},
				},
			},
			expected: []byte{0, 2, 'o', 'u', 't', 'f', 'i', 'l', 'e', '.', 'b', 'i', 'n', 0, 'o', 'c', 't', 'e', 't', 0,
				'b', 'l', 'k', 's', 'i', 'z', 'e', 0, '1', '0', '2', '4', 0, 't', 'i', 'm', 'e', 'o', 'u', 't', 0, '5', 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(&tt.req)
			if err != nil {
				t.Fatalf("encode error: %v", err)
			}
			if !bytes.Equal(data, tt.expected) {
				t.Errorf("encode mismatch:\nexpected %v\ngot      %v", tt.expected, data)
			}

			p, err := Decode(data)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			got := p.(*ReadWriteRequest)
			if got.Filename != tt.req.Filename {
				t.Errorf("filename mismatch: expected %v, got %v", tt.req.Filename, got.Filename)
			}
			if got.RawMode != tt.req.RawMode {
				t.Errorf("mode mismatch: expected %v, got %v", tt.req.RawMode, got.RawMode)
			}
			if len(got.Options) != len(tt.req.Options) {
				t.Errorf("options count mismatch: expected %d, got %d", len(tt.req.Options), len(got.Options))
			}
			for _, o := range tt.req.Options {
				v, ok := got.Options.Get(o.Name)
				if !ok || v != o.Value {
					t.Errorf("option %s mismatch: expected %v, got %v (present=%v)", o.Name, o.Value, v, ok)
				}
			}
		})
	}
}

func TestRequestRejectsDuplicateOption(t *testing.T) {
	raw := []byte{0, 1, 'a', 0, 'o', 'c', 't', 'e', 't', 0, 'b', 'l', 'k', 's', 'i', 'z', 'e', 0, '5', '1', '2', 0, 'B', 'L', 'K', 'S', 'I', 'Z', 'E', 0, '2', '5', '6', 0}
	if _, err := Decode(raw); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("expected ErrInvalidPacket for duplicate option, got %v", err)
	}
}

func TestRequestRejectsTrailingGarbage(t *testing.T) {
	raw := []byte{0, 1, 'a', 0, 'o', 'c', 't', 'e', 't', 0, 'x'}
	if _, err := Decode(raw); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("expected ErrInvalidPacket for trailing garbage, got %v", err)
	}
}

func TestRequestRejectsEmptyFilename(t *testing.T) {
	raw := []byte{0, 1, 0, 'o', 'c', 't', 'e', 't', 0}
	if _, err := Decode(raw); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("expected ErrInvalidPacket for empty filename, got %v", err)
	}
}

func TestDataPacketRoundTrip(t *testing.T) {
	testData := "tftp data packet test data"
	tests := []struct {
		name     string
		packet   DataPacket
		expected int
	}{
		{
			name:     "empty data packet",
			packet:   DataPacket{Block: 42, Data: nil},
			expected: 4,
		},
		{
			name:     "data packet with content",
			packet:   DataPacket{Block: 42, Data: []byte(testData)},
			expected: 4 + len(testData),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := Encode(&tt.packet)
			if err != nil {
				t.Fatalf("encode error: %v", err)
			}
			if len(data) != tt.expected {
				t.Errorf("encode length mismatch: expected %d, got %d", tt.expected, len(data))
			}

			p, err := Decode(data)
			if err != nil {
				t.Fatalf("decode error: %v", err)
			}
			got := p.(*DataPacket)
			if got.Block != tt.packet.Block {
				t.Errorf("block mismatch: expected %v, got %v", tt.packet.Block, got.Block)
			}
			if !bytes.Equal(got.Data, tt.packet.Data) {
				t.Errorf("data mismatch: expected %v, got %v", tt.packet.Data, got.Data)
			}
		})
	}
}

func TestBlockWraps(t *testing.T) {
	var b Block = 0xFFFF
	if next := b.Next(); next != 0x0000 {
		t.Errorf("expected wraparound to 0, got %d", next)
	}
}

func TestAckPacketRoundTrip(t *testing.T) {
	p := &AckPacket{Block: 42}
	data, err := Encode(p)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	expected := []byte{0, 4, 0, 42}
	if !bytes.Equal(data, expected) {
		t.Errorf("encode mismatch: expected %v, got %v", expected, data)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if got.(*AckPacket).Block != p.Block {
		t.Errorf("block mismatch: expected %v, got %v", p.Block, got.(*AckPacket).Block)
	}
}

func TestErrorPacketRoundTrip(t *testing.T) {
	p := &ErrorPacket{Code: FileNotFound, Message: "File not found"}
	data, err := Encode(p)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}
	expected := []byte{0, 5, 0, 1, 'F', 'i', 'l', 'e', ' ', 'n', 'o', 't', ' ', 'f', 'o', 'u', 'n', 'd', 0}
	if !bytes.Equal(data, expected) {
		t.Errorf("encode mismatch: expected %v, got %v", expected, data)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	ep := got.(*ErrorPacket)
	if ep.Code != p.Code || ep.Message != p.Message {
		t.Errorf("decode mismatch: expected %+v, got %+v", p, ep)
	}
}

func TestErrorPacketRequiresTerminatingNul(t *testing.T) {
	raw := []byte{0, 5, 0, 1, 'x'}
	if _, err := Decode(raw); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("expected ErrInvalidPacket, got %v", err)
	}
}

func TestOAckPacketRoundTrip(t *testing.T) {
	p := &OAckPacket{Options: Options{{Name: "blksize", Value: "1024"}, {Name: "timeout", Value: "5"}}}
	data, err := Encode(p)
	if err != nil {
		t.Fatalf("encode error: %v", err)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	op := got.(*OAckPacket)
	if len(op.Options) != len(p.Options) {
		t.Fatalf("options count mismatch: expected %d, got %d", len(p.Options), len(op.Options))
	}
	for _, o := range p.Options {
		v, ok := op.Options.Get(o.Name)
		if !ok || v != o.Value {
			t.Errorf("option %s mismatch: expected %v, got %v", o.Name, o.Value, v)
		}
	}
}

func TestOAckRejectsEmptyOptions(t *testing.T) {
	if _, err := Encode(&OAckPacket{}); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("expected ErrInvalidPacket for empty OACK, got %v", err)
	}
	if _, err := Decode([]byte{0, 6}); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("expected ErrInvalidPacket for empty OACK on decode, got %v", err)
	}
}

func TestDecodeUnknownOpcode(t *testing.T) {
	if _, err := Decode([]byte{0, 99}); !errors.Is(err, ErrInvalidPacket) {
		t.Errorf("expected ErrInvalidPacket, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
		ok   bool
	}{
		{"octet", Octet, true},
		{"OCTET", Octet, true},
		{"netascii", Netascii, true},
		{"mail", Mail, true},
		{"bogus", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseMode(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseMode(%q) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
