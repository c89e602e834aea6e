package server

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestFileDataSourceSendData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.bin")
	want := bytes.Repeat([]byte{0xAB}, 1000)
	if err := os.WriteFile(path, want, 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	src, err := NewFileDataSource(path)
	if err != nil {
		t.Fatalf("NewFileDataSource: %v", err)
	}
	if size, ok := src.RequestedTransferSize(); !ok || size != uint64(len(want)) {
		t.Fatalf("RequestedTransferSize = (%d, %v), want (%d, true)", size, ok, len(want))
	}
	if err := src.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var got []byte
	for {
		chunk, err := src.SendData(300)
		if err != nil {
			t.Fatalf("SendData: %v", err)
		}
		got = append(got, chunk...)
		if len(chunk) < 300 {
			break
		}
	}
	src.Finished()

	if !bytes.Equal(got, want) {
		t.Fatalf("data mismatch: got %d bytes, want %d", len(got), len(want))
	}
}

func TestFileDataSinkReceivedData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.bin")

	sink, err := NewFileDataSink(path, true)
	if err != nil {
		t.Fatalf("NewFileDataSink: %v", err)
	}
	if err := sink.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	want := bytes.Repeat([]byte{0x42}, 777)
	for i := 0; i < len(want); i += 200 {
		end := i + 200
		if end > len(want) {
			end = len(want)
		}
		if err := sink.ReceivedData(want[i:end]); err != nil {
			t.Fatalf("ReceivedData: %v", err)
		}
	}
	sink.Finished()

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("data mismatch: got %d bytes, want %d", len(got), len(want))
	}
}

func TestFileDataSinkRefusesCreateWhenDisallowed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.bin")

	if _, err := NewFileDataSink(path, false); err == nil {
		t.Fatalf("expected error opening a nonexistent file without create")
	}
}
