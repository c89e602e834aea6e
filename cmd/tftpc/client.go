package main

import (
	"fmt"
	"net"

	"github.com/Joe-Degs/gotftpd/codec"
	"github.com/Joe-Degs/gotftpd/engine"
	"github.com/Joe-Degs/gotftpd/internal/config"
	"github.com/Joe-Degs/gotftpd/internal/logging"
	"github.com/Joe-Degs/gotftpd/internal/trace"
	"github.com/Joe-Degs/gotftpd/server"
)

func tracer(log *logging.Logger, verbose bool) engine.PacketTracer {
	if !verbose {
		return nil
	}
	return func(direction string, pkt codec.Packet) {
		log.Verbose("%s", trace.Dump(direction, pkt))
	}
}

func resolveRemote(addr string) (*net.UDPAddr, error) {
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "69")
	}
	return net.ResolveUDPAddr("udp", addr)
}

// get downloads opts.RemoteFile from the server into opts.Local.
func get(opts *config.ClientOpts) error {
	log := logging.NewStandard("tftpc")
	log.SetVerbose(opts.Verbose)

	remote, err := resolveRemote(opts.Remote)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", opts.Remote, err)
	}

	sink, err := server.NewFileDataSink(opts.Local, true)
	if err != nil {
		return fmt.Errorf("open %q: %w", opts.Local, err)
	}

	cfg := opts.Configuration()
	cfg.Logger = log
	cfg.Tracer = tracer(log, opts.Verbose)

	op, err := engine.NewClientRead(cfg).
		Remote(remote).
		Filename(opts.RemoteFile).
		DataSink(sink).
		Build()
	if err != nil {
		return err
	}
	if err := op.Start(); err != nil {
		return err
	}

	status, info := op.Wait()
	if status != engine.Successful {
		return transferError(status, info)
	}
	log.Info("received %q", opts.RemoteFile)
	return nil
}

// put uploads opts.Local to the server as opts.RemoteFile.
func put(opts *config.ClientOpts) error {
	log := logging.NewStandard("tftpc")
	log.SetVerbose(opts.Verbose)

	remote, err := resolveRemote(opts.Remote)
	if err != nil {
		return fmt.Errorf("resolve %q: %w", opts.Remote, err)
	}

	src, err := server.NewFileDataSource(opts.Local)
	if err != nil {
		return fmt.Errorf("open %q: %w", opts.Local, err)
	}

	cfg := opts.Configuration()
	cfg.Logger = log
	cfg.Tracer = tracer(log, opts.Verbose)

	op, err := engine.NewClientWrite(cfg).
		Remote(remote).
		Filename(opts.RemoteFile).
		DataSource(src).
		Build()
	if err != nil {
		return err
	}
	if err := op.Start(); err != nil {
		return err
	}

	status, info := op.Wait()
	if status != engine.Successful {
		return transferError(status, info)
	}
	log.Info("sent %q", opts.RemoteFile)
	return nil
}

func transferError(status engine.TransferStatus, info *engine.ErrorInfo) error {
	if info != nil && info.Message != "" {
		return fmt.Errorf("%s: %s", status, info.Message)
	}
	return fmt.Errorf("%s", status)
}
