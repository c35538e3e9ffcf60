package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	"ctagline/config"
	"ctagline/editor"
	"ctagline/engine"
	"ctagline/logger"
	"ctagline/metrics"

	"github.com/neovim/go-client/nvim"
)

type Daemon struct {
	config      config.Config
	engineCfg   engine.EngineConfig
	generator   engine.Generator
	metrics     *metrics.Tracker
	listener    net.Listener
	socketPath  string
	pidPath     string
	clientCount int64
	ctx         context.Context
	cancel      context.CancelFunc
}

func runDaemon() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ll, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer ll.Close()

	logger.Info("config: %+v", cfg)

	daemon, err := NewDaemon(cfg)
	if err != nil {
		logger.Error("error creating daemon: %v", err)
		return err
	}
	if err := daemon.Start(); err != nil {
		logger.Error("error starting daemon: %v", err)
		return err
	}
	return nil
}

func NewDaemon(cfg config.Config) (*Daemon, error) {
	gen, err := newGenerator(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Daemon{
		config:     cfg,
		engineCfg:  engine.EngineConfigFrom(cfg),
		generator:  gen,
		metrics:    metrics.NewTracker(),
		socketPath: getSocketPath(),
		pidPath:    getPidPath(),
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

func (d *Daemon) Start() error {
	d.writePidFile()
	defer d.removePidFile()

	if err := d.setupSocket(); err != nil {
		return err
	}
	defer d.cleanup()

	logger.Info("daemon listening on socket: %s", d.socketPath)

	d.setupShutdownHandling()

	go d.acceptConnections()
	go d.monitorIdleShutdown()

	<-d.ctx.Done()
	logger.Info("daemon shutting down (%s)", d.metrics.Snapshot())
	return nil
}

func (d *Daemon) setupSocket() error {
	os.Remove(d.socketPath)

	listener, err := net.Listen("unix", d.socketPath)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", d.socketPath, err)
	}
	d.listener = listener
	return nil
}

func (d *Daemon) setupShutdownHandling() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			logger.Info("received shutdown signal")
			d.Stop()
		case <-d.ctx.Done():
		}
		signal.Stop(sigChan)
	}()
}

func (d *Daemon) acceptConnections() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.ctx.Done():
				return
			default:
				logger.Warn("error accepting connection: %v", err)
				continue
			}
		}

		atomic.AddInt64(&d.clientCount, 1)
		logger.Info("new client connected, total clients: %d", atomic.LoadInt64(&d.clientCount))
		go d.handleConnection(conn)
	}
}

func (d *Daemon) handleConnection(conn net.Conn) {
	defer conn.Close()
	defer func() {
		atomic.AddInt64(&d.clientCount, -1)
		logger.Info("client disconnected, remaining clients: %d", atomic.LoadInt64(&d.clientCount))
	}()

	n, err := nvim.New(conn, conn, conn, logger.Printf)
	if err != nil {
		logger.Error("error creating nvim client: %v", err)
		return
	}

	// Each connection gets its own engine: buffer and window handles are
	// only unique within one Neovim instance. Generator and counters are
	// shared.
	eng, err := engine.NewEngine(d.generator, d.engineCfg, d.metrics)
	if err != nil {
		logger.Error("error creating engine: %v", err)
		return
	}
	defer eng.Stop()

	ed := editor.New()
	ed.SetClient(n)
	if err := eng.SetEditor(ed); err != nil {
		logger.Error("error attaching editor: %v", err)
		return
	}
	eng.Start(d.ctx)

	select {
	case <-d.ctx.Done():
		return
	default:
		if err := n.Serve(); err != nil && err != io.EOF {
			logger.Warn("error serving connection: %v", err)
		}
	}
}

func (d *Daemon) monitorIdleShutdown() {
	if d.config.DebugImmediateShutdown {
		ticker := time.NewTicker(1 * time.Second)
		defer ticker.Stop()

		for {
			select {
			case <-d.ctx.Done():
				return
			case <-ticker.C:
				if atomic.LoadInt64(&d.clientCount) == 0 {
					logger.Info("debug mode: no clients connected, shutting down daemon immediately")
					d.Stop()
					return
				}
			}
		}
	}

	idleTimer := time.NewTimer(30 * time.Second)
	defer idleTimer.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-idleTimer.C:
			if atomic.LoadInt64(&d.clientCount) == 0 {
				logger.Info("no clients connected for timeout period, shutting down daemon")
				d.Stop()
				return
			}
		}

		if atomic.LoadInt64(&d.clientCount) == 0 {
			idleTimer.Reset(5 * time.Second)
		} else {
			idleTimer.Reset(30 * time.Second)
		}
	}
}

// Stop cancels the daemon context, which stops every connection's engine.
func (d *Daemon) Stop() {
	if d.listener != nil {
		d.listener.Close()
	}
	d.cancel()
}

func (d *Daemon) cleanup() {
	os.Remove(d.socketPath)
}

func (d *Daemon) writePidFile() {
	pid := os.Getpid()
	if err := os.WriteFile(d.pidPath, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		logger.Warn("could not write PID file: %v", err)
	}
	logger.Info("server started with PID %d", pid)
}

func (d *Daemon) removePidFile() {
	if err := os.Remove(d.pidPath); err != nil && !os.IsNotExist(err) {
		logger.Warn("could not remove PID file: %v", err)
	}
}
