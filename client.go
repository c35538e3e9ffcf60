package main

import (
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"ctagline/logger"
)

func runClient() error {
	client := NewClient()

	if err := client.EnsureDaemonRunning(); err != nil {
		return fmt.Errorf("error ensuring daemon is running: %w", err)
	}
	if err := client.Connect(); err != nil {
		return fmt.Errorf("error connecting to daemon: %w", err)
	}
	return nil
}

// Client relays Neovim's stdio channel to the daemon socket.
type Client struct {
	socketPath string
}

func NewClient() *Client {
	return &Client{
		socketPath: getSocketPath(),
	}
}

func (c *Client) Connect() error {
	conn, err := net.Dial("unix", c.socketPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		io.Copy(conn, os.Stdin)
		conn.Close()
	}()

	io.Copy(os.Stdout, conn)
	return nil
}

func (c *Client) EnsureDaemonRunning() error {
	running, pid := isDaemonRunning()
	if running {
		logger.Debug("daemon already running with PID %d", pid)
		return nil
	}

	return c.startDaemon()
}

func (c *Client) startDaemon() error {
	logger.Debug("starting daemon...")

	// stdio stays closed: stdout belongs to the RPC channel.
	argv := []string{os.Args[0], "daemon"}
	_, err := os.StartProcess(os.Args[0], argv, &os.ProcAttr{
		Env:   os.Environ(),
		Files: []*os.File{nil, nil, nil},
	})
	if err != nil {
		return err
	}

	return c.waitForDaemon()
}

func (c *Client) waitForDaemon() error {
	for range 50 {
		if running, _ := isDaemonRunning(); running {
			if _, err := os.Stat(c.socketPath); err == nil {
				logger.Debug("daemon started successfully")
				return nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon failed to start within timeout")
}
