package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"ctagline/config"
	"ctagline/generator"
	"ctagline/logger"

	"github.com/spf13/cobra"
)

var daemonFlag bool

var rootCmd = &cobra.Command{
	Use:   "ctagline",
	Short: "Show the symbol under the cursor in Neovim, from ctags",
	Long: `ctagline keeps a ctags index per open buffer and tells Neovim which
symbol encloses the cursor, for the status line or the window title.

Run without arguments it relays stdio to the daemon, starting the daemon
when none is running. This is how the Lua plugin launches it.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if daemonFlag {
			return runDaemon()
		}
		return runClient()
	},
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the daemon in the foreground",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon()
	},
}

func init() {
	rootCmd.Flags().BoolVar(&daemonFlag, "daemon", false, "run the daemon (same as the daemon command)")
	rootCmd.AddCommand(daemonCmd)
}

// runtimePath returns name inside the directory holding the executable.
// Log, socket and pid file live there so every Neovim instance finds the
// same daemon.
func runtimePath(name string) string {
	execPath, err := os.Executable()
	if err != nil {
		log.Fatalf("error getting executable path: %v", err)
	}
	return filepath.Join(filepath.Dir(execPath), name)
}

func getLogPath() string    { return runtimePath("ctagline.log") }
func getSocketPath() string { return runtimePath("ctagline.sock") }
func getPidPath() string    { return runtimePath("ctagline.pid") }

// setupLogger logs to a file next to the executable.
// Caller must Close the returned logger.
func setupLogger(logLevel string) (*logger.LimitedLogger, error) {
	ll, err := logger.Open(getLogPath(), logger.ParseLogLevel(logLevel))
	if err != nil {
		return nil, err
	}
	log.SetOutput(ll)
	return ll, nil
}

func isDaemonRunning() (bool, int) {
	data, err := os.ReadFile(getPidPath())
	if err != nil {
		return false, 0
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return false, 0
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}

	// On Unix, Signal(0) checks if process exists
	err = process.Signal(syscall.Signal(0))
	return err == nil, pid
}

func loadConfig() (config.Config, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return config.Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func newGenerator(cfg config.Config) (*generator.Generator, error) {
	argv, err := cfg.ToolArgv()
	if err != nil {
		return nil, fmt.Errorf("tool_args: %w", err)
	}
	return generator.New(generator.Config{
		ToolPath: cfg.ToolPath,
		ToolArgs: argv,
	}), nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "ctagline: %v\n", err)
		os.Exit(1)
	}
}
