package generator

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"ctagline/document"
	"ctagline/logger"
	"ctagline/tags"
)

// RequiredArgs are appended to every invocation: line numbers in the
// ex-command field, emission order instead of name order, output on stdout.
var RequiredArgs = []string{"-n", "--sort=no", "-o", "-"}

var (
	ErrEmptyPath       = errors.New("no file to generate tags for")
	ErrFileUnreadable  = errors.New("file is not readable")
	ErrToolUnavailable = errors.New("tag tool unavailable")
	ErrToolFailed      = errors.New("tag tool failed")
)

const (
	maxLineSize = 1024 * 1024
	recordQueue = 64
)

// Config selects the tag tool. ToolArgs are already split into argv form.
type Config struct {
	ToolPath string
	ToolArgs []string
}

// Result is what one run hands back on completion. Doc is the document the
// run was started for; the receiver decides whether to publish List into it.
type Result struct {
	Doc      *document.Document
	Run      document.Run
	List     *tags.List
	Parsed   int
	Err      error
	Duration time.Duration
}

// Generator runs the external tag tool and turns its output into tag lists.
type Generator struct {
	config Config
}

func New(config Config) *Generator {
	return &Generator{config: config}
}

// Args returns the full argument list for path.
func (g *Generator) Args(path string) []string {
	args := make([]string, 0, len(g.config.ToolArgs)+len(RequiredArgs)+1)
	args = append(args, g.config.ToolArgs...)
	args = append(args, RequiredArgs...)
	return append(args, path)
}

// Check reports why a run for path could not start, or nil.
func (g *Generator) Check(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrFileUnreadable, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileUnreadable, err)
	}
	f.Close()
	if _, err := exec.LookPath(g.config.ToolPath); err != nil {
		return fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}
	return nil
}

// Generate starts a run for doc and returns at once. done is called from the
// run's goroutine when the tool exits; it must not touch shared state itself.
// Superseded runs are not cancelled; they finish and their result carries an
// older run sequence. ctx only bounds the process lifetime at shutdown.
func (g *Generator) Generate(ctx context.Context, doc *document.Document, done func(*Result)) (document.Run, error) {
	path := doc.Path()
	if err := g.Check(path); err != nil {
		return document.Run{}, err
	}

	run := doc.BeginRun()
	logger.Debug("generator: run %s seq=%d started for %s", run.ID, run.Seq, path)

	go func() {
		list, parsed, err := g.Run(ctx, path)
		done(&Result{
			Doc:      doc,
			Run:      run,
			List:     list,
			Parsed:   parsed,
			Err:      err,
			Duration: time.Since(run.Started),
		})
	}()
	return run, nil
}

// Run executes the tool for path synchronously and returns the sorted list
// and the number of records parsed.
func (g *Generator) Run(ctx context.Context, path string) (*tags.List, int, error) {
	defer logger.Trace("generator.Run")()

	records, wait, err := g.stream(ctx, path)
	if err != nil {
		return nil, 0, err
	}

	var accumulated []tags.Record
	for r := range records {
		accumulated = append(accumulated, r)
	}
	if err := wait(); err != nil {
		return nil, len(accumulated), err
	}
	return tags.NewList(accumulated), len(accumulated), nil
}

// stream starts the tool and parses its stdout onto a channel that closes
// when output ends. wait must be called after the channel is drained.
func (g *Generator) stream(ctx context.Context, path string) (<-chan tags.Record, func() error, error) {
	cmd := exec.CommandContext(ctx, g.config.ToolPath, g.Args(path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrToolUnavailable, err)
	}

	records := make(chan tags.Record, recordQueue)
	scanErr := make(chan error, 1)

	go func() {
		defer close(records)
		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 64*1024), maxLineSize)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" || tags.IsPseudoTag(line) {
				continue
			}
			records <- tags.Parse(line)
		}
		err := scanner.Err()
		if err != nil {
			// Keep the tool from blocking on a full pipe.
			io.Copy(io.Discard, stdout)
		}
		scanErr <- err
	}()

	wait := func() error {
		readErr := <-scanErr
		if err := cmd.Wait(); err != nil {
			msg := strings.TrimSpace(stderr.String())
			if msg != "" {
				return fmt.Errorf("%w: %v: %s", ErrToolFailed, err, msg)
			}
			return fmt.Errorf("%w: %v", ErrToolFailed, err)
		}
		if readErr != nil {
			return fmt.Errorf("%w: reading output: %v", ErrToolFailed, readErr)
		}
		return nil
	}
	return records, wait, nil
}
