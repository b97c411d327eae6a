package fac

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
)

// Command describes one solver process.
type Command struct {
	Binary string
	Args   []string
	Dir    string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

// Executor abstracts process execution for testability.
type Executor interface {
	Run(ctx context.Context, cmd Command, onOutput func(string)) error
}

type commandExecutor struct{}

const stderrTailLines = 8

func (commandExecutor) Run(ctx context.Context, command Command, onOutput func(string)) error {
	cmd := exec.CommandContext(ctx, command.Binary, command.Args...) //nolint:gosec
	cmd.Dir = command.Dir
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		scanErr error
		once    sync.Once
		tail    []string
	)

	scan := func(r io.Reader, keepTail bool) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			mu.Lock()
			if keepTail {
				tail = append(tail, line)
				if len(tail) > stderrTailLines {
					tail = tail[1:]
				}
			}
			if onOutput != nil {
				onOutput(line)
			}
			mu.Unlock()
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	wg.Add(2)
	go scan(stdout, false)
	go scan(stderr, true)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		if len(tail) > 0 {
			return fmt.Errorf("wait command: %w (stderr: %s)", err, strings.Join(tail, " | "))
		}
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
