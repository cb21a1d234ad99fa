package environment

import (
	"context"
	"fmt"
	"net/http"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/tinytelemetry/cachebench/internal/logging"
	"go.uber.org/zap"
)

// Shell drives an external service through opaque shell commands. The
// commands' exit status is the only signal it reads.
type Shell struct {
	StartCommand string
	StopCommand  string
	HealthURL    string
	Client       *http.Client
	Log          *zap.Logger

	mu   sync.Mutex
	proc *exec.Cmd
	done chan error
}

// Start launches StartCommand without waiting for it to exit.
func (s *Shell) Start(ctx context.Context) error {
	if strings.TrimSpace(s.StartCommand) == "" {
		return fmt.Errorf("environment: start command is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc != nil {
		return fmt.Errorf("environment: already started")
	}

	cmd := exec.Command("sh", "-c", s.StartCommand)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("environment: start %q: %w", s.StartCommand, err)
	}
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	s.proc = cmd
	s.done = done
	logging.OrNop(s.Log).Info("environment started", zap.String("command", s.StartCommand), zap.Int("pid", cmd.Process.Pid))
	return nil
}

// Stop runs StopCommand when set, otherwise kills the started process.
func (s *Shell) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	log := logging.OrNop(s.Log)

	if strings.TrimSpace(s.StopCommand) != "" {
		out, err := exec.CommandContext(ctx, "sh", "-c", s.StopCommand).CombinedOutput()
		if err != nil {
			return fmt.Errorf("environment: stop %q: %w: %s", s.StopCommand, err, strings.TrimSpace(string(out)))
		}
		log.Info("environment stopped", zap.String("command", s.StopCommand))
	} else if s.proc != nil && s.proc.Process != nil {
		_ = s.proc.Process.Kill()
	}

	if s.done != nil {
		select {
		case <-s.done:
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			log.Warn("environment process did not exit after stop")
		}
	}
	s.proc = nil
	s.done = nil
	return nil
}

// IsHealthy checks HealthURL. Without one, the environment is healthy while
// the started process is still running.
func (s *Shell) IsHealthy(ctx context.Context) bool {
	if s.HealthURL != "" {
		return CheckHealth(ctx, s.Client, s.HealthURL)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.proc == nil {
		return false
	}
	select {
	case err := <-s.done:
		// Put it back for Stop.
		s.done <- err
		return false
	default:
		return true
	}
}
