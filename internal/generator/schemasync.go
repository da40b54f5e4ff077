package generator

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"orivus/internal/config"
	"orivus/internal/slogutil"
)

const outputTail = 400

// commandSync runs the configured schema push command in root under the
// configured timeout.
func commandSync(root string, cfg config.SchemaSyncConfig, logger *slog.Logger) SchemaSyncFunc {
	logger = slogutil.OrDiscard(logger)
	args := strings.Fields(cfg.Command)
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	return func(ctx context.Context) error {
		if len(args) == 0 {
			return fmt.Errorf("no schema sync command configured")
		}
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}

		var out bytes.Buffer
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Dir = root
		cmd.Stdout = &out
		cmd.Stderr = &out

		start := time.Now()
		logger.Info("syncing database schema", "command", cfg.Command)
		err := cmd.Run()
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%s timed out after %s", args[0], timeout)
		}
		if err != nil {
			return fmt.Errorf("%s: %w: %s", args[0], err, tail(out.String()))
		}
		logger.Debug("schema synced", "duration", time.Since(start).Round(time.Millisecond).String())
		return nil
	}
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > outputTail {
		s = "..." + s[len(s)-outputTail:]
	}
	return s
}
