package ready

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"
)

// Signal writes payload to the named FIFO at path, telling a
// supervisor the process is up. The open is non-blocking so a missing
// reader never wedges the caller; ENXIO (no reader yet) is retried
// until the deadline. An empty path is a no-op.
func Signal(ctx context.Context, path, payload string, deadline time.Duration) error {
	if path == "" {
		return nil
	}
	if deadline <= 0 {
		deadline = 8 * time.Second
	}
	if payload == "" {
		payload = "READY\n"
	}

	timeout := time.NewTimer(deadline)
	defer timeout.Stop()

	tick := time.NewTicker(80 * time.Millisecond)
	defer tick.Stop()

	for {
		fd, err := syscall.Open(path, syscall.O_WRONLY|syscall.O_NONBLOCK, 0)
		if err == nil {
			f := os.NewFile(uintptr(fd), path)
			_, werr := f.WriteString(payload)
			cerr := f.Close()
			if werr != nil {
				return werr
			}
			return cerr
		}

		if !errors.Is(err, syscall.ENXIO) {
			return fmt.Errorf("ready: open fifo %s: %w", path, err)
		}

		// no reader yet
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout.C:
			return fmt.Errorf("ready: no fifo reader within %s: %s", deadline, path)
		case <-tick.C:
		}
	}
}
