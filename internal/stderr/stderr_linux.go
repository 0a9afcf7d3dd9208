// Package stderr captures output written directly to file descriptor 2
// while a full-screen program owns the terminal, and forwards it to a
// logger so it cannot corrupt the display.
package stderr

import (
	"bufio"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

// Capture redirects fd 2 into a pipe until the returned restore function is
// called. Each non-empty line is logged at warn level.
func Capture(logger zerolog.Logger) (restore func(), err error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, err
	}

	orig, err := unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		r.Close()
		w.Close()
		return nil, err
	}

	if err := unix.Dup3(int(w.Fd()), int(os.Stderr.Fd()), 0); err != nil {
		unix.Close(orig)
		r.Close()
		w.Close()
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		forward(r, logger)
	}()

	return func() {
		_ = unix.Dup3(orig, int(os.Stderr.Fd()), 0)
		_ = unix.Close(orig)
		w.Close()
		<-done
		r.Close()
	}, nil
}

func forward(r *os.File, logger zerolog.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			logger.Warn().Str("stream", "stderr").Msg(line)
		}
	}
}
