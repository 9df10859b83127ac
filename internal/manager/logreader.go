package manager

import (
	"bufio"
	"errors"
	"io"
	"os"
	"strings"
	"time"
	"unicode"
)

// readLogs pumps the child's combined output into the sink until the child
// has exited and its remaining output is drained, then emits exactly one
// exit line.
func (m *Manager) readLogs(p *process, r *os.File) {
	defer close(p.readerDone)
	lines := make(chan string, 64)
	go m.pump(r, lines)

	for {
		select {
		case line, ok := <-lines:
			if !ok {
				// Output closed before the child exited.
				<-p.done
				m.reportExit(p)
				return
			}
			m.forward(line)
		case <-p.done:
			m.drain(r, lines)
			m.reportExit(p)
			return
		}
	}
}

// pump reads lines from r until EOF or until r is closed. Other read errors
// are reported on the stream and retried after ReadRetryDelay.
func (m *Manager) pump(r io.Reader, out chan<- string) {
	defer close(out)
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			out <- line
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
			if c, ok := r.(io.Closer); ok {
				_ = c.Close()
			}
			return
		}
		readErrorsTotal.Inc()
		m.log.Warn().Err(err).Msg("log read error")
		out <- diagPrefix + processIOError{err: err}.Error()
		time.Sleep(m.readRetryDelay)
	}
}

// drain forwards what is left in the pipe. Grandchildren may keep the write
// end open, so the pipe is closed after DrainTimeout.
func (m *Manager) drain(r *os.File, lines <-chan string) {
	timer := time.NewTimer(m.drainTimeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return
			}
			m.forward(line)
		case <-timer.C:
			_ = r.Close()
			for line := range lines {
				m.forward(line)
			}
			return
		}
	}
}

func (m *Manager) forward(raw string) {
	line := strings.TrimRightFunc(raw, unicode.IsSpace)
	if line == "" {
		return
	}
	logLinesTotal.Inc()
	m.sink.Broadcast(line)
}

func (m *Manager) reportExit(p *process) {
	code := p.exitCode
	if code == 0 {
		m.emit("vLLM process ended normally (exit code: %d)", code)
	} else {
		m.emit("vLLM process ended with code: %d", code)
	}
	m.log.Info().Int("pid", p.pid).Int("exit_code", code).Msg("vllm process ended")
}
