package antlers

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

// DefaultMaxLine longest accepted upstream line, delimiter excluded
const DefaultMaxLine = 80

// LineReader splits a byte stream into bounded, trimmed lines
type LineReader struct {
	max      int
	buf      []byte
	overflow bool
	// cr a '\r' held back until we know whether '\n' follows
	cr bool
	// Overflows lines dropped for being too long
	Overflows int
}

// NewLineReader lines longer than `max` are dropped whole. A CRLF terminator does not count.
func NewLineReader(max int) *LineReader {
	if max <= 0 {
		max = DefaultMaxLine
	}
	return &LineReader{max: max, buf: make([]byte, 0, max)}
}

func (r *LineReader) push(c byte) {
	if r.overflow {
		return
	}
	if len(r.buf) >= r.max {
		r.overflow = true
		r.buf = r.buf[:0]
		return
	}
	r.buf = append(r.buf, c)
}

// Feed consume `data` and return the complete lines found, empty lines skipped
func (r *LineReader) Feed(data []byte) []string {
	var lines []string

	for _, c := range data {
		if c != '\n' {
			if r.cr {
				r.cr = false
				r.push('\r')
			}
			if c == '\r' {
				r.cr = true
				continue
			}
			r.push(c)
			continue
		}

		r.cr = false

		if r.overflow {
			r.overflow = false
			r.Overflows++
			CommandsTotal.WithLabelValues("overflow").Inc()
			log.Warnf("upstream:line longer than %d characters, dropped", r.max)
			continue
		}

		line := strings.TrimSpace(string(r.buf))
		r.buf = r.buf[:0]
		if line != "" {
			lines = append(lines, line)
		}
	}

	return lines
}

// ReadLines pump lines out of `remote` until ctx is done. When the remote closes and
// reconnect is set, reconnect with a backoff, otherwise close the returned channel.
func ReadLines(ctx context.Context, remote Remote, maxLine int, reconnect bool) <-chan string {
	out := make(chan string, 16)

	go func() {
		defer close(out)

		reader := NewLineReader(maxLine)
		backoff := NewBackoff(1*time.Second, 2.5, 5*time.Minute)
		channel := remote.Channel()

		for {
			select {
			case <-ctx.Done():
				return

			case buf, ok := <-channel:
				if ok && len(buf) > 0 {
					for _, line := range reader.Feed(buf) {
						select {
						case out <- line:
						case <-ctx.Done():
							return
						}
					}
					continue
				}

				if !reconnect {
					log.Printf("upstream:close, exiting")
					return
				}

				log.Printf("upstream:close, reconnecting")
				remote.Close()
				reader = NewLineReader(maxLine)

				for {
					err := remote.Connect()
					if nil == err {
						backoff.Success()
						channel = remote.Channel()
						break
					}

					wait := backoff.Fail()
					log.Printf("upstream:open: %v, retry in %v", err, wait)

					select {
					case <-time.After(wait):
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()

	return out
}
