package antlers

import (
	"io"
	"time"

	log "github.com/sirupsen/logrus"
)

// StdioRemote stdio endpoint
type StdioRemote struct {
	reader  io.Reader
	writer  io.Writer
	channel chan []byte
	done    chan interface{}
}

// ConnectStdio create a new stdio connection
func ConnectStdio(input io.Reader, output io.Writer) (*StdioRemote, error) {
	log.Printf("stdio:open uri=-")

	remote := &StdioRemote{
		reader: input,
		writer: output,
		done:   make(chan interface{}, 2),
	}

	remote.Connect()

	return remote, nil
}

// Connect start reading from the stdio reader
func (remote *StdioRemote) Connect() error {
	data := make(chan []byte, 256)

	go func() {
		for {
			buf := make([]byte, 256)
			n, err := io.ReadAtLeast(remote.reader, buf, 1)

			if nil != err {
				if err != io.EOF {
					log.Printf("stdio:err - failed to read data %v", err)
				}
				data <- []byte("")
				return
			}

			select {
			case data <- buf[:n]:
				break
			case <-remote.done:
				close(data)
				return
			}
		}
	}()

	remote.channel = data

	return nil
}

// Channel return stdio channel
func (remote *StdioRemote) Channel() chan []byte {
	return remote.channel
}

// Close close stdio channel
func (remote *StdioRemote) Close() error {
	select {
	case remote.done <- "":
	default:
	}
	return nil
}

func (remote *StdioRemote) Write(buf []byte, timeout time.Duration) (int, error) {
	log.Debugf("stdio:write[%v] %q", len(buf), buf)
	return remote.writer.Write(buf)
}
