package antlers

import (
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// TCPConn remote tcp endpoint config
type TCPConn struct {
	uri     string
	mu      sync.Mutex
	socket  net.Conn
	channel chan []byte
}

// ConnectTCP connect to plain TCP endpoint
func ConnectTCP(uri string) (*TCPConn, error) {
	remote := &TCPConn{
		uri: uri,
	}

	if err := remote.Connect(); nil != err {
		return nil, err
	}

	return remote, nil
}

// Connect dial into tcp endpoint
func (conn *TCPConn) Connect() error {
	log.Printf("tcp:open uri=%v", conn.uri)

	socket, err := net.Dial("tcp", conn.uri)

	if err != nil {
		return err
	}

	channel := make(chan []byte, 256)

	conn.mu.Lock()
	conn.socket = socket
	conn.channel = channel
	conn.mu.Unlock()

	go pump("tcp", socket, channel)

	return nil
}

// pump copy everything read from `socket` into `channel`; an empty buffer marks the end
func pump(name string, socket net.Conn, channel chan []byte) {
	defer func() {
		if err := recover(); nil != err {
			log.Printf("error[%s] - %v", name, err)
		}
	}()

	for {
		buf := make([]byte, 256)
		n, err := socket.Read(buf)

		if nil != err {
			log.Printf("error[%s:recv] %v", name, err)
			channel <- []byte("")
			close(channel)
			return
		}

		channel <- buf[:n]
	}
}

// Channel return TCP channel
func (conn *TCPConn) Channel() chan []byte {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.channel
}

// Close close TCP channel
func (conn *TCPConn) Close() error {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.socket.Close()
}

// Write write data to TCP socket, timeout <= 0 waits forever
func (conn *TCPConn) Write(buf []byte, timeout time.Duration) (int, error) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return writeDeadline(conn.socket, buf, timeout)
}

func writeDeadline(socket net.Conn, buf []byte, timeout time.Duration) (int, error) {
	if timeout > 0 {
		socket.SetWriteDeadline(time.Now().Add(timeout))
	} else {
		socket.SetWriteDeadline(time.Time{})
	}

	log.Debugf("net:write[%v] %q", len(buf), buf)
	return socket.Write(buf)
}
