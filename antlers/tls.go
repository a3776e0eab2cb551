package antlers

import (
	"crypto/tls"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// TLSConn information about TLS endpoint
type TLSConn struct {
	uri     string
	mu      sync.Mutex
	socket  *tls.Conn
	channel chan []byte
}

// ConnectTLS connect to a TLS enabled enpoint
func ConnectTLS(uri string) (*TLSConn, error) {
	remote := &TLSConn{
		uri: uri,
	}

	if err := remote.Connect(); nil != err {
		return nil, err
	}

	return remote, nil
}

// Connect tls dialing
func (conn *TLSConn) Connect() error {
	log.Printf("tls:open uri=%v (SSL/TLS)", conn.uri)

	host, _, err := net.SplitHostPort(conn.uri)
	if err != nil {
		return err
	}

	socket, err := tls.Dial("tcp", conn.uri, &tls.Config{
		ServerName: host,
	})

	if err != nil {
		return err
	}

	channel := make(chan []byte, 256)

	conn.mu.Lock()
	conn.socket = socket
	conn.channel = channel
	conn.mu.Unlock()

	go pump("tls", socket, channel)

	return nil
}

// Channel return the TLS channel
func (conn *TLSConn) Channel() chan []byte {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.channel
}

// Close close TLS channel
func (conn *TLSConn) Close() error {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return conn.socket.Close()
}

func (conn *TLSConn) Write(buf []byte, timeout time.Duration) (int, error) {
	conn.mu.Lock()
	defer conn.mu.Unlock()
	return writeDeadline(conn.socket, buf, timeout)
}
