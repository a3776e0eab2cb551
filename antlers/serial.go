package antlers

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	serial "go.bug.st/serial.v1"
)

// SerialRemote serial port endpoint, used for the radio modem and for serial upstreams
type SerialRemote struct {
	uri  string
	baud int

	mu   sync.Mutex
	port serial.Port
	// data channel
	channel chan []byte
}

// ConnectSerial open `uri` at `baud`, 8N1
func ConnectSerial(uri string, baud int) (*SerialRemote, error) {
	remote := &SerialRemote{
		uri:  uri,
		baud: baud,
	}

	err := remote.Connect()

	if nil != err {
		return nil, err
	}

	return remote, nil
}

// Connect open the serial port and start reading
func (remote *SerialRemote) Connect() error {
	log.Printf("serial:open uri=%v baud=%v", remote.uri, remote.baud)

	port, err := serial.Open(remote.uri, &serial.Mode{})

	if nil != err {
		return err
	}

	mode := &serial.Mode{
		BaudRate: remote.baud,
		Parity:   serial.NoParity,
		DataBits: 8,
		StopBits: serial.OneStopBit,
	}

	if err := port.SetMode(mode); err != nil {
		port.Close()
		return err
	}

	remote.attach(port)

	return nil
}

// attach make `port` current and start reading it
func (remote *SerialRemote) attach(port serial.Port) {
	channel := make(chan []byte, 256)

	remote.mu.Lock()
	remote.port = port
	remote.channel = channel
	remote.mu.Unlock()

	go serialLoop(port, channel)
}

// SetState drive the RTS line, used as a status indicator
func (remote *SerialRemote) SetState(state bool) error {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	return remote.port.SetRTS(state)
}

// serialLoop read `port` into `channel` until it fails; an empty buffer marks the end
func serialLoop(port serial.Port, channel chan []byte) {
	defer func() {
		if err := recover(); nil != err {
			log.Printf("error[serial] - %v", err)
		}
	}()

	for {
		buf := make([]byte, 256)
		bytes, err := port.Read(buf)

		if nil != err {
			log.Printf("serial:err - failed to read port %v", err)
			channel <- []byte("")
			return
		} else if 0 == bytes {
			channel <- []byte("")
			return
		}

		channel <- buf[:bytes]
	}
}

// Channel ...
func (remote *SerialRemote) Channel() chan []byte {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	return remote.channel
}

// Close ...
func (remote *SerialRemote) Close() error {
	remote.mu.Lock()
	defer remote.mu.Unlock()
	return remote.port.Close()
}

// Write the serial driver has no write deadline; timeout is ignored
func (remote *SerialRemote) Write(buf []byte, timeout time.Duration) (int, error) {
	remote.mu.Lock()
	defer remote.mu.Unlock()

	log.Debugf("serial:write[%v]: % x", len(buf), buf)
	return remote.port.Write(buf)
}
