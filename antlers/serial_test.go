package antlers

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	serial "go.bug.st/serial.v1"
)

// fakePort serial.Port whose reads block until Close
type fakePort struct {
	serial.Port

	mu      sync.Mutex
	written bytes.Buffer
	rts     bool
	closed  chan struct{}
	once    sync.Once
}

func newFakePort() *fakePort {
	return &fakePort{closed: make(chan struct{})}
}

func (p *fakePort) Read(buf []byte) (int, error) {
	<-p.closed
	return 0, errors.New("port closed")
}

func (p *fakePort) Write(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Write(buf)
}

func (p *fakePort) SetRTS(rts bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rts = rts
	return nil
}

func (p *fakePort) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *fakePort) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.written.Len()
}

func TestSerialRemoteReattachWhileWriting(t *testing.T) {
	first, second := newFakePort(), newFakePort()

	remote := &SerialRemote{uri: "/dev/null", baud: 115200}
	remote.attach(first)
	firstChannel := remote.Channel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 100; i++ {
			remote.Write([]byte{byte(i)}, 0)
			remote.SetState(i%2 == 0)
		}
	}()

	remote.Close()
	remote.attach(second)
	wg.Wait()

	if first.Len()+second.Len() != 100 {
		t.Errorf("written %d + %d bytes, want 100", first.Len(), second.Len())
	}

	n := second.Len()
	if _, err := remote.Write([]byte{0xFF}, 0); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if second.Len() != n+1 {
		t.Error("Write did not go to the reattached port")
	}

	// the first port's reader reports the close
	if buf := <-firstChannel; len(buf) != 0 {
		t.Errorf("first port sent % x, want the empty close marker", buf)
	}
}
