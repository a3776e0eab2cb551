package antlers

import (
	"time"
)

// Remote ...
type Remote interface {
	Channel() chan []byte
	Close() error
	Connect() error
	Write(buf []byte, timeout time.Duration) (int, error)
}

// Flags command line overrides, applied on top of the configuration file
type Flags struct {
	Help    bool
	List    bool
	Version bool

	Config string

	Stdio     bool
	Remote    string
	TLS       bool
	Reconnect bool
}

// Role which half of the protocol a node runs
type Role string

const (
	// RoleGateway parses upstream commands and relays radio status
	RoleGateway Role = "gateway"
	// RoleRelay only relays radio status upstream
	RoleRelay Role = "relay"
)

// Encodes reports whether the role accepts upstream commands
func (role Role) Encodes() bool {
	return role == RoleGateway
}
