//go:build darwin
// +build darwin

package antlers

import (
	"fmt"

	serial "go.bug.st/serial.v1"
)

// darwin needs IOKit to get GetDetailPortsList to work (which in turn required cgo, thus no
// cross-compiling atm)
func PrintPortList() error {
	ports, err := serial.GetPortsList()

	if err != nil {
		return fmt.Errorf("serial.GetPortsList: %w", err)
	}

	for _, port := range ports {
		fmt.Printf("path=%v\n", port)
	}

	return nil
}
