//go:build !darwin
// +build !darwin

package antlers

import (
	"fmt"

	"go.bug.st/serial.v1/enumerator"
)

type SerialPort struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
}

// PortList return list of available serial ports
func PortList() ([]SerialPort, error) {
	ports, err := enumerator.GetDetailedPortsList()

	if err != nil {
		return nil, err
	}

	var results []SerialPort

	for _, portdef := range ports {
		results = append(results, SerialPort{
			Name:         portdef.Name,
			IsUSB:        portdef.IsUSB,
			VID:          portdef.VID,
			PID:          portdef.PID,
			SerialNumber: portdef.SerialNumber,
		})
	}

	return results, nil
}

// PrintPortList print ports to stdout, radio modems show up as USB serial devices
func PrintPortList() error {
	ports, err := PortList()

	if err != nil {
		return fmt.Errorf("enumerator.GetDetailedPortsList: %w", err)
	}

	for _, port := range ports {
		fmt.Printf("path=%v usb?=%v vid=%v pid=%v serial=%v\n",
			port.Name,
			port.IsUSB,
			port.VID,
			port.PID,
			port.SerialNumber,
		)
	}

	return nil
}
