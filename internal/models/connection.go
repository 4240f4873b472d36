package models

import "fmt"

// ConnKind selects the transport used to reach the station.
type ConnKind string

const (
	ConnSerial  ConnKind = "serial"
	ConnNetwork ConnKind = "network"
)

// ConnConfig describes one device link. It is immutable once a session is
// established; switching transports means disconnect + reconnect.
type ConnConfig struct {
	Kind ConnKind `json:"kind"`

	// Serial link settings.
	Port string `json:"port,omitempty"`
	Baud int    `json:"baud,omitempty"`

	// Network link settings.
	Host string `json:"host,omitempty"`
}

// Validate checks that the config names a usable endpoint for its kind.
func (c ConnConfig) Validate() error {
	switch c.Kind {
	case ConnSerial:
		if c.Port == "" {
			return fmt.Errorf("serial connection requires a port name")
		}
	case ConnNetwork:
		if c.Host == "" {
			return fmt.Errorf("network connection requires a host")
		}
	default:
		return fmt.Errorf("unknown connection kind %q", c.Kind)
	}
	return nil
}

// String renders the endpoint for log and error messages.
func (c ConnConfig) String() string {
	if c.Kind == ConnSerial {
		return fmt.Sprintf("serial:%s@%d", c.Port, c.Baud)
	}
	return "http://" + c.Host
}
