// Package netutil provides listener and network error helpers for ottod.
//
// The API listener is bound before the server is handed to its goroutine so
// a port conflict fails startup synchronously with a readable error instead
// of surfacing later from the serve loop.
//
// Key capabilities:
//   - Listener reservation with address-in-use classification
//   - Bounded fallback search for development instances sharing a host
//   - Connection-refused detection for controller and store diagnostics
package netutil

import (
	"errors"
	"fmt"
	"net"
	"strconv"
)

// AddressInUseError represents a "port already in use" error that preserves
// the original error for errors.Is checks.
type AddressInUseError struct {
	Port    int
	Address string
	Err     error
}

func (e *AddressInUseError) Error() string {
	return fmt.Sprintf("port %d is already in use on %s", e.Port, e.Address)
}

func (e *AddressInUseError) Unwrap() error {
	return e.Err
}

// PortBinder binds TCP listeners and holds them until the service that owns
// the port starts serving.
type PortBinder struct {
	// MaxAttempts bounds BindTCPWithFallback
	MaxAttempts int
}

// NewPortBinder creates a PortBinder that tries up to 100 ports on fallback.
func NewPortBinder() *PortBinder {
	return &PortBinder{MaxAttempts: 100}
}

// BindTCP binds address:port. Port 0 lets the OS choose.
func (pb *PortBinder) BindTCP(address string, port int) (net.Listener, error) {
	addr := net.JoinHostPort(address, strconv.Itoa(port))

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		if IsAddressInUseError(err) {
			return nil, &AddressInUseError{
				Port:    port,
				Address: address,
				Err:     err,
			}
		}
		return nil, fmt.Errorf("failed to bind TCP to %s: %w", addr, err)
	}

	return listener, nil
}

// BindTCPWithFallback binds the preferred port or, when it is taken, the next
// free port above it. It returns the listener and the port actually bound.
func (pb *PortBinder) BindTCPWithFallback(address string, preferredPort int) (net.Listener, int, error) {
	attempts := pb.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	for port := preferredPort; port < preferredPort+attempts && port <= 65535; port++ {
		listener, err := pb.BindTCP(address, port)
		if err != nil {
			var addrInUseErr *AddressInUseError
			if errors.As(err, &addrInUseErr) {
				continue
			}
			return nil, 0, fmt.Errorf("failed to bind TCP starting from port %d: %w", preferredPort, err)
		}
		return listener, port, nil
	}

	return nil, 0, fmt.Errorf("no available TCP port found in range %d-%d on %s",
		preferredPort, preferredPort+attempts-1, address)
}

// GetListenerPort extracts the bound port, which matters when port 0 was
// requested.
func (pb *PortBinder) GetListenerPort(listener net.Listener) (int, error) {
	tcpAddr, ok := listener.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("listener is not a TCP listener: %T", listener.Addr())
	}
	return tcpAddr.Port, nil
}
