package sorttools

import (
	"fmt"
	"net"
	"strconv"
)

// HostAddrValidator checks that addr is host:port with a usable port. An empty host means all
// local addresses; a non IP host must resolve.
func HostAddrValidator(addr string) error {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid address %s with error: %+v", addr, err)
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return fmt.Errorf("invalid port %q in address %s", port, addr)
	}
	if p <= 0 || p > 65535 {
		return fmt.Errorf("port %d of address %s is out of range", p, addr)
	}
	if host == "" || net.ParseIP(host) != nil {
		return nil
	}
	if _, err := net.LookupHost(host); err != nil {
		return fmt.Errorf("failed to resolve host %s with error: %+v", host, err)
	}

	return nil
}
