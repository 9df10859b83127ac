// Package netutil builds HTTP clients and addresses for talking to the local
// vLLM server.
package netutil

import (
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// NewClient returns an HTTP client for upstream calls. Timeout is left at zero:
// callers bound every request with a context deadline instead.
func NewClient(connectTimeout time.Duration) *http.Client {
	if connectTimeout <= 0 {
		connectTimeout = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy: nil,
		DialContext: (&net.Dialer{
			Timeout:   connectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{Transport: tr, Timeout: 0}
}

// DialHost maps wildcard bind addresses to loopback so they can be dialled.
func DialHost(host string) string {
	switch host {
	case "", "0.0.0.0":
		return "127.0.0.1"
	case "::", "[::]":
		return "::1"
	}
	return host
}

// BaseURL returns the http base URL of a server bound to host:port.
func BaseURL(host string, port int) string {
	return "http://" + net.JoinHostPort(DialHost(host), strconv.Itoa(port))
}

// PickFreePort asks the kernel for an unused TCP port on host.
func PickFreePort(host string) (int, error) {
	l, err := net.Listen("tcp", net.JoinHostPort(host, "0"))
	if err != nil {
		return 0, err
	}
	defer l.Close()
	addr, ok := l.Addr().(*net.TCPAddr)
	if !ok {
		return 0, fmt.Errorf("unexpected addr: %s", l.Addr())
	}
	return addr.Port, nil
}
