package fetch

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/proxy"
)

// newHTTPClient builds the client shared by every fetch.
// MaxConnsPerHost is what makes excess fetches wait for a connection.
func newHTTPClient(opts Options) (*http.Client, error) {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxConnsPerHost:     opts.MaxConnections,
		MaxIdleConns:        opts.MaxConnections,
		MaxIdleConnsPerHost: opts.MaxConnections,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	if opts.SOCKS5Proxy != "" {
		if _, _, err := net.SplitHostPort(opts.SOCKS5Proxy); err != nil {
			return nil, fmt.Errorf("%w: SOCKS5 proxy %q: %w", ErrInvalidOptions, opts.SOCKS5Proxy, err)
		}
		dialer, err := proxy.SOCKS5("tcp", opts.SOCKS5Proxy, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = dialContext(dialer)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// dialContext adapts a proxy.Dialer to http.Transport.DialContext.
// The SOCKS5 dialer from x/net supports contexts directly; anything else is
// dialed in a goroutine so cancellation still returns promptly.
func dialContext(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type dialResult struct {
			conn net.Conn
			err  error
		}
		resultCh := make(chan dialResult, 1)

		go func() {
			conn, err := d.Dial(network, addr)
			resultCh <- dialResult{conn, err}
		}()

		select {
		case result := <-resultCh:
			return result.conn, result.err
		case <-ctx.Done():
			go func() {
				if r := <-resultCh; r.conn != nil {
					r.conn.Close()
				}
			}()
			return nil, ctx.Err()
		}
	}
}
