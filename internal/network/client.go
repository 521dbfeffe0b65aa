package network

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// ProxyProvider provides proxy configuration.
// The settings service implements it; defining it here keeps network free of
// service imports.
type ProxyProvider interface {
	GetProxyURL(ctx context.Context) string
}

type noProxy struct{}

func (noProxy) GetProxyURL(context.Context) string { return "" }

// ClientFactory creates HTTP clients for outbound provider calls. The proxy
// setting is read on every call so a changed proxy applies to the next
// translation without a restart.
type ClientFactory struct {
	proxies ProxyProvider
}

// NewClientFactory creates a new client factory. A nil provider means direct
// connections.
func NewClientFactory(proxies ProxyProvider) *ClientFactory {
	if proxies == nil {
		proxies = noProxy{}
	}
	return &ClientFactory{proxies: proxies}
}

// NewHTTPClient creates an http.Client honouring the configured proxy. An
// unusable proxy URL falls back to a direct connection.
func (f *ClientFactory) NewHTTPClient(ctx context.Context, timeout time.Duration) *http.Client {
	client := &http.Client{Timeout: timeout}
	if proxyURL := f.proxies.GetProxyURL(ctx); proxyURL != "" {
		if transport, err := NewTransport(proxyURL); err == nil {
			client.Transport = transport
		}
	}
	return client
}

// CheckProxy requests testURL through proxyURL without storing anything.
// Empty proxyURL checks the direct route.
func CheckProxy(ctx context.Context, proxyURL, testURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	if proxyURL != "" {
		transport, err := NewTransport(proxyURL)
		if err != nil {
			return err
		}
		client.Transport = transport
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, testURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("proxy check: status %d", resp.StatusCode)
	}
	return nil
}

// NewTransport builds a transport for an http, https or socks5 proxy URL.
// SOCKS proxies go through golang.org/x/net/proxy; HTTP proxies use
// http.ProxyURL.
func NewTransport(proxyURL string) (*http.Transport, error) {
	parsed, err := url.Parse(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}

	if !strings.HasPrefix(parsed.Scheme, "socks") {
		return &http.Transport{Proxy: http.ProxyURL(parsed)}, nil
	}

	var auth *proxy.Auth
	if parsed.User != nil {
		auth = &proxy.Auth{User: parsed.User.Username()}
		if password, ok := parsed.User.Password(); ok {
			auth.Password = password
		}
	}
	dialer, err := proxy.SOCKS5("tcp", parsed.Host, auth, proxy.Direct)
	if err != nil {
		return nil, fmt.Errorf("socks5 dialer: %w", err)
	}

	transport := &http.Transport{}
	if cd, ok := dialer.(proxy.ContextDialer); ok {
		transport.DialContext = cd.DialContext
	} else {
		transport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
			return dialer.Dial(network, addr)
		}
	}
	return transport, nil
}
