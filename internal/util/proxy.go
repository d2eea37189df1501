// Package util provides small helpers shared across the NIM proxy: outbound
// proxy wiring for the upstream HTTP client, log level switching, and
// credential masking for log output.
package util

import (
	"context"
	"net"
	"net/http"
	"net/url"

	"github.com/nimroute/nim-proxy/internal/config"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

// SetProxy routes the client's outbound NIM traffic through the proxy named
// in the configuration. SOCKS5, HTTP, and HTTPS schemes are supported; an
// unparsable URL or an unsupported scheme leaves the client connecting
// directly. Proxy credentials never reach the logs.
func SetProxy(cfg *config.Config, httpClient *http.Client) *http.Client {
	if cfg.ProxyURL == "" {
		return httpClient
	}

	proxyURL, errParse := url.Parse(cfg.ProxyURL)
	if errParse != nil {
		log.Warnf("invalid proxy url, connecting to NIM directly: %v", errParse)
		return httpClient
	}

	switch proxyURL.Scheme {
	case "socks5":
		var auth *proxy.Auth
		if user := proxyURL.User; user != nil {
			password, _ := user.Password()
			auth = &proxy.Auth{User: user.Username(), Password: password}
		}
		dialer, errSOCKS5 := proxy.SOCKS5("tcp", proxyURL.Host, auth, proxy.Direct)
		if errSOCKS5 != nil {
			log.Errorf("create SOCKS5 dialer for %s failed: %v", proxyURL.Host, errSOCKS5)
			return httpClient
		}
		httpClient.Transport = &http.Transport{
			DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return dialer.Dial(network, addr)
			},
		}
	case "http", "https":
		httpClient.Transport = &http.Transport{Proxy: http.ProxyURL(proxyURL)}
	default:
		log.Warnf("unsupported proxy scheme %q, connecting to NIM directly", proxyURL.Scheme)
		return httpClient
	}

	log.Debugf("outbound NIM requests proxied via %s://%s", proxyURL.Scheme, proxyURL.Host)
	return httpClient
}
