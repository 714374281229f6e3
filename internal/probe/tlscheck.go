package probe

import (
	"crypto/tls"
	"crypto/x509"
	"net"
	"net/url"
	"time"
)

// validateTLS reports whether a full, verifying TLS handshake against
// the URL's host succeeds. It is deliberately decoupled from the HTTP
// clients, whose own verification is disabled: a bookmark can be
// reachable while presenting an expired or mismatched certificate.
func (c *Checker) validateTLS(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	host := u.Hostname()
	if host == "" {
		return false
	}

	err = handshake(net.JoinHostPort(host, c.tlsPort), host, c.timeout, c.tlsRoots)
	if err != nil {
		c.logger.Debugf("TLS certificate invalid for %s: %v", rawURL, err)
	}
	return err == nil
}

// handshake dials addr and completes a verifying TLS handshake with
// serverName as SNI. A nil roots pool means the system trust store.
func handshake(addr, serverName string, timeout time.Duration, roots *x509.CertPool) error {
	dialer := &net.Dialer{Timeout: timeout}
	conn, err := tls.DialWithDialer(dialer, "tcp", addr, &tls.Config{
		ServerName: serverName,
		RootCAs:    roots,
		MinVersion: tls.VersionTLS12,
	})
	if err != nil {
		return err
	}
	return conn.Close()
}
