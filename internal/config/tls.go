package config

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
)

// LoadTLSConfig builds a *tls.Config for the Sink's database
// connection from c's tls_* fields, adapted directly from the teacher
// CLI's own loadTLSCfg: same cipher suite and curve preference list,
// same CA/client-cert loading shape. Returns (nil, nil) if none of the
// CA, client cert and client key paths is set (a server name alone
// does not produce a config), so callers fall back to their driver's
// default transport.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSCACert == "" && c.TLSClientCertPath == "" && c.TLSClientKeyPath == "" {
		return nil, nil
	}

	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,

		CipherSuites: []uint16{
			tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
			tls.TLS_ECDHE_ECDSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_RSA_WITH_CHACHA20_POLY1305,
			tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
		},

		CurvePreferences: []tls.CurveID{
			tls.X25519,
		},
	}

	if c.TLSServerName != "" {
		tlsCfg.ServerName = c.TLSServerName
	}

	if c.TLSCACert != "" {
		ca, err := os.ReadFile(c.TLSCACert)
		if err != nil {
			return nil, fmt.Errorf("config: read CA file %q: %w", c.TLSCACert, err)
		}
		tlsCfg.RootCAs = x509.NewCertPool()
		tlsCfg.RootCAs.AppendCertsFromPEM(ca)
	}

	if c.TLSClientCertPath != "" || c.TLSClientKeyPath != "" {
		if c.TLSClientCertPath == "" || c.TLSClientKeyPath == "" {
			return nil, errors.New("config: both tls_client_cert_path and tls_client_key_path must be set, but saw only one")
		}

		cert, err := os.ReadFile(c.TLSClientCertPath)
		if err != nil {
			return nil, fmt.Errorf("config: read client cert file %q: %w", c.TLSClientCertPath, err)
		}
		key, err := os.ReadFile(c.TLSClientKeyPath)
		if err != nil {
			return nil, fmt.Errorf("config: read client key file %q: %w", c.TLSClientKeyPath, err)
		}

		pair, err := tls.X509KeyPair(cert, key)
		if err != nil {
			return nil, fmt.Errorf("config: create key pair: %w", err)
		}
		tlsCfg.Certificates = append(tlsCfg.Certificates, pair)
	}

	return tlsCfg, nil
}
