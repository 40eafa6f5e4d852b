package daemon

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/docker/docker/client"
)

// Profile describes how to reach the daemon. The two cases are plaintext
// (TLS false, no credential material) and mutual TLS (TLS true, PEM bytes
// for CA, client certificate and client key).
type Profile struct {
	Host string // host:port, no scheme

	TLS        bool
	CACert     []byte
	ClientCert []byte
	ClientKey  []byte

	// SkipVerify disables server certificate verification. Load-test
	// daemons usually run with self-signed certificates; this must be an
	// explicit choice, never a silent default.
	SkipVerify bool
}

// Transport is a ready-to-use connection to the daemon, scoped to a single
// provisioning attempt. Release must run on every exit path: it closes the
// API client and removes any credential files materialized for mTLS.
type Transport struct {
	Scheme string
	Host   string

	api     *client.Client
	credDir string
	logger  *slog.Logger
}

// NewTransport materializes a transport for one attempt. In the mTLS case
// the credential bytes are written to scoped temp files; if anything fails
// mid-materialization, everything already written is removed before the
// error is returned.
func NewTransport(p Profile, logger *slog.Logger) (*Transport, error) {
	if !p.TLS {
		api, err := client.NewClientWithOpts(
			client.WithHost("tcp://"+p.Host),
			client.WithAPIVersionNegotiation(),
		)
		if err != nil {
			return nil, fmt.Errorf("daemon client: %w", err)
		}
		return &Transport{
			Scheme: "http",
			Host:   p.Host,
			api:    api,
			logger: logger,
		}, nil
	}

	credDir, tlsConfig, err := materializeCredentials(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialMaterialize, err)
	}

	httpClient := &http.Client{
		Transport: &http.Transport{TLSClientConfig: tlsConfig},
	}

	// The SDK derives the https scheme from the TLS config on the
	// transport.
	api, err := client.NewClientWithOpts(
		client.WithHost("tcp://"+p.Host),
		client.WithHTTPClient(httpClient),
		client.WithAPIVersionNegotiation(),
	)
	if err != nil {
		os.RemoveAll(credDir)
		return nil, fmt.Errorf("daemon client: %w", err)
	}

	return &Transport{
		Scheme:  "https",
		Host:    p.Host,
		api:     api,
		credDir: credDir,
		logger:  logger,
	}, nil
}

// materializeCredentials writes the CA, client certificate and client key to
// a scoped temp directory and builds the mTLS config from the files. The
// directory is removed on any failure so a half-materialized attempt leaks
// nothing.
func materializeCredentials(p Profile) (string, *tls.Config, error) {
	credDir, err := os.MkdirTemp("", "stressdock-cred-")
	if err != nil {
		return "", nil, err
	}

	caPath := filepath.Join(credDir, "ca.pem")
	certPath := filepath.Join(credDir, "cert.pem")
	keyPath := filepath.Join(credDir, "key.pem")

	for _, f := range []struct {
		path string
		data []byte
	}{
		{caPath, p.CACert},
		{certPath, p.ClientCert},
		{keyPath, p.ClientKey},
	} {
		if err := os.WriteFile(f.path, f.data, 0600); err != nil {
			os.RemoveAll(credDir)
			return "", nil, err
		}
	}

	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		os.RemoveAll(credDir)
		return "", nil, fmt.Errorf("load client key pair: %w", err)
	}

	tlsConfig := &tls.Config{
		Certificates:       []tls.Certificate{cert},
		InsecureSkipVerify: p.SkipVerify,
	}
	if !p.SkipVerify {
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(p.CACert) {
			os.RemoveAll(credDir)
			return "", nil, fmt.Errorf("no usable certificates in CA material")
		}
		tlsConfig.RootCAs = pool
	}

	return credDir, tlsConfig, nil
}

// API exposes the underlying daemon client.
func (t *Transport) API() *client.Client {
	return t.api
}

// CredentialDir is the scoped directory holding materialized credential
// files; empty for plaintext transports.
func (t *Transport) CredentialDir() string {
	return t.credDir
}

// Release closes the client and removes the attempt's credential files.
func (t *Transport) Release() {
	if t.api != nil {
		if err := t.api.Close(); err != nil {
			t.logger.Warn("Failed to close daemon client", "error", err)
		}
	}
	if t.credDir != "" {
		if err := os.RemoveAll(t.credDir); err != nil {
			t.logger.Error("Failed to remove credential files", "dir", t.credDir, "error", err)
		}
	}
}

// LoadProfileMaterial reads the CA, client certificate and client key PEM
// files into the profile. Paths come from configuration; the files live
// wherever the deployment mounts them.
func LoadProfileMaterial(p *Profile, caPath, certPath, keyPath string) error {
	var err error
	if p.CACert, err = os.ReadFile(caPath); err != nil {
		return fmt.Errorf("read ca certificate: %w", err)
	}
	if p.ClientCert, err = os.ReadFile(certPath); err != nil {
		return fmt.Errorf("read client certificate: %w", err)
	}
	if p.ClientKey, err = os.ReadFile(keyPath); err != nil {
		return fmt.Errorf("read client key: %w", err)
	}
	return nil
}
