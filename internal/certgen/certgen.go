// Package certgen provisions a self-signed certificate authority and a
// server certificate for local TLS testing. The leaf certificate's
// subject-alternative-names cover the emulator loopback address and the
// developer machine's LAN address from the settings file, so both the
// Android emulator and a physical device can pin the generated CA.
package certgen

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// EmulatorHostIP is how the Android emulator reaches the host machine.
const EmulatorHostIP = "10.0.2.2"

const (
	caCommonName   = "Water Dev CA"
	leafCommonName = "water-dev"

	caValidity   = 3650 * 24 * time.Hour
	leafValidity = 825 * 24 * time.Hour
	backdate     = 24 * time.Hour

	caKeyBits   = 4096
	leafKeyBits = 2048
)

// Options configures Generate.
type Options struct {
	// Dir is where the four PEM files are written.
	Dir string
	// IPs are the candidate SAN addresses; unparseable entries are skipped.
	// EmulatorHostIP is always included.
	IPs []string
}

// Generate creates the CA and server key/certificate pairs and writes
// ca.key, ca.crt, server.key, and server.crt under opts.Dir.
func Generate(opts Options) error {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return goerr.Wrap(err, "failed to create certs dir", goerr.V("dir", opts.Dir))
	}

	caKey, err := rsa.GenerateKey(rand.Reader, caKeyBits)
	if err != nil {
		return goerr.Wrap(err, "failed to generate CA key")
	}

	now := time.Now()
	caTemplate := &x509.Certificate{
		SerialNumber:          randomSerial(),
		Subject:               pkix.Name{CommonName: caCommonName},
		NotBefore:             now.Add(-backdate),
		NotAfter:              now.Add(caValidity),
		IsCA:                  true,
		BasicConstraintsValid: true,
		KeyUsage:              x509.KeyUsageCertSign | x509.KeyUsageCRLSign,
	}
	caDER, err := x509.CreateCertificate(rand.Reader, caTemplate, caTemplate, &caKey.PublicKey, caKey)
	if err != nil {
		return goerr.Wrap(err, "failed to create CA certificate")
	}
	caCert, err := x509.ParseCertificate(caDER)
	if err != nil {
		return goerr.Wrap(err, "failed to parse CA certificate")
	}

	leafKey, err := rsa.GenerateKey(rand.Reader, leafKeyBits)
	if err != nil {
		return goerr.Wrap(err, "failed to generate server key")
	}

	leafTemplate := &x509.Certificate{
		SerialNumber: randomSerial(),
		Subject:      pkix.Name{CommonName: leafCommonName},
		NotBefore:    now.Add(-backdate),
		NotAfter:     now.Add(leafValidity),
		IPAddresses:  sanIPs(opts.IPs),
		KeyUsage:     x509.KeyUsageDigitalSignature | x509.KeyUsageKeyEncipherment,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
	}
	leafDER, err := x509.CreateCertificate(rand.Reader, leafTemplate, caCert, &leafKey.PublicKey, caKey)
	if err != nil {
		return goerr.Wrap(err, "failed to create server certificate")
	}

	files := []struct {
		name  string
		block *pem.Block
	}{
		{"ca.key", &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(caKey)}},
		{"ca.crt", &pem.Block{Type: "CERTIFICATE", Bytes: caDER}},
		{"server.key", &pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(leafKey)}},
		{"server.crt", &pem.Block{Type: "CERTIFICATE", Bytes: leafDER}},
	}
	for _, f := range files {
		path := filepath.Join(opts.Dir, f.name)
		if err := os.WriteFile(path, pem.EncodeToMemory(f.block), 0o600); err != nil {
			return goerr.Wrap(err, "failed to write PEM file", goerr.V("path", path))
		}
	}
	return nil
}

// sanIPs dedups and parses the SAN candidates, always including the
// emulator host address.
func sanIPs(candidates []string) []net.IP {
	seen := map[string]struct{}{}
	var ips []net.IP
	for _, raw := range append([]string{EmulatorHostIP}, candidates...) {
		if _, ok := seen[raw]; ok {
			continue
		}
		seen[raw] = struct{}{}
		if ip := net.ParseIP(raw); ip != nil {
			ips = append(ips, ip)
		}
	}
	return ips
}

func randomSerial() *big.Int {
	limit := new(big.Int).Lsh(big.NewInt(1), 128)
	serial, err := rand.Int(rand.Reader, limit)
	if err != nil {
		// rand.Reader failing means the platform RNG is broken.
		panic(err)
	}
	return serial
}
