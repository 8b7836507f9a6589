/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package kubeconfig

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/pem"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// k3sTemplate mimics /etc/rancher/k3s/k3s.yaml: everything is called "default".
const k3sTemplate = `apiVersion: v1
clusters:
- cluster:
    certificate-authority-data: Q0EtREFUQQ==
    server: https://127.0.0.1:6443
  name: default
contexts:
- context:
    cluster: default
    user: default
  name: default
current-context: default
kind: Config
preferences: {}
users:
- name: default
  user:
    client-certificate-data: %s
    client-key-data: S0VZLURBVEE=
`

// testCertificate returns a base64-encoded PEM certificate expiring at notAfter
// (truncated to seconds).
func testCertificate(t *testing.T, notAfter time.Time) string {
	t.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "system:admin"},
		NotBefore:    notAfter.Add(-365 * 24 * time.Hour),
		NotAfter:     notAfter,
	}
	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der})
	return base64.StdEncoding.EncodeToString(pemBytes)
}

// k3sDocument returns raw k3s-style kubeconfig bytes whose client certificate
// expires at notAfter.
func k3sDocument(t *testing.T, notAfter time.Time) []byte {
	t.Helper()
	return []byte(fmt.Sprintf(k3sTemplate, testCertificate(t, notAfter)))
}

// rewrittenDocument parses and rewrites a k3s document for serverName.
func rewrittenDocument(t *testing.T, serverName string, targetIP string) *KubeConfig {
	t.Helper()
	raw := k3sDocument(t, time.Now().Add(30*24*time.Hour))
	config, err := Parse(raw)
	require.NoError(t, err)
	require.NoError(t, Rewrite(config, RewriteOptions{
		TargetIP:   targetIP,
		SourceHash: SourceHash(raw),
		ServerName: serverName,
	}))
	return config
}

func writeFile(t *testing.T, dir string, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0600))
	return path
}
