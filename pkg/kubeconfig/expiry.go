/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package kubeconfig

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"time"
)

// ExpiryState classifies a locally cached certificate.
type ExpiryState int

const (
	ExpiryUnknown ExpiryState = iota // No file, unparseable, or no expiry recorded.
	ExpiryValid                      // Expiry is in the future.
	ExpiryExpired                    // Expiry is now or in the past.
)

func (s ExpiryState) String() string {
	switch s {
	case ExpiryValid:
		return "valid"
	case ExpiryExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// ExpiryStatus is the result of inspecting a cached kubeconfig. ExpiresAt is
// zero when State is ExpiryUnknown.
type ExpiryStatus struct {
	State     ExpiryState
	ExpiresAt time.Time
}

// NeedsFetch is true unless the cached certificate is known to be valid.
func (s ExpiryStatus) NeedsFetch() bool {
	return s.State != ExpiryValid
}

// CheckLocalExpiry inspects the 'certificate-expires-at' preference of the
// cached kubeconfig at path.
func CheckLocalExpiry(path string) ExpiryStatus {
	return CheckLocalExpiryAt(path, time.Now())
}

// CheckLocalExpiryAt is CheckLocalExpiry with an explicit current time.
func CheckLocalExpiryAt(path string, now time.Time) ExpiryStatus {
	expiresAt, ok := CachedExpiry(path)
	if !ok {
		return ExpiryStatus{State: ExpiryUnknown}
	}
	if !expiresAt.After(now) {
		return ExpiryStatus{State: ExpiryExpired, ExpiresAt: expiresAt}
	}
	return ExpiryStatus{State: ExpiryValid, ExpiresAt: expiresAt}
}

// CachedExpiry returns the expiry recorded in the cached kubeconfig at path.
func CachedExpiry(path string) (time.Time, bool) {
	config, err := Load(path)
	if err != nil {
		return time.Time{}, false
	}
	value, ok := config.Preferences.Get(PrefCertExpiresAt)
	if !ok {
		return time.Time{}, false
	}
	expiresAt, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return expiresAt.UTC(), true
}

// ParseExpiryFromBytes returns the notAfter time of the active user's client
// certificate in a raw kubeconfig. Nothing is written anywhere.
func ParseExpiryFromBytes(data []byte) (time.Time, bool) {
	config, err := Parse(data)
	if err != nil {
		return time.Time{}, false
	}
	expiresAt, err := ActiveCertificateExpiry(config)
	if err != nil {
		return time.Time{}, false
	}
	return expiresAt, true
}

// ActiveCertificateExpiry follows current-context to its user and decodes the
// user's base64 PEM client certificate.
func ActiveCertificateExpiry(config *KubeConfig) (time.Time, error) {
	activeContext := config.FindContext(config.CurrentContext)
	if activeContext == nil {
		return time.Time{}, fmt.Errorf("context '%s' not found", config.CurrentContext)
	}
	user := config.FindUser(activeContext.Context.User)
	if user == nil {
		return time.Time{}, fmt.Errorf("user '%s' not found", activeContext.Context.User)
	}
	return certificateNotAfter(user.User.ClientCertificateData)
}

func certificateNotAfter(encoded string) (time.Time, error) {
	if encoded == "" {
		return time.Time{}, errors.New("no client certificate data")
	}
	pemData, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to decode client certificate: %w", err)
	}
	block, _ := pem.Decode(pemData)
	if block == nil {
		return time.Time{}, errors.New("client certificate is not PEM encoded")
	}
	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse client certificate: %w", err)
	}
	return cert.NotAfter.UTC(), nil
}
