/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

// Package remote reads files from remote hosts over SSH.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"al.essio.dev/pkg/shellescape"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
)

const (
	DefaultPort             = "22"
	DefaultConnectTimeout   = 10 * time.Second
	DefaultOperationTimeout = 30 * time.Second
)

// ErrAuthenticationFailed wraps errors where the server rejected every
// offered authentication method.
var ErrAuthenticationFailed = errors.New("authentication failed")

// Request identifies one remote file and how to authenticate for it.
type Request struct {
	ServerName   string // Used for log messages only.
	Host         string // Host name or IP, optionally with ":port".
	User         string
	RemotePath   string
	IdentityFile string // Optional private key.
	Password     string // Optional. Also used as the sudo password.
}

// Fetcher returns the raw contents of a remote file.
type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

// SSHFetcher fetches files by running cat over an SSH session. Authentication
// uses the identity file if set, else the password, else the SSH agent. When a
// password is available the file is read with 'sudo -S' and the password is
// fed to sudo on stdin.
type SSHFetcher struct {
	Port             string
	ConnectTimeout   time.Duration
	OperationTimeout time.Duration
	KnownHostsPath   string // Optional. Empty disables host key verification.
}

func NewSSHFetcher() *SSHFetcher {
	return &SSHFetcher{
		Port:             DefaultPort,
		ConnectTimeout:   DefaultConnectTimeout,
		OperationTimeout: DefaultOperationTimeout,
		KnownHostsPath:   DefaultKnownHostsPath(),
	}
}

func (f *SSHFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	addr := f.address(req.Host)
	log.Debug().Str("server", req.ServerName).Msgf("Connecting to %s", addr)

	auth, cleanup, err := authMethods(req)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	hostKeyCallback, err := f.hostKeyCallback(req.ServerName)
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: f.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", addr, err)
	}
	defer conn.Close()
	if f.OperationTimeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(f.OperationTimeout))
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, &ssh.ClientConfig{
		User:            req.User,
		Auth:            auth,
		HostKeyCallback: hostKeyCallback,
		Timeout:         f.ConnectTimeout,
	})
	if err != nil {
		return nil, wrapHandshakeError(addr, err)
	}
	client := ssh.NewClient(clientConn, chans, reqs)
	defer client.Close()
	log.Debug().Str("server", req.ServerName).Msg("Authentication successful")

	return runCat(client, req)
}

func (f *SSHFetcher) address(host string) string {
	if _, _, err := net.SplitHostPort(host); err == nil {
		return host
	}
	port := f.Port
	if port == "" {
		port = DefaultPort
	}
	return net.JoinHostPort(host, port)
}

func wrapHandshakeError(addr string, err error) error {
	if strings.Contains(err.Error(), "unable to authenticate") {
		return fmt.Errorf("%w for %s: %v", ErrAuthenticationFailed, addr, err)
	}
	return fmt.Errorf("SSH handshake with %s failed: %w", addr, err)
}

func runCat(client *ssh.Client, req Request) ([]byte, error) {
	session, err := client.NewSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open SSH session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	useSudo := req.Password != ""
	stdin, err := session.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open stdin: %w", err)
	}

	if err := session.Start(remoteCommand(req.RemotePath, useSudo)); err != nil {
		return nil, fmt.Errorf("failed to start remote command: %w", err)
	}
	if useSudo {
		if _, err := stdin.Write([]byte(req.Password + "\n")); err != nil {
			return nil, fmt.Errorf("failed to send sudo password: %w", err)
		}
	}
	_ = stdin.Close()

	if err := session.Wait(); err != nil {
		var exitErr *ssh.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("remote command failed with exit code %d. Stderr: %s", exitErr.ExitStatus(), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("remote command failed: %w", err)
	}

	log.Debug().Str("server", req.ServerName).Msgf("Read %d bytes from %s", stdout.Len(), req.RemotePath)
	return stdout.Bytes(), nil
}

func remoteCommand(remotePath string, useSudo bool) string {
	if useSudo {
		return "sudo -S cat " + shellescape.Quote(remotePath)
	}
	return "cat " + shellescape.Quote(remotePath)
}
