/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package remote

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// authMethods returns the single authentication method selected for req and
// a cleanup function releasing any agent connection.
func authMethods(req Request) ([]ssh.AuthMethod, func(), error) {
	noop := func() {}

	switch {
	case req.IdentityFile != "":
		log.Debug().Str("server", req.ServerName).Msgf("Authenticating with private key: %s", req.IdentityFile)
		signer, err := loadSigner(req.IdentityFile, req.Password)
		if err != nil {
			return nil, noop, err
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, noop, nil

	case req.Password != "":
		log.Debug().Str("server", req.ServerName).Msg("Authenticating with password")
		password := req.Password
		return []ssh.AuthMethod{
			ssh.Password(password),
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for ndx := range answers {
					answers[ndx] = password
				}
				return answers, nil
			}),
		}, noop, nil

	default:
		log.Debug().Str("server", req.ServerName).Msg("Authenticating with SSH agent")
		socket := os.Getenv("SSH_AUTH_SOCK")
		if socket == "" {
			return nil, noop, fmt.Errorf("no password or identity file configured for '%s' and SSH_AUTH_SOCK is not set", req.ServerName)
		}
		conn, err := net.Dial("unix", socket)
		if err != nil {
			return nil, noop, fmt.Errorf("no password or identity file configured for '%s' and the SSH agent is unreachable: %w", req.ServerName, err)
		}
		client := agent.NewClient(conn)
		return []ssh.AuthMethod{ssh.PublicKeysCallback(client.Signers)}, func() { conn.Close() }, nil
	}
}

func loadSigner(path string, passphrase string) (ssh.Signer, error) {
	keyBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read identity file: %w", err)
	}
	signer, err := ssh.ParsePrivateKey(keyBytes)
	var missing *ssh.PassphraseMissingError
	if errors.As(err, &missing) && passphrase != "" {
		signer, err = ssh.ParsePrivateKeyWithPassphrase(keyBytes, []byte(passphrase))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse identity file %s: %w", path, err)
	}
	return signer, nil
}

// DefaultKnownHostsPath returns ~/.ssh/known_hosts.
func DefaultKnownHostsPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".ssh", "known_hosts")
}

// hostKeyCallback verifies host keys against the known_hosts file. Hosts not
// listed are accepted with a warning; a changed key is rejected. Without a
// known_hosts file every key is accepted and its fingerprint logged.
func (f *SSHFetcher) hostKeyCallback(serverName string) (ssh.HostKeyCallback, error) {
	acceptAndLog := func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		log.Debug().Str("server", serverName).Msgf("Accepting %s host key %s", key.Type(), ssh.FingerprintSHA256(key))
		return nil
	}

	if f.KnownHostsPath == "" {
		return acceptAndLog, nil
	}
	if _, err := os.Stat(f.KnownHostsPath); errors.Is(err, os.ErrNotExist) {
		return acceptAndLog, nil
	}

	verify, err := knownhosts.New(f.KnownHostsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.KnownHostsPath, err)
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := verify(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if errors.As(err, &keyErr) && len(keyErr.Want) == 0 {
			log.Warn().Str("server", serverName).Msgf("Host %s is not in %s, accepting %s key %s", hostname, f.KnownHostsPath, key.Type(), ssh.FingerprintSHA256(key))
			return nil
		}
		return err
	}, nil
}
