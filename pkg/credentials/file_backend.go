/*
 * Copyright Metaplay. Licensed under the Apache-2.0 license.
 */

package credentials

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/kube-config-updater/cli/pkg/atomicfile"
	"github.com/rs/zerolog/log"
)

const fileHeader = `# kube_config_updater credentials
# Stored with restricted permissions (0600), readable only by you.
# Format: account<TAB>base64(password)
`

// errStoreMissing is returned by load when the credentials file does not exist.
var errStoreMissing = errors.New("credential file store does not exist")

// FileBackend keeps secrets in a plain file with owner-only permissions, the
// same protection ~/.kube/config and ~/.ssh keys get. It is used only when the
// OS keyring is unreachable and the user has agreed to it.
type FileBackend struct {
	Path string
	mu   sync.Mutex
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{Path: path}
}

// DefaultFilePath resolves the credentials file under the user's config
// directory (~/.config on Linux, ~/Library/Application Support on macOS,
// %AppData% on Windows).
func DefaultFilePath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, Service, "credentials")
}

// Get reports Unavailable when the file does not exist: the store has never
// been set up.
func (b *FileBackend) Get(account string) Result {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.load()
	if err != nil {
		return Unavailable(err.Error())
	}
	secret, ok := entries[account]
	if !ok {
		return NotFound()
	}
	return Found(secret)
}

func (b *FileBackend) Set(account string, secret string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.load()
	if errors.Is(err, errStoreMissing) {
		entries = map[string]string{}
	} else if err != nil {
		return err
	}
	entries[account] = secret
	return b.save(entries)
}

func (b *FileBackend) Delete(account string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries, err := b.load()
	if errors.Is(err, errStoreMissing) {
		return nil
	} else if err != nil {
		return err
	}
	if _, ok := entries[account]; !ok {
		return nil
	}
	delete(entries, account)
	return b.save(entries)
}

func (b *FileBackend) load() (map[string]string, error) {
	data, err := os.ReadFile(b.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", errStoreMissing, b.Path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	entries := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}
		account, encoded, ok := strings.Cut(line, "\t")
		if !ok {
			log.Debug().Msgf("Ignoring malformed line in %s", b.Path)
			continue
		}
		secret, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			log.Debug().Msgf("Ignoring undecodable entry '%s' in %s", account, b.Path)
			continue
		}
		entries[account] = string(secret)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return entries, nil
}

func (b *FileBackend) save(entries map[string]string) error {
	accounts := make([]string, 0, len(entries))
	for account := range entries {
		accounts = append(accounts, account)
	}
	sort.Strings(accounts)

	var buf bytes.Buffer
	buf.WriteString(fileHeader)
	for _, account := range accounts {
		fmt.Fprintf(&buf, "%s\t%s\n", account, base64.StdEncoding.EncodeToString([]byte(entries[account])))
	}

	if err := atomicfile.WriteFile(b.Path, buf.Bytes(), 0600, 0700); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}
