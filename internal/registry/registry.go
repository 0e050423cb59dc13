// Package registry persists the durable mapping from contract name to its
// interface description, deployer address, and deployed address. The
// on-disk layout is one file per contract with newline-delimited KEY~VALUE
// pairs, the format existing tooling reads.
package registry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kilnforge/kiln/internal/types"
	"github.com/pkg/errors"
)

var ErrNotFound = errors.New("contract not found in registry")

const (
	fileSuffix = ".contract"

	keyABI             = "ABI"
	keyAddress         = "ADDRESS"
	keyContractAddress = "CONTRACT_ADDRESS"
)

// Record is one deployed (or deploying) contract. ABI and DeployerAddress
// are known before the deployed address is; DeployedAddress is filled in
// once by SetDeployedAddress without losing the earlier fields.
type Record struct {
	Name            string
	ABI             json.RawMessage
	DeployerAddress types.Address
	DeployedAddress types.Address

	// Lines written by other tooling, carried through rewrites verbatim.
	extra []string
}

// Store is a directory-backed registry. Writes to a given contract name are
// serialized; writes to different names may proceed concurrently.
type Store struct {
	dir string

	mu    sync.Mutex
	names map[string]*sync.Mutex
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create registry directory %s", dir)
	}
	return &Store{
		dir:   dir,
		names: make(map[string]*sync.Mutex),
	}, nil
}

func (s *Store) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.names[name]
	if !ok {
		l = &sync.Mutex{}
		s.names[name] = l
	}
	return l
}

func (s *Store) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, "/\\") || name != filepath.Base(name) {
		return "", errors.Errorf("invalid contract name %q", name)
	}
	return filepath.Join(s.dir, name+fileSuffix), nil
}

// Put creates or overwrites the record for rec.Name.
func (s *Store) Put(rec *Record) error {
	path, err := s.path(rec.Name)
	if err != nil {
		return err
	}

	l := s.lockFor(rec.Name)
	l.Lock()
	defer l.Unlock()

	return s.write(path, rec)
}

func (s *Store) write(path string, rec *Record) error {
	// The format is line-oriented, so the ABI must occupy a single line.
	compact := &bytes.Buffer{}
	if err := json.Compact(compact, rec.ABI); err != nil {
		return errors.Wrapf(err, "record %s has a malformed interface description", rec.Name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s~%s\n", keyABI, compact.String())
	fmt.Fprintf(&b, "%s~%s\n", keyAddress, rec.DeployerAddress.Hex())
	if !rec.DeployedAddress.IsEmpty() {
		fmt.Fprintf(&b, "%s~%s\n", keyContractAddress, rec.DeployedAddress.Hex())
	}
	for _, line := range rec.extra {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write registry record %s", rec.Name)
	}
	return nil
}

// Get returns the record for name or ErrNotFound.
func (s *Store) Get(name string) (*Record, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read registry record %s", name)
	}
	return parseRecord(name, data)
}

func parseRecord(name string, data []byte) (*Record, error) {
	rec := &Record{Name: name}
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" {
			continue
		}
		key, value, found := strings.Cut(line, "~")
		if !found {
			return nil, errors.Errorf("malformed registry line in record %s: %q", name, line)
		}
		switch key {
		case keyABI:
			rec.ABI = json.RawMessage(value)
		case keyAddress:
			if err := rec.DeployerAddress.Set(value); err != nil {
				return nil, errors.Wrapf(err, "bad deployer address in record %s", name)
			}
		case keyContractAddress:
			if err := rec.DeployedAddress.Set(value); err != nil {
				return nil, errors.Wrapf(err, "bad contract address in record %s", name)
			}
		default:
			rec.extra = append(rec.extra, line)
		}
	}
	return rec, nil
}

// SetDeployedAddress fills in the deployed address of an existing record.
// This is an append-style update: the interface description and deployer
// address recorded earlier are preserved.
func (s *Store) SetDeployedAddress(name string, addr types.Address) error {
	path, err := s.path(name)
	if err != nil {
		return err
	}

	l := s.lockFor(name)
	l.Lock()
	defer l.Unlock()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return errors.Wrapf(ErrNotFound, "%q", name)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to read registry record %s", name)
	}
	rec, err := parseRecord(name, data)
	if err != nil {
		return err
	}
	rec.DeployedAddress = addr
	return s.write(path, rec)
}

// List returns every record in the registry, in directory order.
func (s *Store) List() ([]*Record, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list registry directory %s", s.dir)
	}

	var records []*Record
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), fileSuffix) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), fileSuffix)
		rec, err := s.Get(name)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
