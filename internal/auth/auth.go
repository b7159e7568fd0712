// Package auth implements BSQL's user store (spec.md §4.6): persisted
// username/salted-hash records, verified with PBKDF2-HMAC-SHA256 and a
// constant-time comparison. Account creation is an out-of-band
// administrative action (`--create-user`); the server only ever reads
// this store via Verify, never writes it.
package auth

import (
	"bufio"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/pbkdf2"

	"bsql/internal/bsqlerr"
)

const (
	saltBytes  = 16
	keyBytes   = 32
	iterations = 100_000
)

// record is one persisted user: username, per-user salt, derived key, and
// creation timestamp (spec.md §3's User record).
type record struct {
	username  string
	salt      []byte
	hash      []byte
	createdAt time.Time
}

// Store is the in-memory view of users.bin, guarded by a shared lock for
// Verify and an exclusive one for CreateUser (spec.md §5).
type Store struct {
	mu      sync.RWMutex
	path    string
	byName  map[string]*record
}

// Open loads path if it exists, or starts an empty store that will be
// created on the first CreateUser.
func Open(path string) (*Store, error) {
	s := &Store{path: path, byName: make(map[string]*record)}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, bsqlerr.NewIOError(err.Error())
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rec, err := parseLine(line)
		if err != nil {
			return nil, bsqlerr.NewCorruption(err.Error())
		}
		s.byName[strings.ToLower(rec.username)] = rec
	}
	if err := sc.Err(); err != nil {
		return nil, bsqlerr.NewIOError(err.Error())
	}
	return s, nil
}

// parseLine decodes one `username:saltHex:hashHex:unixSeconds` record.
func parseLine(line string) (*record, error) {
	parts := strings.SplitN(line, ":", 4)
	if len(parts) != 4 {
		return nil, fmt.Errorf("auth: malformed user record %q", line)
	}
	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("auth: bad salt for %q: %w", parts[0], err)
	}
	hash, err := hex.DecodeString(parts[2])
	if err != nil {
		return nil, fmt.Errorf("auth: bad hash for %q: %w", parts[0], err)
	}
	var unixSeconds int64
	if _, err := fmt.Sscanf(parts[3], "%d", &unixSeconds); err != nil {
		return nil, fmt.Errorf("auth: bad timestamp for %q: %w", parts[0], err)
	}
	return &record{
		username:  parts[0],
		salt:      salt,
		hash:      hash,
		createdAt: time.Unix(unixSeconds, 0).UTC(),
	}, nil
}

func (r *record) line() string {
	return fmt.Sprintf("%s:%s:%s:%d", r.username, hex.EncodeToString(r.salt), hex.EncodeToString(r.hash), r.createdAt.Unix())
}

func deriveKey(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, iterations, keyBytes, sha256.New)
}

// CreateUser adds a new user record and persists the whole store.
// Returns AlreadyExists if the username (case-insensitive) is taken.
func (s *Store) CreateUser(username, password string) error {
	key := strings.ToLower(username)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[key]; ok {
		return bsqlerr.NewAlreadyExists(username)
	}
	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return bsqlerr.NewIOError(err.Error())
	}
	rec := &record{
		username:  username,
		salt:      salt,
		hash:      deriveKey(password, salt),
		createdAt: time.Now().UTC(),
	}
	s.byName[key] = rec
	return s.persistLocked()
}

// persistLocked rewrites the whole store file. Caller holds s.mu (write).
func (s *Store) persistLocked() error {
	tmpPath := s.path + ".tmp"
	f, err := os.OpenFile(tmpPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return bsqlerr.NewIOError(err.Error())
	}
	for _, rec := range s.byName {
		if _, err := f.WriteString(rec.line() + "\n"); err != nil {
			f.Close()
			os.Remove(tmpPath)
			return bsqlerr.NewIOError(err.Error())
		}
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return bsqlerr.NewIOError(err.Error())
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return bsqlerr.NewIOError(err.Error())
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return bsqlerr.NewIOError(err.Error())
	}
	return nil
}

// Verify reports whether password matches username's stored hash, using
// a constant-time comparison of the derived key bytes (spec.md §4.6).
// An unknown username still derives a key against a fixed dummy salt
// before returning false, so login latency does not leak which usernames
// exist.
func (s *Store) Verify(username, password string) bool {
	s.mu.RLock()
	rec, ok := s.byName[strings.ToLower(username)]
	s.mu.RUnlock()
	if !ok {
		deriveKey(password, dummySalt)
		return false
	}
	got := deriveKey(password, rec.salt)
	return subtle.ConstantTimeCompare(got, rec.hash) == 1
}

var dummySalt = []byte("bsql-unknown-user-salt-16b")[:saltBytes]
