// Package credstore persists the signed-in credential pair (bearer token
// and derived role) on disk, sealed with a key derived from a per-device
// secret. It is the client-side stand-in for a platform keychain.
package credstore

import (
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"rotalize/client/internal/auth"
	"rotalize/client/internal/rbac"
)

const (
	credentialFile = "credentials.bin"
	secretFile     = "device.secret"
)

var ErrUnavailable = errors.New("credential storage unavailable")

type Store struct {
	dir string
}

// New opens (creating if needed) the credential store rooted at dir.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &Store{dir: dir}, nil
}

type credentialPair struct {
	Token string `json:"token"`
	Role  string `json:"role"`
}

// Save persists the token/role pair, replacing any prior pair. The write
// goes through a temp file and rename so a failure never leaves a token
// without its role on disk.
func (s *Store) Save(token string, role rbac.Role) error {
	aead, err := s.aead()
	if err != nil {
		return err
	}

	plain, err := json.Marshal(credentialPair{Token: token, Role: string(role)})
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	sealed := append(nonce, aead.Seal(nil, nonce, plain, nil)...)

	path := filepath.Join(s.dir, credentialFile)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, sealed, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Restore returns the last saved pair. Any failure mode (missing file,
// undecryptable blob, malformed token) reads as "no credential": the
// caller gets ("", RoleUnknown) and the gate fails closed.
func (s *Store) Restore() (string, rbac.Role) {
	path := filepath.Join(s.dir, credentialFile)
	sealed, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("credstore: read failed, treating as signed out: %v", err)
		}
		return "", rbac.RoleUnknown
	}

	aead, err := s.aead()
	if err != nil {
		log.Printf("credstore: %v", err)
		return "", rbac.RoleUnknown
	}
	if len(sealed) < aead.NonceSize() {
		_ = s.Clear()
		return "", rbac.RoleUnknown
	}
	plain, err := aead.Open(nil, sealed[:aead.NonceSize()], sealed[aead.NonceSize():], nil)
	if err != nil {
		_ = s.Clear()
		return "", rbac.RoleUnknown
	}

	var pair credentialPair
	if err := json.Unmarshal(plain, &pair); err != nil {
		_ = s.Clear()
		return "", rbac.RoleUnknown
	}

	token := auth.StripBearer(pair.Token)
	if !auth.IsLikelyJWT(token) {
		// A stale or mangled token would only produce confusing 401s.
		_ = s.Clear()
		return "", rbac.RoleUnknown
	}
	return token, rbac.Normalize(pair.Role)
}

// Clear removes the stored pair. Clearing an empty store is a no-op.
func (s *Store) Clear() error {
	err := os.Remove(filepath.Join(s.dir, credentialFile))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// aead builds the sealing cipher from the device secret, creating the
// secret on first use.
func (s *Store) aead() (cipher.AEAD, error) {
	secret, err := s.deviceSecret()
	if err != nil {
		return nil, err
	}
	key := make([]byte, chacha20poly1305.KeySize)
	kdf := hkdf.New(sha256.New, secret, nil, []byte("rotalize-credential-store"))
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return aead, nil
}

func (s *Store) deviceSecret() ([]byte, error) {
	path := filepath.Join(s.dir, secretFile)
	secret, err := os.ReadFile(path)
	if err == nil && len(secret) == 32 {
		return secret, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	secret = make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, secret); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.WriteFile(path, secret, 0o600); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return secret, nil
}
