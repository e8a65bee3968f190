package game

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128

	PasswordSourceUser     = "user"
	PasswordSourceFallback = "fallback"

	CredentialRoom = "room"
	CredentialDM   = "dm"
)

// PasswordLengthReason is shown to clients whose secret fails the length check.
const PasswordLengthReason = "Password must be between 6 and 128 characters."

// ErrPasswordLength is returned for secrets outside the allowed length.
var ErrPasswordLength = errors.New("password must be between 6 and 128 characters")

// ErrInvalidPassword is returned when a secret does not match the stored hash.
var ErrInvalidPassword = errors.New("invalid password")

// CredentialStore persists password hashes by name.
type CredentialStore interface {
	Credential(ctx context.Context, name string) (hash string, ok bool, err error)
	PutCredential(ctx context.Context, name string, hash string) error
}

// AuthService checks room and DM passwords. Hashes are cached after Load and
// written through to the credential store on change.
type AuthService struct {
	store    CredentialStore
	fallback string
	cost     int

	mu       sync.RWMutex
	roomHash string
	dmHash   string
}

// AuthConfig configures an AuthService.
type AuthConfig struct {
	// FallbackPassword is accepted while no room password is stored and may
	// always be set as the room password regardless of its length.
	FallbackPassword string
	// InitialRoomPassword and InitialDMPassword seed empty storage.
	InitialRoomPassword string
	InitialDMPassword   string
	BcryptCost          int
}

func NewAuthService(store CredentialStore, cfg AuthConfig) *AuthService {
	cost := cfg.BcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		store:    store,
		fallback: strings.TrimSpace(cfg.FallbackPassword),
		cost:     cost,
	}
}

// Load reads stored hashes and seeds missing ones from the initial passwords.
func (a *AuthService) Load(ctx context.Context, cfg AuthConfig) error {
	roomHash, err := a.loadOrSeed(ctx, CredentialRoom, cfg.InitialRoomPassword)
	if err != nil {
		return err
	}
	dmHash, err := a.loadOrSeed(ctx, CredentialDM, cfg.InitialDMPassword)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.roomHash = roomHash
	a.dmHash = dmHash
	a.mu.Unlock()
	return nil
}

func (a *AuthService) loadOrSeed(ctx context.Context, name, initial string) (string, error) {
	hash, ok, err := a.store.Credential(ctx, name)
	if err != nil {
		return "", fmt.Errorf("load %s credential: %w", name, err)
	}
	if ok {
		return hash, nil
	}
	initial = strings.TrimSpace(initial)
	if initial == "" {
		return "", nil
	}
	hash, err = a.hash(initial)
	if err != nil {
		return "", err
	}
	if err := a.store.PutCredential(ctx, name, hash); err != nil {
		return "", fmt.Errorf("seed %s credential: %w", name, err)
	}
	return hash, nil
}

// ValidateRoomPassword trims secret and checks its length. The fallback
// password bypasses the length check. It returns the trimmed secret and the
// password source ("user" or "fallback").
func (a *AuthService) ValidateRoomPassword(secret string) (string, string, error) {
	trimmed := strings.TrimSpace(secret)
	if a.fallback != "" && trimmed == a.fallback {
		return trimmed, PasswordSourceFallback, nil
	}
	if err := ValidatePasswordLength(trimmed); err != nil {
		return "", "", err
	}
	return trimmed, PasswordSourceUser, nil
}

// ValidatePasswordLength checks an already trimmed secret.
func ValidatePasswordLength(trimmed string) error {
	n := utf8.RuneCountInString(trimmed)
	if n < MinPasswordLength || n > MaxPasswordLength {
		return ErrPasswordLength
	}
	return nil
}

// Authenticate checks a room secret. With no stored room password the
// fallback password is the room password.
func (a *AuthService) Authenticate(secret string) bool {
	secret = strings.TrimSpace(secret)
	a.mu.RLock()
	hash := a.roomHash
	a.mu.RUnlock()
	if hash == "" {
		return a.fallback != "" && secret == a.fallback
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), prehash(secret)) == nil
}

// SetRoomPassword hashes and stores an already validated secret.
func (a *AuthService) SetRoomPassword(ctx context.Context, secret string) error {
	hash, err := a.hash(secret)
	if err != nil {
		return err
	}
	if err := a.store.PutCredential(ctx, CredentialRoom, hash); err != nil {
		return fmt.Errorf("store room password: %w", err)
	}
	a.mu.Lock()
	a.roomHash = hash
	a.mu.Unlock()
	return nil
}

// ElevateDM verifies password against the DM password. When no DM password
// exists yet the first valid password becomes it.
func (a *AuthService) ElevateDM(ctx context.Context, password string) error {
	password = strings.TrimSpace(password)
	a.mu.RLock()
	hash := a.dmHash
	a.mu.RUnlock()
	if hash == "" {
		if err := ValidatePasswordLength(password); err != nil {
			return err
		}
		return a.SetDMPassword(ctx, password)
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), prehash(password)) != nil {
		return ErrInvalidPassword
	}
	return nil
}

// SetDMPassword validates, hashes and stores a new DM password.
func (a *AuthService) SetDMPassword(ctx context.Context, password string) error {
	password = strings.TrimSpace(password)
	if err := ValidatePasswordLength(password); err != nil {
		return err
	}
	hash, err := a.hash(password)
	if err != nil {
		return err
	}
	if err := a.store.PutCredential(ctx, CredentialDM, hash); err != nil {
		return fmt.Errorf("store dm password: %w", err)
	}
	a.mu.Lock()
	a.dmHash = hash
	a.mu.Unlock()
	return nil
}

func (a *AuthService) hash(secret string) (string, error) {
	b, err := bcrypt.GenerateFromPassword(prehash(secret), a.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// prehash keeps secrets up to MaxPasswordLength runes under bcrypt's 72 byte
// input limit.
func prehash(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	return []byte(hex.EncodeToString(sum[:]))
}
