// Package secret keeps the bearer token of the JSON-RPC endpoint in the
// operating system keyring, with a file in the configuration directory as
// fallback when no keyring service is available.
package secret

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrNotFound is returned when no token has been stored.
var ErrNotFound = errors.New("rpc secret not found")

// Store persists a single token.
type Store interface {
	Get() (string, error)
	Set(token string) error
	Delete() error
}

var randRead = rand.Read

// Generate returns a new random hex token.
func Generate() (string, error) {
	b := make([]byte, 32)
	if _, err := randRead(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GetOrCreate returns the token held by s, generating and storing one
// when none exists. created reports whether a new token was stored.
func GetOrCreate(s Store) (token string, created bool, err error) {
	token, err = s.Get()
	if err == nil && token != "" {
		return token, false, nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return "", false, err
	}
	token, err = Generate()
	if err != nil {
		return "", false, err
	}
	if err := s.Set(token); err != nil {
		return "", false, err
	}
	return token, true, nil
}

// Rotate replaces the token held by s with a new one.
func Rotate(s Store) (string, error) {
	token, err := Generate()
	if err != nil {
		return "", err
	}
	if err := s.Set(token); err != nil {
		return "", err
	}
	return token, nil
}

// Chain reads from the first store that has a token and writes to the
// first store that accepts it.
type Chain []Store

func (c Chain) Get() (string, error) {
	var errs []error
	for _, s := range c {
		token, err := s.Get()
		if err == nil && token != "" {
			return token, nil
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 && len(errs) == len(c) {
		return "", errors.Join(errs...)
	}
	return "", ErrNotFound
}

func (c Chain) Set(token string) error {
	var errs []error
	for _, s := range c {
		err := s.Set(token)
		if err == nil {
			return nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return errors.New("no secret store configured")
	}
	return errors.Join(errs...)
}

// Delete removes the token from every store.
func (c Chain) Delete() error {
	var errs []error
	for _, s := range c {
		if err := s.Delete(); err != nil && !errors.Is(err, ErrNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Default returns the keyring store backed by a token file in configDir.
func Default(configDir string) Store {
	return Chain{NewKeyring(), NewFileStore(nil, configDir)}
}
