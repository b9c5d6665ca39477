package secret

import (
	"errors"

	"github.com/zalando/go-keyring"
)

type Keyring struct {
	AppName  string
	KeyField string
}

var (
	keyringSet    = keyring.Set
	keyringGet    = keyring.Get
	keyringDelete = keyring.Delete
)

func NewKeyring() *Keyring {
	return &Keyring{
		AppName:  "warplock",
		KeyField: "rpc-secret",
	}
}

func (k *Keyring) Get() (string, error) {
	token, err := keyringGet(k.AppName, k.KeyField)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNotFound
	}
	return token, err
}

func (k *Keyring) Set(token string) error {
	return keyringSet(k.AppName, k.KeyField, token)
}

func (k *Keyring) Delete() error {
	err := keyringDelete(k.AppName, k.KeyField)
	if errors.Is(err, keyring.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
