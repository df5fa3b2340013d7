package smc

import (
	"fmt"

	"go.uber.org/zap"
)

// KeyHandle reads a single key. Its metadata is resolved once, when the
// handle is created, and never retried: a key that could not be resolved
// stays absent for the lifetime of the handle.
type KeyHandle struct {
	ch   *Channel
	key  Key
	info KeyInfo
}

// NewKeyHandle resolves key on its own channel over conn.
// conn may be nil, in which case the key is absent.
func NewKeyHandle(conn Conn, key Key) *KeyHandle {
	return OpenKey(NewChannel(conn), key)
}

// OpenKey resolves key over an existing channel.
func OpenKey(ch *Channel, key Key) *KeyHandle {
	k := &KeyHandle{ch: ch, key: key}

	out, err := ch.Transact(OpGetKeyInfo, Param{Key: key})
	if err != nil {
		Logger().Debug("key info lookup failed",
			zap.Stringer("key", key),
			zap.Error(err))
		return k
	}
	k.info = out.KeyInfo

	Logger().Debug("key resolved",
		zap.Stringer("key", key),
		zap.Uint32("size", k.info.Size),
		zap.Stringer("type", k.info.Type),
		zap.Uint8("result", out.Result))
	return k
}

func (k *KeyHandle) Key() Key {
	return k.key
}

// Info returns the metadata resolved at creation.
func (k *KeyHandle) Info() KeyInfo {
	return k.info
}

// Exists reports whether the key was resolved with a non zero size.
func (k *KeyHandle) Exists() bool {
	return k.info.Size > 0
}

// ReadValue reads and decodes the key. No transaction is issued for an
// absent key.
func (k *KeyHandle) ReadValue() (float64, error) {
	if !k.Exists() {
		return 0, fmt.Errorf("%w: %s", ErrKeyAbsent, k.key)
	}

	out, err := k.ch.Transact(OpReadKey, Param{Key: k.key, KeyInfo: KeyInfo{Size: k.info.Size}})
	if err != nil {
		return 0, err
	}

	v, err := k.info.Type.Decode(out.Value(k.info.Size))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k.key, err)
	}
	return v, nil
}

// Read is ReadValue with every failure reported as 0. A zero reading and
// no reading at all cannot be told apart; use ReadValue when that matters.
func (k *KeyHandle) Read() float64 {
	v, _ := k.ReadValue()
	return v
}
