// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coal

// Token identifies an accounting key within one [Activity] session.
// Start returns it, Complete consumes it. A token names a key, not a
// call instance: starting the same tag again before a matching
// Complete yields the identical token.
//
// Tokens are opaque to callers; the layout below is free to change so
// long as resolution stays deterministic within a session epoch.
type Token uint64

// Bit layout: [serial:32][epoch:24][key:8].
// The serial pins a token to the session that minted it, the epoch to
// that session's validation state at mint time. Either mismatching at
// Complete marks the token inconsistent and resets the session.
const (
	tokenKeyBits   = 8
	tokenEpochBits = 24

	tokenKeyMask   = 1<<tokenKeyBits - 1
	tokenEpochMask = 1<<tokenEpochBits - 1
)

// makeToken packs a session serial, epoch, and key into a Token.
func makeToken(serial Serial, epoch uint32, key uint8) Token {
	return Token(uint64(serial)<<(tokenEpochBits+tokenKeyBits) |
		uint64(epoch&tokenEpochMask)<<tokenKeyBits |
		uint64(key))
}

// serial returns the minting session's serial.
func (t Token) serial() Serial {
	return Serial(t >> (tokenEpochBits + tokenKeyBits))
}

// epoch returns the validation epoch captured at mint time.
func (t Token) epoch() uint32 {
	return uint32(t>>tokenKeyBits) & tokenEpochMask
}

// key returns the accounting key the token resolves to.
func (t Token) key() uint8 {
	return uint8(t & tokenKeyMask)
}
