package restore

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Token identifies the source currently being restored. A token is applied at
// most once per coordinator lifetime unless the coordinator is cleared.
type Token string

// FavoriteToken is the token of a favorite record.
func FavoriteToken(id string) Token {
	return Token("id:" + id)
}

// KeyToken builds a token from the fields that identify a selection when the
// source has no stable id, e.g. release key, from and to.
func KeyToken(parts ...string) Token {
	return Token("key:" + strings.Join(parts, "|"))
}

// PayloadToken hashes the canonical JSON form of the payload. encoding/json
// sorts map keys, so equal payloads produce equal tokens.
func PayloadToken(p Payload) Token {
	raw, err := json.Marshal(p)
	if err != nil {
		return ""
	}
	return Token("hash:" + strconv.FormatUint(xxhash.Sum64(raw), 16))
}
