package pagination

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Cursor is the opaque token (pre-encoding) that resumes a paged report. Field
// names are short to keep the token small. It is serialized to minified JSON
// and encoded with URL-safe base64.
//
// Fields:
//   - v:   version of the cursor schema
//   - rh:  hash of the request that produced the report
//   - f:   file reference
//   - t:   analysis type
//   - cl:  column allow-list, when one was given
//   - off: line offset of the next page
//   - ps:  page budget in bytes
//   - iat: issued-at timestamp (unix seconds)
type Cursor struct {
	V   int      `json:"v"`
	Rh  string   `json:"rh"`
	F   string   `json:"f"`
	T   string   `json:"t"`
	Cl  []string `json:"cl,omitempty"`
	Off int      `json:"off"`
	Ps  int      `json:"ps"`
	Iat int64    `json:"iat"`
}

// EncodeCursor serializes and encodes the cursor as URL-safe base64 (without padding).
func EncodeCursor(c Cursor) (string, error) {
	if err := validate(&c); err != nil {
		return "", err
	}
	b, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor decodes a URL-safe base64 token and parses the JSON cursor.
func DecodeCursor(token string) (*Cursor, error) {
	t := strings.TrimSpace(token)
	if t == "" {
		return nil, errors.New("cursor: empty token")
	}
	data, err := base64.RawURLEncoding.DecodeString(t)
	if err != nil {
		return nil, fmt.Errorf("cursor: invalid base64: %w", err)
	}
	var c Cursor
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("cursor: invalid json: %w", err)
	}
	if err := validate(&c); err != nil {
		return nil, err
	}
	return &c, nil
}

// validate performs structural checks and defaulting.
func validate(c *Cursor) error {
	if c.V <= 0 {
		c.V = 1
	}
	if c.Iat == 0 {
		c.Iat = time.Now().Unix()
	}
	if strings.TrimSpace(c.Rh) == "" {
		return errors.New("cursor: rh (request hash) required")
	}
	if strings.TrimSpace(c.F) == "" {
		return errors.New("cursor: f (file) required")
	}
	if strings.TrimSpace(c.T) == "" {
		return errors.New("cursor: t (analysis type) required")
	}
	if c.Off <= 0 {
		return errors.New("cursor: off must be > 0")
	}
	if c.Ps <= 0 {
		return errors.New("cursor: ps must be > 0")
	}
	return nil
}

// RequestHash fingerprints the parameters that shape a report so a cursor can
// only resume the report it was issued for.
func RequestHash(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Page returns the lines of text starting at line offset off whose combined
// size fits budget bytes. At least one line is returned when any remain. next
// is the offset of the following page, or 0 when the text is exhausted.
func Page(text string, off, budget int) (page string, next int) {
	lines := strings.SplitAfter(text, "\n")
	if off < 0 {
		off = 0
	}
	if off >= len(lines) {
		return "", 0
	}
	var b strings.Builder
	i := off
	for ; i < len(lines); i++ {
		if b.Len() > 0 && b.Len()+len(lines[i]) > budget {
			break
		}
		b.WriteString(lines[i])
	}
	if i >= len(lines) || (i == len(lines)-1 && lines[i] == "") {
		return b.String(), 0
	}
	return b.String(), i
}
