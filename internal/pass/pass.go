// Package pass renders travel passes: a QR code carrying an encrypted
// summary of a confirmed booking.
package pass

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"ms-booking/internal/models"

	"github.com/skip2/go-qrcode"
)

var (
	ErrNotIssuable = errors.New("travel pass is only issued for confirmed bookings")
	ErrInvalidPass = errors.New("invalid travel pass")
)

// Payload is what a conductor's scanner recovers from the code.
type Payload struct {
	Reference   string           `json:"reference"`
	Route       string           `json:"route"`
	Mode        models.Mode      `json:"mode,omitempty"`
	JourneyDate string           `json:"journey_date"`
	Departure   string           `json:"departure,omitempty"`
	Passengers  int              `json:"passengers"`
	ClassType   models.ClassType `json:"class_type"`
}

type Generator struct {
	key []byte
}

func NewGenerator(secret string) *Generator {
	hashed := sha256.Sum256([]byte(secret)) // normalize to 32 bytes
	return &Generator{key: hashed[:]}
}

func PayloadOf(b models.Booking) Payload {
	p := Payload{
		Reference:   b.Reference,
		JourneyDate: b.JourneyDate,
		Passengers:  b.Passengers,
		ClassType:   b.ClassType,
	}
	if b.Route != nil {
		p.Route = b.Route.Key()
		p.Mode = b.Route.Mode
		p.Departure = b.Route.DepartureTime
	}
	return p
}

// Token returns the encrypted, URL-safe string embedded in the QR code.
func (g *Generator) Token(b models.Booking) (string, error) {
	if b.Status != models.StatusConfirmed {
		return "", ErrNotIssuable
	}
	data, err := json.Marshal(PayloadOf(b))
	if err != nil {
		return "", err
	}
	return g.seal(data)
}

// PNG renders the pass for b as a 256px QR image.
func (g *Generator) PNG(b models.Booking) ([]byte, error) {
	token, err := g.Token(b)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(token, qrcode.Medium, 256)
}

// Open decrypts a token produced by Token.
func (g *Generator) Open(token string) (Payload, error) {
	var p Payload
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}
	aead, err := g.aead()
	if err != nil {
		return p, err
	}
	if len(raw) < aead.NonceSize() {
		return p, ErrInvalidPass
	}
	nonce, sealed := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	data, err := aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPass, err)
	}
	return p, nil
}

func (g *Generator) aead() (cipher.AEAD, error) {
	block, err := aes.NewCipher(g.key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (g *Generator) seal(data []byte) (string, error) {
	aead, err := g.aead()
	if err != nil {
		return "", err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(aead.Seal(nonce, nonce, data, nil)), nil
}
