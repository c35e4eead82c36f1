package qrcode

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"strings"

	goqrcode "github.com/skip2/go-qrcode"
)

// CodeLength is the number of digits in a ticket QR code.
const CodeLength = 7

// Generator produces ticket QR codes. Codes are uniformly random and may repeat
// across tickets; nothing here checks them for uniqueness.
type Generator interface {
	GenerateNumeric(length int) (string, error)
	EncodePNG(content string, size int) ([]byte, error)
}

type GeneratorImpl struct {
	random io.Reader
}

func NewGenerator() Generator {
	return &GeneratorImpl{random: rand.Reader}
}

// NewGeneratorWithSource is NewGenerator reading randomness from r.
func NewGeneratorWithSource(r io.Reader) Generator {
	return &GeneratorImpl{random: r}
}

func (g *GeneratorImpl) GenerateNumeric(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid qr code length: %d", length)
	}

	var b strings.Builder
	b.Grow(length)
	ten := big.NewInt(10)
	for i := 0; i < length; i++ {
		digit, err := rand.Int(g.random, ten)
		if err != nil {
			return "", fmt.Errorf("generate qr digit: %w", err)
		}
		b.WriteByte(byte('0' + digit.Int64()))
	}
	return b.String(), nil
}

func (g *GeneratorImpl) EncodePNG(content string, size int) ([]byte, error) {
	if content == "" {
		return nil, fmt.Errorf("empty qr content")
	}
	return goqrcode.Encode(content, goqrcode.Medium, size)
}
