// Package qrx renders otpauth provisioning URIs as QR code images for
// authenticator-app enrollment.
package qrx

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

var ErrEmptyContent = errors.New("qrx: content cannot be empty")

// defaultSize is the image size in pixels when none is specified.
const defaultSize = 256

// Generate creates a PNG QR code for the given content.
func Generate(content string, size int) ([]byte, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = defaultSize
	}

	png, err := qrcode.Encode(content, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("qrx: encode: %w", err)
	}
	return png, nil
}

// GenerateDataURI creates a base64 data URI suitable for direct embedding in
// an <img> tag.
func GenerateDataURI(content string, size int) (string, error) {
	png, err := Generate(content, size)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
