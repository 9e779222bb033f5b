package qrlogin

import (
	"encoding/base64"
	"fmt"
	"net/http"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

const defaultImageSize = 330

// ImageRenderer turns a QR payload into a PNG
type ImageRenderer struct {
	size  int
	level qrcode.RecoveryLevel
}

// NewImageRenderer creates a renderer producing size x size images
func NewImageRenderer(size int) *ImageRenderer {
	if size <= 0 {
		size = defaultImageSize
	}
	return &ImageRenderer{size: size, level: qrcode.Medium}
}

// Render encodes payload as a PNG QR code
func (r *ImageRenderer) Render(payload string) ([]byte, error) {
	if payload == "" {
		return nil, fmt.Errorf("qr payload is empty")
	}
	return qrcode.Encode(payload, r.level, r.size)
}

// DataURI returns the code's image as a base64 data URI, rendering the
// payload when the platform did not supply an image
func (r *ImageRenderer) DataURI(code *qrlogin.QRCode) (string, error) {
	img := code.Image
	if len(img) == 0 {
		rendered, err := r.Render(code.Payload)
		if err != nil {
			return "", err
		}
		img = rendered
	}
	return "data:" + http.DetectContentType(img) + ";base64," + base64.StdEncoding.EncodeToString(img), nil
}
