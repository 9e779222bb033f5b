package qrlogin

import (
	"fmt"
	"strings"
)

const (
	verificationCodeMask = 0x05
	hexDigits            = "0123456789abcdef"
)

// EncodeVerificationCode applies the Doudian wire obfuscation to a
// verification code: every byte is XORed with 0x05 and written as two
// lowercase hex nibbles.
func EncodeVerificationCode(code string) string {
	var b strings.Builder
	b.Grow(len(code) * 2)
	for i := 0; i < len(code); i++ {
		x := code[i] ^ verificationCodeMask
		b.WriteByte(hexDigits[(x>>4)&0xF])
		b.WriteByte(hexDigits[x&0xF])
	}
	return b.String()
}

// DecodeVerificationCode reverses EncodeVerificationCode
func DecodeVerificationCode(encoded string) (string, error) {
	if len(encoded)%2 != 0 {
		return "", fmt.Errorf("encoded verification code has odd length %d", len(encoded))
	}
	out := make([]byte, 0, len(encoded)/2)
	for i := 0; i < len(encoded); i += 2 {
		hi := strings.IndexByte(hexDigits, encoded[i])
		lo := strings.IndexByte(hexDigits, encoded[i+1])
		if hi < 0 || lo < 0 {
			return "", fmt.Errorf("invalid hex pair %q at offset %d", encoded[i:i+2], i)
		}
		out = append(out, byte(hi<<4|lo)^verificationCodeMask)
	}
	return string(out), nil
}
