package qrlogin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeVerificationCode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "six digits", in: "123456", want: "343736313033"},
		{name: "zero", in: "0", want: "35"},
		{name: "empty", in: "", want: ""},
		{name: "letters", in: "Ab", want: "4467"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodeVerificationCode(tt.in))
		})
	}
}

func TestDecodeVerificationCode(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		for _, in := range []string{"123456", "000000", "abcXYZ", "验证码", "\x00\xff"} {
			out, err := DecodeVerificationCode(EncodeVerificationCode(in))
			require.NoError(t, err)
			assert.Equal(t, in, out)
		}
	})

	t.Run("odd length", func(t *testing.T) {
		_, err := DecodeVerificationCode("343")
		assert.Error(t, err)
	})

	t.Run("uppercase hex is not produced by the encoder and is rejected", func(t *testing.T) {
		_, err := DecodeVerificationCode("3A")
		assert.Error(t, err)
	})
}
