package strcase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToLowerSnake(t *testing.T) {
	tests := map[string]string{
		"":             "",
		"UserID":       "user_id",
		"HTTPServer":   "http_server",
		"code":         "code",
		"QRCodeBase64": "qr_code_base64",
	}

	for in, want := range tests {
		assert.Equal(t, want, ToLowerSnake(in), in)
	}
}
