package entity

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// ArtifactFields lists the provisioning response fields that may carry the
// QR image, in priority order. The first non-empty string wins.
var ArtifactFields = []string{"qrCodeBase64", "qrCode", "qr_code", "qrCodeDataUrl"}

const (
	dataURIImagePrefix = "data:image"
	pngBase64Prefix    = "data:image/png;base64,"
)

var (
	// ErrArtifactMissing is returned when no known field holds a usable value.
	ErrArtifactMissing = errors.New("provisioning response has no QR artifact")
	// ErrArtifactNotBase64 is returned when the data URI payload is not base64.
	ErrArtifactNotBase64 = errors.New("artifact is not a base64 data URI")
)

// Artifact is the provisioning QR image, always held as a data URI.
type Artifact struct {
	dataURI string
}

// NewArtifact normalizes raw into a data URI: values already starting with
// "data:image" are kept verbatim, anything else is treated as bare base64
// PNG data.
func NewArtifact(raw string) Artifact {
	if strings.HasPrefix(raw, dataURIImagePrefix) {
		return Artifact{dataURI: raw}
	}
	return Artifact{dataURI: pngBase64Prefix + raw}
}

// ParseArtifact extracts the artifact from a provisioning response body.
// Fields holding non-string JSON values are skipped.
func ParseArtifact(body []byte) (Artifact, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return Artifact{}, err
	}

	for _, name := range ArtifactFields {
		raw, ok := fields[name]
		if !ok {
			continue
		}

		var value string
		if err := json.Unmarshal(raw, &value); err != nil || value == "" {
			continue
		}

		return NewArtifact(value), nil
	}

	return Artifact{}, ErrArtifactMissing
}

// DataURI returns the image as a data URI.
func (a Artifact) DataURI() string {
	return a.dataURI
}

// IsZero reports whether no artifact has been received.
func (a Artifact) IsZero() bool {
	return a.dataURI == ""
}

// Image decodes the base64 payload of the data URI.
func (a Artifact) Image() ([]byte, error) {
	meta, payload, found := strings.Cut(a.dataURI, ",")
	if !found || !strings.HasSuffix(meta, ";base64") {
		return nil, ErrArtifactNotBase64
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Join(ErrArtifactNotBase64, err)
	}
	return data, nil
}
