package service

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
)

// ErrImageUnreadable means the upload is empty, not base64, or not a photo
var ErrImageUnreadable = errors.New("image unreadable")

// DecodeImageData decodes base64 or a data URL. The MIME type from a data URL
// prefix is returned as a hint.
func DecodeImageData(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	var hint string
	if strings.HasPrefix(s, "data:") {
		if idx := strings.IndexByte(s, ','); idx > 0 {
			meta := s[len("data:"):idx]
			if semi := strings.IndexByte(meta, ';'); semi >= 0 {
				hint = meta[:semi]
			} else {
				hint = meta
			}
			s = s[idx+1:]
		}
	}
	if s == "" {
		return nil, "", ErrImageUnreadable
	}
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, hint, nil
	}
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, hint, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, hint, nil
	}
	return nil, "", ErrImageUnreadable
}

// ImageMIME sniffs the photo type. Declared image types are trusted only when
// the bytes are not recognised (HEIC for instance).
func ImageMIME(declared string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrImageUnreadable
	}
	sniffed := http.DetectContentType(data)
	if strings.HasPrefix(sniffed, "image/") {
		return sniffed, nil
	}
	declared = strings.ToLower(strings.TrimSpace(declared))
	if sniffed == "application/octet-stream" && strings.HasPrefix(declared, "image/") {
		return declared, nil
	}
	return "", ErrImageUnreadable
}
