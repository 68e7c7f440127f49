// Package content defines the closed set of message payload types and
// their plaintext encoding. The encoded form is what the ratchet
// encrypts; decoding happens after decryption on the receiving side.
//
// The union is closed: decoding switches explicitly on the type
// discriminant and rejects anything it does not know.
package content

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Type discriminates the payload variants.
type Type string

const (
	TypeText        Type = "text"
	TypeImage       Type = "image"
	TypeFile        Type = "file"
	TypeTransaction Type = "transaction"
)

// ErrUnknownType is returned for a discriminant outside the closed set.
var ErrUnknownType = errors.New("unknown content type")

// Text is a plain text message.
type Text struct {
	Body string `json:"body"`
}

// Image is an inline image payload.
type Image struct {
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// File is an arbitrary attachment.
type File struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Data     []byte `json:"data"`
}

// Transaction references an on-chain transaction being discussed.
type Transaction struct {
	Hash    string `json:"hash"`
	ChainID string `json:"chain_id"`
	Amount  string `json:"amount,omitempty"`
	Symbol  string `json:"symbol,omitempty"`
}

// Content is the tagged union carried as ratchet plaintext. Exactly one
// variant field matching Type is set.
type Content struct {
	Type        Type         `json:"type"`
	Text        *Text        `json:"text,omitempty"`
	Image       *Image       `json:"image,omitempty"`
	File        *File        `json:"file,omitempty"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

// NewText is a convenience constructor for the common case.
func NewText(body string) Content {
	return Content{Type: TypeText, Text: &Text{Body: body}}
}

// Encode serializes c after checking the variant matches the
// discriminant and carries its required fields.
func Encode(c Content) ([]byte, error) {
	switch c.Type {
	case TypeText:
		if c.Text == nil {
			return nil, fmt.Errorf("content %q: missing text payload", c.Type)
		}
	case TypeImage:
		if c.Image == nil || c.Image.MimeType == "" || len(c.Image.Data) == 0 {
			return nil, fmt.Errorf("content %q: missing image payload", c.Type)
		}
	case TypeFile:
		if c.File == nil || c.File.Name == "" || len(c.File.Data) == 0 {
			return nil, fmt.Errorf("content %q: missing file payload", c.Type)
		}
	case TypeTransaction:
		if c.Transaction == nil || c.Transaction.Hash == "" || c.Transaction.ChainID == "" {
			return nil, fmt.Errorf("content %q: missing transaction payload", c.Type)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, c.Type)
	}
	return json.Marshal(c)
}

// Decode parses decrypted plaintext back into a Content, rejecting
// unknown discriminants and payload/discriminant mismatches.
func Decode(data []byte) (Content, error) {
	var c Content
	if err := json.Unmarshal(data, &c); err != nil {
		return Content{}, fmt.Errorf("decode content: %w", err)
	}
	switch c.Type {
	case TypeText:
		if c.Text == nil {
			return Content{}, fmt.Errorf("content %q: missing text payload", c.Type)
		}
	case TypeImage:
		if c.Image == nil {
			return Content{}, fmt.Errorf("content %q: missing image payload", c.Type)
		}
	case TypeFile:
		if c.File == nil {
			return Content{}, fmt.Errorf("content %q: missing file payload", c.Type)
		}
	case TypeTransaction:
		if c.Transaction == nil {
			return Content{}, fmt.Errorf("content %q: missing transaction payload", c.Type)
		}
	default:
		return Content{}, fmt.Errorf("%w: %q", ErrUnknownType, c.Type)
	}
	return c, nil
}
