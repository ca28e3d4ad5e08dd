// Package platform abstracts the host services the engine needs:
// content hashing and data-URL encoding.
package platform

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// Capabilities is implemented by every host the engine can run on.
type Capabilities interface {
	// Hash returns the lowercase hex SHA-256 digest of data.
	Hash(data []byte) string
	// DataURL returns data as a base64 "data:" URL of the given MIME type.
	DataURL(mime string, data []byte) string
}

// Native computes everything in-process.
type Native struct{}

func (Native) Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (Native) DataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Host delegates to functions supplied by an embedding environment.
// Nil functions fall back to Native.
type Host struct {
	HashFunc    func(data []byte) string
	DataURLFunc func(mime string, data []byte) string
}

func (h Host) Hash(data []byte) string {
	if h.HashFunc == nil {
		return Native{}.Hash(data)
	}
	return h.HashFunc(data)
}

func (h Host) DataURL(mime string, data []byte) string {
	if h.DataURLFunc == nil {
		return Native{}.DataURL(mime, data)
	}
	return h.DataURLFunc(mime, data)
}

// OrNative returns c, or Native when c is nil.
func OrNative(c Capabilities) Capabilities {
	if c == nil {
		return Native{}
	}
	return c
}
