package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNativeHash(t *testing.T) {
	assert.Equal(t,
		"e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		Native{}.Hash(nil))
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		Native{}.Hash([]byte("abc")))
}

func TestNativeDataURL(t *testing.T) {
	assert.Equal(t, "data:image/png;base64,AQID", Native{}.DataURL("image/png", []byte{1, 2, 3}))
	assert.Equal(t, "data:text/plain;base64,", Native{}.DataURL("text/plain", nil))
}

func TestHostDelegatesAndFallsBack(t *testing.T) {
	h := Host{HashFunc: func([]byte) string { return "host" }}
	assert.Equal(t, "host", h.Hash([]byte("abc")))
	assert.Equal(t, Native{}.DataURL("a/b", []byte("x")), h.DataURL("a/b", []byte("x")))

	h = Host{DataURLFunc: func(mime string, _ []byte) string { return "url:" + mime }}
	assert.Equal(t, Native{}.Hash([]byte("abc")), h.Hash([]byte("abc")))
	assert.Equal(t, "url:a/b", h.DataURL("a/b", nil))
}

func TestOrNative(t *testing.T) {
	assert.Equal(t, Native{}, OrNative(nil))
	h := Host{}
	assert.Equal(t, h, OrNative(h))
}
