package util

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"

	"github.com/google/uuid"
)

// runSpace namespaces run ids derived from batch settings
var runSpace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/jpfielding/histeq.go/run"))

// Digest is a quick md5 hex fingerprint of pixel data
func Digest(pix []byte) string {
	sum := md5.Sum(pix)
	return hex.EncodeToString(sum[:])
}

// RunID derives a stable UUID from any JSON-serializable value, so the same
// settings over the same images always report under the same id. A value that
// cannot be marshaled gets a random id.
func RunID(value any) string {
	raw, err := json.Marshal(value)
	if err != nil {
		return uuid.NewString()
	}
	return uuid.NewSHA1(runSpace, raw).String()
}
