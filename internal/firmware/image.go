package firmware

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// Extension is the only image format the bootloaders accept.
const Extension = ".uf2"

// PreconditionError rejects an input file before any device is polled.
type PreconditionError struct {
	Path   string
	Reason string
	Err    error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%q %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("%q %s", e.Path, e.Reason)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// Image is a validated firmware file.
type Image struct {
	Path string
	Name string
	Size int64
	// Digest is the hex BLAKE2b-256 of the contents, logged so operators can
	// tell which build went onto the device. It is not checked against anything.
	Digest string
}

// Load checks that path is an existing regular .uf2 file and summarizes it.
func Load(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &PreconditionError{Path: path, Reason: "does not exist"}
		}
		return nil, &PreconditionError{Path: path, Reason: "cannot be read", Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, &PreconditionError{Path: path, Reason: "is not a regular file"}
	}
	if filepath.Ext(path) != Extension {
		return nil, &PreconditionError{Path: path, Reason: "has an invalid file format, expected " + Extension}
	}

	digest, err := digestFile(path)
	if err != nil {
		return nil, &PreconditionError{Path: path, Reason: "cannot be read", Err: err}
	}

	return &Image{
		Path:   path,
		Name:   filepath.Base(path),
		Size:   info.Size(),
		Digest: digest,
	}, nil
}

func digestFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
