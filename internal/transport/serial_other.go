//go:build !linux

package transport

import (
	"errors"
	"os"
)

func makeRaw(*os.File) error {
	return errors.New("raw tty mode is only supported on linux")
}
