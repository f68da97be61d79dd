//go:build !linux

package ax25

import (
	"errors"
	"os"
)

func setRawMode(*os.File) error {
	return errors.ErrUnsupported
}
