//go:build !unix

package util

import "os"

func statDev(info os.FileInfo) (uint64, bool) {
	return 0, false
}
