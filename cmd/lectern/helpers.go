package main

import (
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
)

const roundTo = 100 * time.Millisecond

func isTerminal(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
