package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// maxInputBytes caps text read from stdin or a file.
const maxInputBytes = 1 << 20

var (
	errBackend    = errors.New("backend error")
	errEmptyInput = errors.New("no input text (pass TEXT or pipe it on stdin with -)")
	errTooLarge   = errors.New("input exceeds 1 MiB")
)

// readText joins args into the input text. No args or a single "-" reads
// stdin instead.
func readText(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		return readAll(stdin)
	}
	return strings.Join(args, " "), nil
}

// readSource reads a named file, or stdin for "" and "-".
func readSource(stdin io.Reader, name string) (string, error) {
	if name == "" || name == "-" {
		return readAll(stdin)
	}
	f, err := os.Open(name)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return readAll(f)
}

func readAll(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes+1))
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if len(data) > maxInputBytes {
		return "", errTooLarge
	}
	return string(data), nil
}
