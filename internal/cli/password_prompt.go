package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// ReadPassword prompts on out and reads a password from in without echo
// when in is a terminal. Piped input is read as a single line.
func ReadPassword(in *os.File, out io.Writer, prompt string) (string, error) {
	if in == nil {
		return "", errors.New("stdin unavailable")
	}
	fmt.Fprint(out, prompt)

	if fd := int(in.Fd()); term.IsTerminal(fd) {
		password, err := term.ReadPassword(fd)
		fmt.Fprintln(out)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(password), nil
	}
	return readLine(in)
}

// ReadLine prompts on out and reads one trimmed line from in.
func ReadLine(in io.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	line, err := readLine(in)
	return strings.TrimSpace(line), err
}

// readLine reads one byte at a time so consecutive prompts on the same
// stream do not consume each other's input.
func readLine(in io.Reader) (string, error) {
	var line []byte
	buffer := make([]byte, 1)
	for {
		n, err := in.Read(buffer)
		if n > 0 {
			if buffer[0] == '\n' {
				break
			}
			line = append(line, buffer[0])
		}
		if errors.Is(err, io.EOF) {
			if len(line) == 0 {
				return "", io.ErrUnexpectedEOF
			}
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimRight(string(line), "\r"), nil
}
