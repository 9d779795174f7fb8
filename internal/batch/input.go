package batch

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadInputs reads one address or name per line. Blank lines and lines
// starting with # are skipped.
func ReadInputs(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}
	return out, nil
}

// ReadInputFile is ReadInputs over a file path.
func ReadInputFile(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open inputs: %w", err)
	}
	defer file.Close()
	return ReadInputs(file)
}
