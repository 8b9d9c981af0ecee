// Package namelist loads identity filters from files.
package namelist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadNames reads one name per line from path. Blank lines and lines starting
// with '#' are skipped; surrounding whitespace is trimmed.
func LoadNames(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only names file.
			_ = cerr
		}
	}()

	var names []string
	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.ContainsAny(line, " \t") {
			return nil, fmt.Errorf("%s:%d: expected one name per line, got %q", path, lineNo, line)
		}
		names = append(names, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
