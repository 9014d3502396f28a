package pipeline

import (
	"bufio"
	"fmt"
	"os"
)

// WriteFailedLog replaces path with one URL per line. Nothing is written
// for an empty list.
func WriteFailedLog(path string, urls []string) error {
	if len(urls) == 0 {
		return nil
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, u := range urls {
		if _, err := fmt.Fprintln(w, u); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return f.Close()
}
