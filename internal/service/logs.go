package service

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// defaultLogLines is how many trailing lines the logs command shows.
const defaultLogLines = 50

// TailFile returns up to n trailing lines of a log file.
//
// The file is read front to back with a ring of the last n lines; daemon
// log files stay small enough that a seek-from-end scheme is not worth it.
//
// Parameters:
//   - path: Log file to read
//   - n: Number of trailing lines (default 50 when n <= 0)
//
// Returns:
//   - []string: The trailing lines, oldest first
//   - error: If the file cannot be read; a missing file yields os.IsNotExist
func TailFile(path string, n int) ([]string, error) {
	if n <= 0 {
		n = defaultLogLines
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	ring := make([]string, 0, n)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(ring) == n {
			ring = ring[1:]
		}
		ring = append(ring, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading log file: %w", err)
	}

	return ring, nil
}

// WriteTail writes the trailing lines of a log file to w, one per line.
func WriteTail(w io.Writer, path string, n int) error {
	lines, err := TailFile(path, n)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
	return nil
}
