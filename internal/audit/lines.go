package audit

import (
	"bufio"
	"errors"
	"fmt"
	"os"
)

// maxLineBytes bounds one JSONL entry. Entries hold IDs and tags only.
const maxLineBytes = 1 << 20

// errStop ends eachLine early without reporting an error.
var errStop = errors.New("stop")

// eachLine calls fn with every line of the file at path, numbered from 1.
// The slice is only valid for the duration of the call.
func eachLine(path string, fn func(n int, line []byte) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	n := 0
	for sc.Scan() {
		n++
		if err := fn(n, sc.Bytes()); err != nil {
			if errors.Is(err, errStop) {
				return nil
			}
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("line %d: %w", n+1, err)
	}
	return nil
}
