package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// GenesisHash is the prev_hash for the first entry in a new audit log.
const GenesisHash = "sha256:0000000000000000000000000000000000000000000000000000000000000000"

// TimestampFormat is the layout used in entry timestamps.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Log is an append-only JSONL verdict log. Each entry's prev_hash is the
// hash of the previous line, so editing or dropping a line breaks the chain.
type Log struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	head    string
	entries int
}

// Open opens or creates the log at path. An existing file is read once to
// recover the chain head; its contents are not verified.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}

	l := &Log{path: path, head: GenesisHash}
	err := eachLine(path, func(n int, line []byte) error {
		l.head = HashLine(line)
		l.entries = n
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("audit: read existing log: %w", err)
	}

	l.file, err = os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}
	return l, nil
}

// Record chains entry onto the log and syncs it to disk. Timestamp is filled
// when empty and a nil Patterns slice is written as [].
func (l *Log) Record(entry Entry) error {
	if entry.Timestamp == "" {
		entry.Timestamp = time.Now().UTC().Format(TimestampFormat)
	}
	if entry.Patterns == nil {
		entry.Patterns = []string{}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entry.PrevHash = l.head
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: marshal entry: %w", err)
	}
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write entry: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}

	l.head = HashLine(line)
	l.entries++
	return nil
}

// Head returns the hash of the last written line and the number of entries.
// An empty log reports GenesisHash and 0.
func (l *Log) Head() (string, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.head, l.entries
}

// Path returns the file the log appends to.
func (l *Log) Path() string {
	return l.path
}

// Close closes the underlying file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// HashLine returns "sha256:<hex>" of line without its trailing newline.
func HashLine(line []byte) string {
	h := sha256.Sum256(line)
	return "sha256:" + hex.EncodeToString(h[:])
}
