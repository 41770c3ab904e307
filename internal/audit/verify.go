package audit

import (
	"encoding/json"
	"fmt"
)

// VerifyResult holds the outcome of a hash chain verification.
type VerifyResult struct {
	Valid     bool   `json:"valid"`
	Lines     int    `json:"lines"`
	Blocked   int    `json:"blocked"`
	Head      string `json:"head,omitempty"`
	Error     string `json:"error,omitempty"`
	ErrorLine int    `json:"error_line,omitempty"`
}

// brokenLink reports where the chain stops holding.
type brokenLink struct {
	line int
	msg  string
}

func (b *brokenLink) Error() string { return b.msg }

// Verify walks the log at path and checks that every prev_hash matches the
// line before it. Only the first broken link is reported.
func Verify(path string) VerifyResult {
	res := VerifyResult{Head: GenesisHash}

	err := eachLine(path, func(n int, line []byte) error {
		var entry Entry
		if err := json.Unmarshal(line, &entry); err != nil {
			return &brokenLink{line: n, msg: fmt.Sprintf("parse error: %v", err)}
		}
		if entry.PrevHash != res.Head {
			if n == 1 {
				return &brokenLink{line: n, msg: fmt.Sprintf("first entry prev_hash is %q, expected genesis hash", entry.PrevHash)}
			}
			return &brokenLink{line: n, msg: fmt.Sprintf("hash mismatch: expected %s, got %s", res.Head, entry.PrevHash)}
		}
		res.Head = HashLine(line)
		res.Lines = n
		if entry.Blocked {
			res.Blocked++
		}
		return nil
	})

	if err != nil {
		res.Head = ""
		if bl, ok := err.(*brokenLink); ok {
			res.Error, res.ErrorLine = bl.msg, bl.line
		} else {
			res.Error = err.Error()
		}
		return res
	}
	res.Valid = true
	return res
}

// Tail returns up to n of the last well-formed entries, oldest first.
func Tail(path string, n int) ([]Entry, error) {
	if n <= 0 {
		return []Entry{}, nil
	}
	ring := make([]Entry, 0, n)
	err := eachLine(path, func(_ int, line []byte) error {
		var e Entry
		if json.Unmarshal(line, &e) != nil {
			return nil
		}
		if len(ring) == n {
			copy(ring, ring[1:])
			ring = ring[:n-1]
		}
		ring = append(ring, e)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read audit log: %w", err)
	}
	return ring, nil
}
