package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// pollInterval is how often a following Tail re-checks the file for new lines.
const pollInterval = 250 * time.Millisecond

// TailOptions controls a single Tail call. A negative Offset requests the
// last Limit complete lines of the file; a non-negative Offset reads forward
// from that byte position. With Follow set and nothing to read, Tail keeps
// polling the file for up to Wait before returning empty.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read and the byte offset to resume from on the
// next call.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads complete lines from the daemon log at path. A missing file is
// not an error; the caller simply gets no lines and a zero resume offset.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	if opts.Wait < 0 {
		opts.Wait = 0
	}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return TailResult{}, nil
	case err != nil:
		return TailResult{Offset: opts.Offset}, fmt.Errorf("stat daemon log: %w", err)
	case info.IsDir():
		return TailResult{Offset: opts.Offset}, fmt.Errorf("daemon log %q is a directory", path)
	}

	var result TailResult
	if opts.Offset < 0 {
		result, err = lastLines(path, opts.Limit)
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			offset = info.Size()
		}
		result, err = linesFrom(path, offset)
	}
	if err != nil {
		return result, err
	}

	if opts.Follow && opts.Wait > 0 && len(result.Lines) == 0 {
		return pollForLines(ctx, path, result.Offset, opts.Wait)
	}
	return result, nil
}

// lastLines scans the whole file keeping only the trailing limit lines. The
// returned offset is the end of the file, so a follow-up call picks up right
// after what was shown.
func lastLines(path string, limit int) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{}, fmt.Errorf("open daemon log: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return TailResult{}, fmt.Errorf("seek daemon log: %w", err)
		}
		return TailResult{Offset: end}, nil
	}

	scanner := lineScanner(file)
	var kept []string
	for scanner.Scan() {
		kept = append(kept, scanner.Text())
		if len(kept) > limit {
			copy(kept, kept[1:])
			kept = kept[:limit]
		}
	}
	if err := scanner.Err(); err != nil {
		return TailResult{}, fmt.Errorf("scan daemon log: %w", err)
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return TailResult{}, fmt.Errorf("seek daemon log: %w", err)
	}
	return TailResult{Lines: kept, Offset: end}, nil
}

// linesFrom reads every complete line from offset to the end of the file.
func linesFrom(path string, offset int64) (TailResult, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return TailResult{}, nil
		}
		return TailResult{Offset: offset}, fmt.Errorf("open daemon log: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("seek daemon log: %w", err)
	}

	scanner := lineScanner(file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("scan daemon log: %w", err)
	}

	pos, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return TailResult{Offset: offset}, fmt.Errorf("locate daemon log position: %w", err)
	}
	return TailResult{Lines: lines, Offset: pos}, nil
}

// pollForLines re-reads from offset until a line shows up or the wait budget
// runs out. The daemon appends whole lines, so the first successful read is
// returned as-is.
func pollForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		result, err := linesFrom(path, offset)
		if err != nil || len(result.Lines) > 0 {
			return result, err
		}
		offset = result.Offset

		if !time.Now().Before(deadline) {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

func lineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	return scanner
}
