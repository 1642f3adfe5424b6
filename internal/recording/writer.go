package recording

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

// ErrWriterClosed is returned by Write after Close.
var ErrWriterClosed = errors.New("recording writer is closed")

// hourLayout names one file per UTC hour.
const hourLayout = "2006-01-02-15"

// Stats counts writer activity.
type Stats struct {
	TotalWritten  int64
	BytesWritten  int64
	WriteErrors   int64
	Rotations     int64
	LastWriteTime time.Time
}

// Writer appends protojson records to zstd-compressed JSONL files under
// dir, one file per hour: <prefix>-YYYY-MM-DD-HH.jsonl.zst.
type Writer struct {
	dir    string
	prefix string
	now    func() time.Time

	mu      sync.Mutex
	closed  bool
	curHour string
	curPath string
	f       *os.File
	enc     *zstd.Encoder
	w       *bufio.Writer
	stats   Stats
}

// NewWriter creates a writer. No file is opened until the first Write.
func NewWriter(dir, prefix string) *Writer {
	if prefix == "" {
		prefix = "episodes"
	}
	return &Writer{dir: dir, prefix: prefix, now: time.Now}
}

// Write appends one record, rotating first if the hour changed.
func (w *Writer) Write(rec *structpb.Struct) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return ErrWriterClosed
	}
	hour := w.now().UTC().Format(hourLayout)
	if hour != w.curHour {
		if err := w.rotateLocked(hour); err != nil {
			w.stats.WriteErrors++
			return err
		}
	}

	b, err := protojson.Marshal(rec)
	if err != nil {
		w.stats.WriteErrors++
		return fmt.Errorf("marshal record: %w", err)
	}
	if _, err := w.w.Write(b); err != nil {
		w.stats.WriteErrors++
		return fmt.Errorf("write record: %w", err)
	}
	if err := w.w.WriteByte('\n'); err != nil {
		w.stats.WriteErrors++
		return fmt.Errorf("write record: %w", err)
	}
	if err := w.w.Flush(); err != nil {
		w.stats.WriteErrors++
		return fmt.Errorf("flush record: %w", err)
	}
	w.stats.TotalWritten++
	w.stats.BytesWritten += int64(len(b) + 1)
	w.stats.LastWriteTime = w.now()
	return nil
}

// Path returns the file currently being written, or "".
func (w *Writer) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.curPath
}

// Stats returns a snapshot of the counters.
func (w *Writer) Stats() Stats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Close finalizes the current file. Further writes fail.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.closeLocked()
}

func (w *Writer) rotateLocked(hour string) error {
	if err := w.closeLocked(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create recording dir: %w", err)
	}
	path := w.pathForHour(hour)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open recording file: %w", err)
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("create zstd encoder: %w", err)
	}
	w.f = f
	w.enc = enc
	w.w = bufio.NewWriterSize(enc, 64*1024)
	w.curHour = hour
	w.curPath = path
	w.stats.Rotations++
	return nil
}

func (w *Writer) closeLocked() error {
	var err error
	if w.w != nil {
		_ = w.w.Flush()
	}
	if w.enc != nil {
		err = w.enc.Close()
		w.enc = nil
	}
	if w.f != nil {
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	w.w = nil
	return err
}

func (w *Writer) pathForHour(hour string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s-%s.jsonl.zst", w.prefix, hour))
}

// ReadFile decodes every record in a file written by Writer. Appended
// sessions produce concatenated zstd frames, which the decoder reads in
// sequence.
func ReadFile(path string) ([]*structpb.Struct, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}
	defer dec.Close()

	var out []*structpb.Struct
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		rec := &structpb.Struct{}
		if err := protojson.Unmarshal(line, rec); err != nil {
			return nil, fmt.Errorf("unmarshal record %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return out, nil
}

// Files lists the recording files for prefix under dir, oldest first.
func Files(dir, prefix string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, prefix+"-*.jsonl.zst"))
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	return files, nil
}
