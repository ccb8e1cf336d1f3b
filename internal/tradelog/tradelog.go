package tradelog

import (
	"bufio"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

const timeLayout = "2006-01-02 15:04:05"

// Entry is one order sent to the broker. Qty is contracts and Price is the
// per-share premium.
type Entry struct {
	Time         string
	Symbol       string
	OptionSymbol string
	Side         string
	Qty          int
	Price        float64
	OrderID      string
	Reason       string
	Confidence   float64
	Extra        map[string]any `json:"extra,omitempty"`
}

type DecisionEntry struct {
	Time          string
	Symbol        string
	Action        string
	OptionType    string
	Confidence    float64
	CombinedScore float64
	Price         float64
	Scores        map[string]float64
	Indicators    map[string]float64
	Reason        string
	PriceSource   string
	IsRealData    bool
	Extra         map[string]any `json:"extra,omitempty"`
}

// Journal appends JSON lines to one file per market day.
type Journal struct {
	mu  sync.Mutex
	dir string
	loc *time.Location
	now func() time.Time
}

func New(dir string, loc *time.Location) *Journal {
	if dir == "" {
		dir = "logs"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Journal{dir: dir, loc: loc, now: time.Now}
}

func (j *Journal) Dir() string { return j.dir }

func (j *Journal) Location() *time.Location { return j.loc }

// Now is the current time in the journal's timezone.
func (j *Journal) Now() time.Time { return j.now().In(j.loc) }

func (j *Journal) TradesPath(t time.Time) string {
	return filepath.Join(j.dir, t.In(j.loc).Format("2006-01-02")+".txt")
}

func (j *Journal) DecisionsPath(t time.Time) string {
	return filepath.Join(j.dir, "decisions", t.In(j.loc).Format("2006-01-02")+".txt")
}

func (j *Journal) Append(e Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := j.Now()
	e.Time = now.Format(timeLayout)
	return appendLine(j.TradesPath(now), e)
}

func (j *Journal) AppendDecision(e DecisionEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	now := j.Now()
	e.Time = now.Format(timeLayout)
	return appendLine(j.DecisionsPath(now), e)
}

func appendLine(p string, v any) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// ReadTrades returns the entries journaled on the market day of t. A day
// without a file yields no entries and no error. Malformed lines are skipped.
func (j *Journal) ReadTrades(t time.Time) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	f, err := os.Open(j.TradesPath(t))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, sc.Err()
}

// CompressOlder gzips journal files last modified before the retention
// window and removes the originals.
func (j *Journal) CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	cutoff := j.now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(j.dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err == nil {
			_ = os.Remove(p)
		}
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	_, copyErr := io.Copy(gw, in)
	closeErr := gw.Close()
	fileErr := out.Close()
	if err := errors.Join(copyErr, closeErr, fileErr); err != nil {
		_ = os.Remove(dst)
		return err
	}
	return nil
}
