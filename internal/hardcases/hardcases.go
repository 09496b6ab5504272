// Package hardcases holds the dictionary of ready answers for tricky spelling
// questions. A match is answered directly without retrieval or a model call.
package hardcases

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Case is one dictionary entry.
type Case struct {
	Trigger string `json:"trigger"`
	Text    string `json:"answer"`
	Rule    string `json:"rule,omitempty"`
}

// Answer is the reply text with the rule appended when there is one.
func (c Case) Answer() string {
	if c.Rule == "" {
		return c.Text
	}
	return c.Text + " Правило: " + c.Rule
}

var ErrMissingColumn = errors.New("hard cases csv: missing column")

// Dictionary maps lowercased triggers to cases. It is safe for concurrent use
// and can be reloaded in place.
type Dictionary struct {
	mu    sync.RWMutex
	cases []Case // longest trigger first
}

func New(cases ...Case) *Dictionary {
	d := &Dictionary{}
	d.set(cases)
	return d
}

func (d *Dictionary) set(cases []Case) {
	// a repeated trigger keeps its first position and takes the later answer
	pos := make(map[string]int, len(cases))
	out := make([]Case, 0, len(cases))
	for _, c := range cases {
		c.Trigger = strings.ToLower(strings.TrimSpace(c.Trigger))
		if c.Trigger == "" {
			continue
		}
		if i, ok := pos[c.Trigger]; ok {
			out[i] = c
			continue
		}
		pos[c.Trigger] = len(out)
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return len([]rune(out[i].Trigger)) > len([]rune(out[j].Trigger))
	})

	d.mu.Lock()
	d.cases = out
	d.mu.Unlock()
}

// Match returns the case whose trigger occurs in the question. When several
// triggers occur the longest one wins.
func (d *Dictionary) Match(question string) (Case, bool) {
	q := strings.ToLower(question)
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, c := range d.cases {
		if strings.Contains(q, c.Trigger) {
			return c, true
		}
	}
	return Case{}, false
}

func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cases)
}

// Parse reads a CSV with a header row containing trigger, answer and rule.
// A trigger cell may list several triggers separated by "|".
func Parse(r io.Reader) ([]Case, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("hard cases csv header: %w", err)
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}
	for _, name := range []string{"trigger", "answer"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w %q", ErrMissingColumn, name)
		}
	}
	cell := func(rec []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	var out []Case
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("hard cases csv: %w", err)
		}
		answer, rule := cell(rec, "answer"), cell(rec, "rule")
		for _, trig := range strings.Split(cell(rec, "trigger"), "|") {
			if trig = strings.TrimSpace(trig); trig != "" {
				out = append(out, Case{Trigger: trig, Text: answer, Rule: rule})
			}
		}
	}
	return out, nil
}

var httpClient = &http.Client{Timeout: 20 * time.Second}

func open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", source, resp.StatusCode)
	}
	return resp.Body, nil
}

// Load reads the dictionary from a file path or URL, replacing its contents.
func (d *Dictionary) Load(ctx context.Context, source string) error {
	rc, err := open(ctx, source)
	if err != nil {
		return err
	}
	defer rc.Close()
	cases, err := Parse(rc)
	if err != nil {
		return err
	}
	d.set(cases)
	return nil
}

// LoadOrEmpty returns a dictionary loaded from source. Failures are logged and
// leave the dictionary empty.
func LoadOrEmpty(ctx context.Context, source string, log *zap.Logger) *Dictionary {
	d := New()
	if source == "" {
		return d
	}
	if err := d.Load(ctx, source); err != nil {
		log.Error("load hard cases", zap.String("source", source), zap.Error(err))
		return d
	}
	log.Info("hard cases loaded", zap.Int("triggers", d.Len()))
	return d
}
