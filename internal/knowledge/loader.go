// Package knowledge loads retrieval corpora, splits them into chunks and
// serves nearest-neighbour lookups over a chromem-go collection.
package knowledge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.uber.org/zap"
)

var ErrInvalidDocURL = errors.New("invalid Google Docs URL")

// DefaultPatterns are the files LoadDir picks up.
var DefaultPatterns = []string{"**/*.txt", "**/*.md", "**/*.pdf"}

var docIDRe = regexp.MustCompile(`/document/d/([a-zA-Z0-9_-]+)`)

// httpClient is shared by the remote loaders.
var httpClient = &http.Client{Timeout: 30 * time.Second}

func LoadFile(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return pdfText(path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// GoogleDocExportURL turns a shared document link into its plain-text export
// link.
func GoogleDocExportURL(url string) (string, error) {
	url = strings.TrimSpace(url)
	if i := strings.Index(url, "/edit"); i >= 0 {
		url = url[:i]
	}
	m := docIDRe.FindStringSubmatch(url)
	if m == nil {
		return "", ErrInvalidDocURL
	}
	return "https://docs.google.com/document/d/" + m[1] + "/export?format=txt", nil
}

func LoadGoogleDoc(ctx context.Context, url string) (string, error) {
	export, err := GoogleDocExportURL(url)
	if err != nil {
		return "", err
	}
	return fetch(ctx, export)
}

func fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// LoadDir concatenates every matching file under dir. Each file is preceded by
// a "--- Документ: name ---" header. Unreadable files are logged and skipped.
func LoadDir(ctx context.Context, dir string, patterns []string, log *zap.Logger) (string, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}
	fsys := os.DirFS(dir)

	seen := map[string]bool{}
	var files []string
	for _, p := range patterns {
		matches, err := doublestar.Glob(fsys, p)
		if err != nil {
			return "", fmt.Errorf("glob %s: %w", p, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	sort.Strings(files)

	var b strings.Builder
	for _, rel := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := LoadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			log.Warn("skip unreadable document", zap.String("file", rel), zap.Error(err))
			continue
		}
		log.Debug("loaded document", zap.String("file", rel), zap.Int("chars", len([]rune(text))))
		fmt.Fprintf(&b, "\n\n--- Документ: %s ---\n\n%s", filepath.Base(rel), text)
	}
	return b.String(), nil
}

// LoadSource reads a corpus from a Google Docs link, an http(s) URL, a
// directory or a single file.
func LoadSource(ctx context.Context, source string, log *zap.Logger) (string, error) {
	switch {
	case strings.Contains(source, "docs.google.com/document/"):
		return LoadGoogleDoc(ctx, source)
	case strings.HasPrefix(source, "http://"), strings.HasPrefix(source, "https://"):
		return fetch(ctx, source)
	}
	fi, err := os.Stat(source)
	if errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("corpus source %s: %w", source, err)
	}
	if err != nil {
		return "", err
	}
	if fi.IsDir() {
		return LoadDir(ctx, source, nil, log)
	}
	return LoadFile(source)
}
