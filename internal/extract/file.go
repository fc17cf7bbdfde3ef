package extract

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"github.com/mentora-ai/mentora/internal/errors"
)

const maxFileBytes = 50 << 20

// Document is the text content of a local file.
type Document struct {
	Path   string `json:"path"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
	Pages  int    `json:"pages,omitempty"`
	Length int    `json:"length"`
}

// Files extracts text from local documents.
type Files struct{}

// NewFiles creates a file extractor.
func NewFiles() *Files { return &Files{} }

// Extract reads pathOrURI, a plain path or a file:// URI.
func (f *Files) Extract(ctx context.Context, pathOrURI string) (*Document, error) {
	path, err := ResolvePath(pathOrURI)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewBuilder(errors.CodeExtractFailed, "cannot open file").
			User().
			Wrap(err).
			WithContext("path", path).
			Build()
	}
	if info.IsDir() {
		return nil, errors.User(errors.CodeInvalidInput, "path is a directory: "+path)
	}
	if info.Size() > maxFileBytes {
		return nil, errors.User(errors.CodeUnsupportedFile, "file too large: "+strconv.FormatInt(info.Size(), 10)+" bytes")
	}

	doc := &Document{Path: path, Name: filepath.Base(path)}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".txt", ".md", ".markdown", ".text":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeExtractFailed, "failed to read file", errors.CategorySystem)
		}
		if !utf8.Valid(data) {
			return nil, errors.User(errors.CodeUnsupportedFile, "file is not UTF-8 text")
		}
		doc.Kind = "text"
		doc.Text = CleanText(string(data))

	case ".html", ".htm":
		fh, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeExtractFailed, "failed to open file", errors.CategorySystem)
		}
		defer fh.Close()
		page, err := ParseHTML(fh, "", "file://"+path)
		if err != nil {
			return nil, err
		}
		doc.Kind = "html"
		doc.Title = page.Title
		doc.Text = page.Text

	case ".pdf":
		text, pages, err := readPDF(path)
		if err != nil {
			return nil, err
		}
		doc.Kind = "pdf"
		doc.Text = text
		doc.Pages = pages

	default:
		return nil, errors.NewBuilder(errors.CodeUnsupportedFile, "unsupported file type: "+nonEmptyExt(ext)).
			User().
			WithSuggestion("Upload a .txt, .md, .html or .pdf file").
			Build()
	}

	doc.Length = utf8.RuneCountInString(doc.Text)
	return doc, nil
}

// readPDF returns the plain text of every page with text, page by page.
func readPDF(path string) (string, int, error) {
	fh, r, err := pdf.Open(path)
	if err != nil {
		return "", 0, errors.Wrap(err, errors.CodeExtractFailed, "failed to open PDF", errors.CategoryPermanent)
	}
	defer fh.Close()

	n := r.NumPage()
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		pg := r.Page(i)
		if pg.V.IsNull() {
			continue
		}
		txt, err := pg.GetPlainText(nil)
		if err != nil {
			// Image-only pages have no text.
			continue
		}
		if s := strings.TrimSpace(txt); s != "" {
			parts = append(parts, s)
		}
	}
	return CleanText(strings.Join(parts, "\n\n")), n, nil
}

// ResolvePath turns a plain path or a file:// URI into a clean local path.
func ResolvePath(pathOrURI string) (string, error) {
	s := strings.TrimSpace(pathOrURI)
	if s == "" {
		return "", errors.User(errors.CodeInvalidInput, "file path is empty")
	}
	if strings.HasPrefix(s, "file://") {
		u, err := url.Parse(s)
		if err != nil {
			return "", errors.Wrap(err, errors.CodeInvalidInput, "invalid file URI", errors.CategoryUser)
		}
		s = u.Path
	} else if strings.Contains(s, "://") {
		return "", errors.User(errors.CodeUnsupportedFile, "only file:// URIs are supported")
	}
	return filepath.Clean(s), nil
}

func nonEmptyExt(ext string) string {
	if ext == "" {
		return "(none)"
	}
	return ext
}
