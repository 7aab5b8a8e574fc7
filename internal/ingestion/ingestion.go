// Package ingestion turns resume files into plain text.
package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spigell/recruit-panel/internal/logger"
	"github.com/spigell/recruit-panel/internal/recruitment"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"go.uber.org/zap"
)

const s3Scheme = "s3://"

var (
	ErrUnsupported = errors.New("unsupported resume format")
	ErrNoObjects   = errors.New("object storage is not configured")
)

// objectGetter is the part of *s3.Client the loader needs.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type Loader struct {
	objects objectGetter
	logger  *zap.Logger
}

type Option func(*Loader)

// WithObjects enables s3://bucket/key sources.
func WithObjects(client objectGetter) Option {
	return func(l *Loader) { l.objects = client }
}

func NewLoader(log *zap.Logger, opts ...Option) *Loader {
	l := &Loader{logger: logger.OrNop(log)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads source, a local path or s3://bucket/key, and extracts its text
// by file extension. Text that looks binary is rejected as an invalid resume.
func (l *Loader) Load(ctx context.Context, source string) (string, error) {
	data, err := l.read(ctx, source)
	if err != nil {
		return "", err
	}

	text, err := Extract(filepath.Ext(source), data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", source, err)
	}

	text = strings.TrimSpace(text)
	if recruitment.LooksBinary(text) {
		return "", fmt.Errorf("%w: %s does not contain readable text", recruitment.ErrInvalidResume, source)
	}

	l.logger.Debug("resume loaded", zap.String("source", source), zap.Int("chars", len([]rune(text))))
	return text, nil
}

func (l *Loader) read(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, s3Scheme) {
		data, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("read resume: %w", err)
		}
		return data, nil
	}

	if l.objects == nil {
		return nil, ErrNoObjects
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(source, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid object location %q", source)
	}

	out, err := l.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	defer out.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return buf.Bytes(), nil
}

// Extract converts file contents to text based on the file extension.
func Extract(ext string, data []byte) (string, error) {
	switch strings.ToLower(ext) {
	case ".txt", ".md", "":
		return string(data), nil
	case ".pdf":
		return extractPDFText(data)
	case ".docx":
		return extractDocxText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return documentText(doc.Editable().GetContent()), nil
}

var (
	paragraphEnd = regexp.MustCompile(`</w:p>|<w:br\s*/>|<w:tab\s*/>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	xmlEntities  = strings.NewReplacer("&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'")
)

// documentText flattens WordprocessingML to text with one line per paragraph.
func documentText(xml string) string {
	xml = paragraphEnd.ReplaceAllStringFunc(xml, func(tag string) string {
		if strings.HasPrefix(tag, "<w:tab") {
			return " "
		}
		return "\n"
	})
	text := xmlEntities.Replace(xmlTag.ReplaceAllString(xml, ""))

	lines := strings.Split(text, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
