package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"testing/fstest"
	"time"

	"github.com/bitrise-io/go-pdfcompress/config"
	"github.com/bitrise-io/go-pdfcompress/document"
	"github.com/bitrise-io/go-pdfcompress/internal"
	"github.com/bitrise-io/go-pdfcompress/internal/testutil"
	"github.com/bitrise-io/go-utils/v2/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testPDFContent = string(testutil.OnePagePDF())

type fakeEnvRepo struct {
	envVars map[string]string
}

func (repo fakeEnvRepo) Get(key string) string {
	return repo.envVars[key]
}

func (repo fakeEnvRepo) Set(key, value string) error {
	repo.envVars[key] = value
	return nil
}

func (repo fakeEnvRepo) Unset(key string) error {
	delete(repo.envVars, key)
	return nil
}

func (repo fakeEnvRepo) List() []string {
	envs := []string{}
	for k, v := range repo.envVars {
		envs = append(envs, fmt.Sprintf("%s=%s", k, v))
	}
	return envs
}

func runCmd(t *testing.T, envVars map[string]string, args ...string) (string, error) {
	t.Helper()
	if envVars == nil {
		envVars = map[string]string{}
	}
	cmd := NewRootCmd(fakeEnvRepo{envVars: envVars}, log.NewLogger())
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type fakeService struct {
	compressed []byte
	status     int
	detail     string
	uploads    []string
}

func (s *fakeService) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/compress", func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		s.uploads = append(s.uploads, header.Filename)

		w.Header().Set("Content-Type", "application/json")
		if s.status != 0 && s.status != http.StatusOK {
			w.WriteHeader(s.status)
			assert.NoError(t, json.NewEncoder(w).Encode(map[string]string{"detail": s.detail}))
			return
		}
		assert.NoError(t, json.NewEncoder(w).Encode(map[string]interface{}{
			"filename":          "compressed_" + header.Filename,
			"original_size":     header.Size,
			"compressed_size":   len(s.compressed),
			"compression_ratio": 42.5,
			"download_url":      "/api/download/compressed_" + header.Filename,
		}))
	})
	mux.HandleFunc("/api/download/", func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, filepath.Base(r.URL.Path), time.Time{}, bytes.NewReader(s.compressed))
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if s.status == http.StatusServiceUnavailable {
			w.WriteHeader(s.status)
		}
		assert.NoError(t, json.NewEncoder(w).Encode(map[string]string{"status": "healthy"}))
	})
	return mux
}

func TestURLCmd(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		args    []string
		want    string
		wantErr bool
	}{
		{
			name: "default base url",
			args: []string{"url", "report.pdf"},
			want: "http://localhost:8000/api/download/report.pdf\n",
		},
		{
			name:    "base url from env",
			envVars: map[string]string{config.APIURLEnvKey: "https://pdf.example.com/"},
			args:    []string{"url", "report.pdf"},
			want:    "https://pdf.example.com/api/download/report.pdf\n",
		},
		{
			name:    "flag overrides env",
			envVars: map[string]string{config.APIURLEnvKey: "https://pdf.example.com"},
			args:    []string{"--api-url", "http://127.0.0.1:9000", "url", "a.pdf"},
			want:    "http://127.0.0.1:9000/api/download/a.pdf\n",
		},
		{
			name:    "invalid base url",
			args:    []string{"--api-url", "ftp://pdf.example.com", "url", "a.pdf"},
			wantErr: true,
		},
		{
			name:    "missing filename",
			args:    []string{"url"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCmd(t, tt.envVars, tt.args...)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestCompressCmd_Download(t *testing.T) {
	// Given
	service := &fakeService{compressed: []byte("%PDF-1.4\nsmaller\n%%EOF\n")}
	svr := httptest.NewServer(service.handler(t))
	defer svr.Close()

	dir := t.TempDir()
	input := writeFile(t, dir, "invoice.pdf", testPDFContent)
	outputDir := filepath.Join(dir, "out")

	// When
	_, err := runCmd(t, nil, "--api-url", svr.URL, "compress", "--quality", "high", "--download", "--output-dir", outputDir, input)

	// Then
	require.NoError(t, err)
	assert.Equal(t, []string{"invoice.pdf"}, service.uploads)
	require.NoError(t, testutil.NewFileChecker(filepath.Join(outputDir, "compressed_invoice.pdf")).
		IsFile().
		IsPDF().
		Content(service.compressed).
		Check())
}

func TestCompressCmd_MalformedPDFIsStillUploaded(t *testing.T) {
	// Given
	service := &fakeService{compressed: []byte("%PDF-1.4\n%%EOF\n")}
	svr := httptest.NewServer(service.handler(t))
	defer svr.Close()

	input := writeFile(t, t.TempDir(), "scan.pdf", testutil.MalformedPDF)

	// When
	var err error
	require.NotPanics(t, func() {
		_, err = runCmd(t, nil, "--api-url", svr.URL, "compress", input)
	})

	// Then
	require.NoError(t, err)
	assert.Equal(t, []string{"scan.pdf"}, service.uploads)
}

func TestCompressCmd_Glob(t *testing.T) {
	// Given
	service := &fakeService{compressed: []byte("%PDF-1.4\n%%EOF\n")}
	svr := httptest.NewServer(service.handler(t))
	defer svr.Close()

	dir := t.TempDir()
	writeFile(t, dir, "a.pdf", testPDFContent)
	writeFile(t, dir, "nested/b.pdf", testPDFContent)
	writeFile(t, dir, "notes.txt", "not a pdf")

	// When
	_, err := runCmd(t, nil, "--api-url", svr.URL, "compress", filepath.Join(dir, "**", "*.pdf"))

	// Then
	require.NoError(t, err)
	sort.Strings(service.uploads)
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, service.uploads)
}

func TestCompressCmd_Failures(t *testing.T) {
	// Given
	service := &fakeService{status: http.StatusInternalServerError, detail: "Ghostscript failed"}
	svr := httptest.NewServer(service.handler(t))
	defer svr.Close()

	dir := t.TempDir()
	first := writeFile(t, dir, "a.pdf", testPDFContent)
	second := writeFile(t, dir, "b.pdf", testPDFContent)
	notPDF := writeFile(t, dir, "notes.txt", "plain text")

	// When
	_, err := runCmd(t, nil, "--api-url", svr.URL, "compress", first, second, notPDF)

	// Then
	require.EqualError(t, err, "3 of 3 file(s) failed")
	assert.Equal(t, []string{"a.pdf", "b.pdf"}, service.uploads)
}

func TestCompressCmd_InvalidArgs(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "a.pdf", testPDFContent)

	tests := []struct {
		name string
		args []string
	}{
		{name: "no files", args: []string{"compress"}},
		{name: "unknown quality", args: []string{"compress", "--quality", "ultra", input}},
		{name: "pattern without match", args: []string{"compress", filepath.Join(dir, "*.docx")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, nil, tt.args...)
			require.Error(t, err)
		})
	}
}

func TestInspectCmd(t *testing.T) {
	// Given
	content := testutil.OnePagePDF()
	path := writeFile(t, t.TempDir(), "invoice.pdf", string(content))

	// When
	out, err := runCmd(t, nil, "inspect", path)

	// Then
	require.NoError(t, err)
	want := fmt.Sprintf("Name: invoice.pdf\nSize: %s\nType: application/pdf\nPages: 1\n", formatSize(int64(len(content))))
	assert.Equal(t, want, out)
}

func TestInspectCmd_MalformedPDF(t *testing.T) {
	path := writeFile(t, t.TempDir(), "scan.pdf", testutil.MalformedPDF)

	_, err := runCmd(t, nil, "inspect", path)

	require.Error(t, err)
}

func TestInspectCmd_RejectsNonPDF(t *testing.T) {
	// Given
	path := writeFile(t, t.TempDir(), "notes.txt", "plain text")

	// When
	_, err := runCmd(t, nil, "inspect", path)

	// Then
	require.ErrorIs(t, err, document.ErrInvalidFileType)
}

func TestHealthCmd(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantErr bool
	}{
		{name: "healthy", status: http.StatusOK},
		{name: "unavailable", status: http.StatusServiceUnavailable, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &fakeService{status: tt.status}
			svr := httptest.NewServer(service.handler(t))
			defer svr.Close()

			_, err := runCmd(t, nil, "--api-url", svr.URL, "health")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestExpandPaths(t *testing.T) {
	// Given
	dir := t.TempDir()
	writeFile(t, dir, "a.pdf", testPDFContent)
	writeFile(t, dir, "b/c.pdf", testPDFContent)
	writeFile(t, dir, "b/d.txt", "x")
	opts := &compressOptions{rootOptions: &rootOptions{os: internal.RealOS{}, logger: log.NewLogger()}}

	// When
	paths, err := expandPaths([]string{"plain.pdf", filepath.Join(dir, "**", "*.pdf")}, opts)

	// Then
	require.NoError(t, err)
	sort.Strings(paths[1:])
	assert.Equal(t, []string{"plain.pdf", filepath.Join(dir, "a.pdf"), filepath.Join(dir, "b", "c.pdf")}, paths)
}

type memoryOS struct {
	internal.RealOS
	files fstest.MapFS
	dirs  []string
}

func (m *memoryOS) Abs(path string) (string, error) { return path, nil }

func (m *memoryOS) DirFS(dir string) fs.FS {
	m.dirs = append(m.dirs, dir)
	return m.files
}

func TestExpandPaths_UsesOsProxy(t *testing.T) {
	// Given
	memOS := &memoryOS{files: fstest.MapFS{
		"a.pdf":        {Data: []byte(testPDFContent)},
		"nested/b.pdf": {Data: []byte(testPDFContent)},
		"nested/c.txt": {Data: []byte("x")},
	}}
	opts := &compressOptions{rootOptions: &rootOptions{os: memOS, logger: log.NewLogger()}}

	// When
	paths, err := expandPaths([]string{"docs/**/*.pdf"}, opts)

	// Then
	require.NoError(t, err)
	sort.Strings(paths)
	assert.Equal(t, []string{filepath.Join("docs", "a.pdf"), filepath.Join("docs", "nested", "b.pdf")}, paths)
	assert.Equal(t, []string{"docs"}, memOS.dirs)
}

func TestShouldRender(t *testing.T) {
	tests := []struct {
		last     int
		progress int
		want     bool
	}{
		{last: -1, progress: 0, want: true},
		{last: 0, progress: 5, want: false},
		{last: 0, progress: 10, want: true},
		{last: 10, progress: 10, want: false},
		{last: 95, progress: 100, want: true},
		{last: 100, progress: 100, want: false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d->%d", tt.last, tt.progress), func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRender(tt.last, tt.progress))
		})
	}
}
