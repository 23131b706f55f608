package documents

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"
)

func TestDecodeText(t *testing.T) {
	if got, err := decodeText([]byte("plain utf-8 文本")); err != nil || got != "plain utf-8 文本" {
		t.Errorf("decodeText(utf8) = %q, %v", got, err)
	}

	// "中文" encoded as GB18030.
	gb := []byte{0xD6, 0xD0, 0xCE, 0xC4}
	got, err := decodeText(gb)
	if err != nil {
		t.Fatalf("decodeText(gb18030) failed: %v", err)
	}
	if got != "中文" {
		t.Errorf("decodeText(gb18030) = %q, want 中文", got)
	}
}

func buildDocx(t *testing.T, body string) []byte {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create entry: %v", err)
	}
	if _, err := w.Write([]byte(body)); err != nil {
		t.Fatalf("write entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}
	return buf.Bytes()
}

func TestExtractDocxText(t *testing.T) {
	data := buildDocx(t, `<document><body>`+
		`<p><r><t>Hello</t></r><r><t> there</t></r></p>`+
		`<p><r><t>Second paragraph</t></r></p>`+
		`</body></document>`)

	got, err := extractDocxText(data)
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	want := "Hello there\nSecond paragraph"
	if got != want {
		t.Errorf("text = %q, want %q", got, want)
	}
}

func TestExtractDocxTextRejectsNonArchive(t *testing.T) {
	_, err := extractDocxText([]byte("not a zip"))
	if !errors.Is(err, ErrPreviewUnsupported) {
		t.Errorf("error = %v, want ErrPreviewUnsupported", err)
	}
}

func TestExtractDocxTextMissingBody(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, _ := zw.Create("word/styles.xml")
	w.Write([]byte("<styles/>"))
	zw.Close()

	_, err := extractDocxText(buf.Bytes())
	if !errors.Is(err, ErrPreviewUnsupported) {
		t.Errorf("error = %v, want ErrPreviewUnsupported", err)
	}
}
