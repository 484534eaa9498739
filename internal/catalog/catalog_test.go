package catalog

import (
	"os"
	"path/filepath"
	"testing"
)

func writeYAML(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "dimensions.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return p
}

func TestLoadValidDocument(t *testing.T) {
	dir := t.TempDir()
	p := writeYAML(t, dir, "w_air: 4\nh_air: 4\nchannels: 2\nn_part: 1024\nmax_stickmen: 4\n")

	c, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Dimensions.WAir != 4 || c.Dimensions.HAir != 4 || c.Dimensions.NPart != 1024 {
		t.Fatalf("unexpected dimensions: %+v", c.Dimensions)
	}
	if c.Digest == "" {
		t.Fatalf("expected a non-empty digest")
	}
}

func TestLoadRejectsMissingField(t *testing.T) {
	dir := t.TempDir()
	p := writeYAML(t, dir, "w_air: 4\nh_air: 4\nchannels: 2\nn_part: 1024\n")

	if _, err := Load(p); err == nil {
		t.Fatalf("expected an error for a document missing max_stickmen")
	}
}

func TestLoadRejectsNonPositiveGrid(t *testing.T) {
	dir := t.TempDir()
	p := writeYAML(t, dir, "w_air: 0\nh_air: 4\nchannels: 2\nn_part: 1024\nmax_stickmen: 4\n")

	if _, err := Load(p); err == nil {
		t.Fatalf("expected an error for a zero grid dimension")
	}
}

func TestDigestStableForIdenticalDocuments(t *testing.T) {
	dir := t.TempDir()
	body := "w_air: 8\nh_air: 8\nchannels: 4\nn_part: 2048\nmax_stickmen: 8\n"
	p1 := writeYAML(t, dir, body)

	dir2 := t.TempDir()
	p2 := writeYAML(t, dir2, body)

	c1, err := Load(p1)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c2, err := Load(p2)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c1.Digest != c2.Digest {
		t.Fatalf("identical documents should produce the same digest")
	}
}
