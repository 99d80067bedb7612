package pdf

import (
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

func writeJPEG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, nil); err != nil {
		t.Fatal(err)
	}
	return path
}

func writePNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

// writeDeepPNG writes a 16-bit-depth PNG. The primary embed pass cannot
// handle 16-bit PNGs, but the stdlib decoder can, so this exercises the
// re-encode fallback.
func writeDeepPNG(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA64(image.Rect(0, 0, 20, 20))
	for x := 0; x < 20; x++ {
		for y := 0; y < 20; y++ {
			img.Set(x, y, color.NRGBA64{R: 0xffff, G: uint16(x * 3000), B: uint16(y * 3000), A: 0xffff})
		}
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExportEmptyFails(t *testing.T) {
	if _, err := Export(nil); err == nil {
		t.Error("Export(nil) succeeded")
	}
	if _, err := Export([]string{}); err == nil {
		t.Error("Export(empty) succeeded")
	}
}

func TestExportOnePagePerImage(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeJPEG(t, dir, "img_1.jpg", 100, 50),
		writeJPEG(t, dir, "img_2.jpg", 80, 80),
		writeJPEG(t, dir, "img_3.jpg", 60, 120),
	}

	out, err := Export(paths)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	n, err := PageCount(out)
	if err != nil {
		t.Fatalf("PageCount() error: %v", err)
	}
	if n != 3 {
		t.Errorf("PageCount = %d, want 3", n)
	}
}

func TestExportMixedFormats(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeJPEG(t, dir, "img_1.jpg", 50, 50),
		writePNG(t, dir, "img_2.png"),
	}

	out, err := Export(paths)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	if n, _ := PageCount(out); n != 2 {
		t.Errorf("PageCount = %d, want 2", n)
	}
}

func TestExportFallsBackOnCodecFailure(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeJPEG(t, dir, "img_1.jpg", 50, 50),
		writeDeepPNG(t, dir, "img_2.png"),
	}

	out, err := Export(paths)
	if err != nil {
		t.Fatalf("Export() with 16-bit PNG error: %v", err)
	}
	if n, _ := PageCount(out); n != 2 {
		t.Errorf("PageCount = %d, want 2", n)
	}
}

func TestExportUndecodableImageFails(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "img_1.jpg")
	if err := os.WriteFile(garbage, []byte("this is not an image"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Export([]string{garbage}); err == nil {
		t.Error("Export() of garbage bytes succeeded")
	}
}

func TestExportThenExtractRoundTrip(t *testing.T) {
	dir := t.TempDir()
	paths := []string{
		writeJPEG(t, dir, "img_1.jpg", 50, 50),
		writeJPEG(t, dir, "img_2.jpg", 50, 50),
	}

	out, err := Export(paths)
	if err != nil {
		t.Fatalf("Export() error: %v", err)
	}
	pdfPath := filepath.Join(dir, "images.pdf")
	if err := os.WriteFile(pdfPath, out, 0o600); err != nil {
		t.Fatal(err)
	}

	text, err := ExtractText(pdfPath)
	if err != nil {
		t.Fatalf("ExtractText() error: %v", err)
	}
	// Image-only pages carry no text; the fixed message stands in for "".
	if text != NoTextFound {
		t.Errorf("ExtractText() = %q, want %q", text, NoTextFound)
	}
}

func TestExtractTextMissingFileFails(t *testing.T) {
	if _, err := ExtractText(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Error("ExtractText() of a missing file succeeded")
	}
}

func TestExtractTextGarbageFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "incoming.pdf")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ExtractText(path); err == nil {
		t.Error("ExtractText() of garbage succeeded")
	}
}
