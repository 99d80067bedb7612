// Package pdf converts collected images into a single multi-page PDF and
// extracts text from uploaded PDFs.
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"net/http"
	"os"
	"strings"

	"github.com/go-pdf/fpdf"
	lpdf "github.com/ledongthuc/pdf"

	// Codecs for the fallback re-encode pass.
	_ "image/gif"
	_ "image/png"
)

// NoTextFound is returned instead of an empty extraction result.
const NoTextFound = "No text found."

// Export converts the ordered image files into one PDF, one page per image,
// page order matching input order and each page sized to its image.
//
// The primary pass embeds the original bytes. If any image trips a codec
// error there, the whole set is decoded with the stdlib image package,
// re-encoded as JPEG and assembled again; only when that also fails does the
// export fail.
func Export(paths []string) ([]byte, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images to export")
	}

	out, primaryErr := build(paths, false)
	if primaryErr == nil {
		return out, nil
	}

	out, fallbackErr := build(paths, true)
	if fallbackErr != nil {
		return nil, fmt.Errorf("exporting images: %v (fallback: %w)", primaryErr, fallbackErr)
	}
	return out, nil
}

func build(paths []string, reencode bool) ([]byte, error) {
	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)

	for i, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		imageType := sniffImageType(data)
		if reencode {
			data, err = reencodeJPEG(data)
			if err != nil {
				return nil, fmt.Errorf("re-encoding %s: %w", path, err)
			}
			imageType = "JPG"
		}

		opts := fpdf.ImageOptions{ImageType: imageType}
		name := fmt.Sprintf("page_%d", i)
		info := doc.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		if err := doc.Error(); err != nil {
			return nil, fmt.Errorf("embedding %s: %w", path, err)
		}

		w, h := info.Extent()
		doc.AddPageFormat("P", fpdf.SizeType{Wd: w, Ht: h})
		doc.ImageOptions(name, 0, 0, w, h, false, opts, 0, "")
		if err := doc.Error(); err != nil {
			return nil, fmt.Errorf("placing %s: %w", path, err)
		}
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// sniffImageType maps content sniffing to the type names fpdf expects.
func sniffImageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/gif":
		return "GIF"
	default:
		return "JPG"
	}
}

func reencodeJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExtractText returns the concatenated page text of the PDF at path, pages
// in order and separated by a blank line. A PDF with no extractable text
// (scanned pages, unsupported encodings) yields NoTextFound, never "".
func ExtractText(path string) (string, error) {
	f, r, err := lpdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	var pages []string
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			// A single unreadable page should not sink the rest.
			continue
		}
		pages = append(pages, text)
	}

	out := strings.TrimSpace(strings.Join(pages, "\n\n"))
	if out == "" {
		return NoTextFound, nil
	}
	return out, nil
}

// PageCount returns the number of pages in an in-memory PDF. Used by tests
// to verify export output.
func PageCount(data []byte) (int, error) {
	r, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("parsing pdf: %w", err)
	}
	return r.NumPage(), nil
}
