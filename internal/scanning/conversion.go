package scanning

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	"image/png"
	"strings"

	"github.com/gen2brain/go-fitz"
	"github.com/gen2brain/heic"
)

// nativeMimeTypes are the formats every provider accepts without conversion
var nativeMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// AcceptedMimeTypes lists the upload formats that can be prepared for a model
var AcceptedMimeTypes = []string{
	"image/jpeg",
	"image/png",
	"image/webp",
	"image/gif",
	"image/heic",
	"image/heif",
	"application/pdf",
}

// IsAcceptedMimeType reports whether an upload of this type can be scanned
func IsAcceptedMimeType(contentType string) bool {
	mimeType := normalizeMimeType(contentType)
	for _, accepted := range AcceptedMimeTypes {
		if mimeType == accepted {
			return true
		}
	}
	return false
}

// pdfToImage renders the first page of a PDF as a PNG image.
// Multi-page receipts are not supported; later pages are ignored.
func pdfToImage(pdfData []byte) ([]byte, error) {
	doc, err := fitz.NewFromMemory(pdfData)
	if err != nil {
		return nil, fmt.Errorf("opening PDF: %w", err)
	}
	defer doc.Close()

	img, err := doc.Image(0)
	if err != nil {
		return nil, fmt.Errorf("rendering PDF page: %w", err)
	}

	return encodePNG(img)
}

// imageToPNG decodes HEIC/HEIF or a stdlib-supported format and re-encodes it as PNG
func imageToPNG(imageData []byte, mimeType string) ([]byte, error) {
	var img image.Image
	var err error

	// Go's standard image package doesn't support HEIC (common on iPhones)
	if isHEICFormat(imageData) || isHEICMimeType(mimeType) {
		img, err = heic.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding HEIC/HEIF image: %w", err)
		}
	} else {
		img, _, err = image.Decode(bytes.NewReader(imageData))
		if err != nil {
			return nil, fmt.Errorf("decoding image: %w", err)
		}
	}

	return encodePNG(img)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// isHEICFormat checks for an ftyp box with a HEIC-related brand at offset 4
func isHEICFormat(data []byte) bool {
	if len(data) < 12 || string(data[4:8]) != "ftyp" {
		return false
	}
	brand := string(data[8:12])
	return brand == "heic" || brand == "heix" || brand == "heif" || brand == "mif1" || brand == "msf1"
}

// isHEICMimeType checks if the MIME type indicates HEIC/HEIF format
func isHEICMimeType(mimeType string) bool {
	return strings.Contains(mimeType, "heic") || strings.Contains(mimeType, "heif")
}

func normalizeMimeType(contentType string) string {
	mimeType := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	if mimeType == "image/jpg" {
		mimeType = "image/jpeg"
	}
	return mimeType
}

// prepareImageData normalizes the MIME type and converts the image when the
// model can't take it as-is. Returns the final image data and its MIME type.
func prepareImageData(imageData []byte, contentType string) ([]byte, string, error) {
	if len(imageData) == 0 {
		return nil, "", fmt.Errorf("image data is empty")
	}

	mimeType := normalizeMimeType(contentType)
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	switch {
	case mimeType == "application/pdf":
		pngData, err := pdfToImage(imageData)
		if err != nil {
			return nil, "", fmt.Errorf("converting PDF to image: %w", err)
		}
		return pngData, "image/png", nil
	case isHEICFormat(imageData) || isHEICMimeType(mimeType):
		pngData, err := imageToPNG(imageData, mimeType)
		if err != nil {
			return nil, "", fmt.Errorf("converting image to PNG: %w", err)
		}
		return pngData, "image/png", nil
	case nativeMimeTypes[mimeType]:
		return imageData, mimeType, nil
	case strings.HasPrefix(mimeType, "image/"):
		pngData, err := imageToPNG(imageData, mimeType)
		if err != nil {
			return nil, "", fmt.Errorf("unsupported image format %q: %w", mimeType, err)
		}
		return pngData, "image/png", nil
	default:
		return nil, "", fmt.Errorf("unsupported content type %q", mimeType)
	}
}

// imageFormat returns the format suffix genai.ImageData expects ("png", not "image/png")
func imageFormat(mimeType string) string {
	return strings.TrimPrefix(mimeType, "image/")
}
