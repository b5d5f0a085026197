package scanning

import (
	"bytes"
	"image"
	"image/color"
	"image/gif"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func testImage() image.Image {
	img := image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{color.White, color.Black})
	img.SetColorIndex(1, 1, 1)
	return img
}

var _ = Describe("prepareImageData", func() {
	var (
		imageData   []byte
		contentType string
		data        []byte
		mimeType    string
		err         error
	)

	JustBeforeEach(func() {
		data, mimeType, err = prepareImageData(imageData, contentType)
	})

	When("the image is a JPEG", func() {
		BeforeEach(func() {
			imageData = []byte("jpeg bytes")
			contentType = " Image/JPG "
		})

		It("should pass the data through unchanged", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(data).To(Equal(imageData))
			Expect(mimeType).To(Equal("image/jpeg"))
		})
	})

	When("the content type is missing", func() {
		BeforeEach(func() {
			imageData = []byte("jpeg bytes")
			contentType = ""
		})

		It("should assume JPEG", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(mimeType).To(Equal("image/jpeg"))
		})
	})

	When("the image is a GIF", func() {
		BeforeEach(func() {
			var buf bytes.Buffer
			Expect(gif.Encode(&buf, testImage(), nil)).To(Succeed())
			imageData = buf.Bytes()
			contentType = "image/gif"
		})

		It("should convert it to PNG", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(mimeType).To(Equal("image/png"))
			decoded, decodeErr := png.Decode(bytes.NewReader(data))
			Expect(decodeErr).NotTo(HaveOccurred())
			Expect(decoded.Bounds()).To(Equal(image.Rect(0, 0, 4, 4)))
		})
	})

	When("the image data is empty", func() {
		BeforeEach(func() {
			imageData = nil
			contentType = "image/png"
		})

		It("returns an error", func() {
			Expect(err).To(MatchError(ContainSubstring("empty")))
		})
	})

	When("the content type is not an image", func() {
		BeforeEach(func() {
			imageData = []byte("hello")
			contentType = "text/plain"
		})

		It("returns an error", func() {
			Expect(err).To(MatchError(ContainSubstring("unsupported content type")))
		})
	})

	When("an image type can't be decoded", func() {
		BeforeEach(func() {
			imageData = []byte("not a bitmap")
			contentType = "image/bmp"
		})

		It("returns an error", func() {
			Expect(err).To(MatchError(ContainSubstring("unsupported image format")))
		})
	})
})

var _ = Describe("isHEICFormat", func() {
	It("should detect the heic brand", func() {
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypheic\x00\x00"))).To(BeTrue())
	})

	It("should detect the mif1 brand", func() {
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypmif1\x00\x00"))).To(BeTrue())
	})

	It("should reject short data", func() {
		Expect(isHEICFormat([]byte("ftyp"))).To(BeFalse())
	})

	It("should reject other containers", func() {
		Expect(isHEICFormat([]byte("\x00\x00\x00\x18ftypisom\x00\x00"))).To(BeFalse())
	})
})

var _ = Describe("IsAcceptedMimeType", func() {
	DescribeTable("upload types",
		func(contentType string, accepted bool) {
			Expect(IsAcceptedMimeType(contentType)).To(Equal(accepted))
		},
		Entry("jpeg", "image/jpeg", true),
		Entry("jpg alias", "image/jpg", true),
		Entry("png with parameters", "image/png; charset=binary", true),
		Entry("heic", "image/heic", true),
		Entry("pdf", "application/pdf", true),
		Entry("plain text", "text/plain", false),
		Entry("octet stream", "application/octet-stream", false),
		Entry("empty", "", false),
	)
})
