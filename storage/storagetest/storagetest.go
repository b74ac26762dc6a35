// Package storagetest builds attachment fixtures for tests
package storagetest

import (
	"bytes"
	"fmt"
	"mime/multipart"

	"github.com/casedock/casedock-api/storage"
)

type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }

// PDF returns a minimal well-formed PDF document with the given page count
func PDF(pages int) []byte {
	var b bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	b.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := ""
	for i := 0; i < pages; i++ {
		kids += fmt.Sprintf("%d 0 R ", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, pages))
	for i := 0; i < pages; i++ {
		obj("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>")
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f \n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return b.Bytes()
}

// Upload wraps data as an incoming file with the given declared content type
func Upload(filename, contentType string, data []byte) storage.Upload {
	return storage.Upload{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Open: func() (multipart.File, error) {
			return memFile{bytes.NewReader(data)}, nil
		},
	}
}

// PDFUpload is an Upload of a valid PDF with the given page count
func PDFUpload(filename string, pages int) storage.Upload {
	return Upload(filename, storage.PDFContentType, PDF(pages))
}
