//go:build !cgo

package ocr

func recognize(string, string) ([]Word, error) {
	return nil, ErrUnavailable
}

// GetInfo reports that OCR is not compiled in.
func GetInfo() Info {
	return Info{Backend: "none", Error: ErrUnavailable.Error()}
}
