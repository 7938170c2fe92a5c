// Package ocr proposes text annotations using Tesseract.
//
// This package wraps the Tesseract OCR engine (via gosseract/v2) and turns
// recognized words into rectangle suggestions. Recognized text itself is not
// stored: a word box is a candidate annotation like any other detector hit.
//
// # Prerequisites
//
// Tesseract is linked through cgo. Builds with CGO_ENABLED=0 compile, but
// every recognition call returns ErrUnavailable.
//
// Tesseract and its language data must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr tesseract-ocr-eng
//   - macOS: brew install tesseract
//
// Set TESSDATA_PREFIX when the language files live outside the default path.
//
// # Languages
//
// The default language is English ("eng"). Any installed Tesseract language
// code may be passed, and codes can be combined with "+", as in "eng+deu".
//
// # Performance
//
// OCR is CPU-intensive. SuggestTextInRegion crops before recognition, which
// is much faster than running a full page and filtering afterwards.
package ocr
