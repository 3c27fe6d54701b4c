package encoding

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	apperrors "github.com/spec-kit/vuln-analysis-service/pkg/util"
)

// Candidate encoding names reported to callers.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingLatin1      = "latin-1"
)

// Reader decodes uploaded bytes by trial against an ordered candidate list.
// No detection heuristics beyond attempting each candidate in turn.
type Reader struct {
	candidates []string
}

// NewReader returns a reader with the default candidate list: utf-8 first,
// then the two legacy single-byte encodings.
func NewReader() *Reader {
	return &Reader{candidates: []string{EncodingUTF8, EncodingWindows1252, EncodingLatin1}}
}

// NewReaderWithCandidates returns a reader restricted to the given encodings.
func NewReaderWithCandidates(candidates ...string) *Reader {
	return &Reader{candidates: candidates}
}

// Decode returns the decoded text and the name of the first candidate
// encoding that accepted the content. It fails only when every candidate
// rejects the bytes, enumerating the attempted encodings in the error.
func (r *Reader) Decode(raw []byte) (string, string, error) {
	for _, name := range r.candidates {
		text, err := decodeAs(name, raw)
		if err != nil {
			continue
		}
		return text, name, nil
	}
	return "", "", apperrors.NewDecodingError(
		fmt.Sprintf("could not decode content with any of the attempted encodings: %s",
			strings.Join(r.candidates, ", ")),
		map[string]any{"attempted_encodings": r.candidates},
	)
}

func decodeAs(name string, raw []byte) (string, error) {
	switch name {
	case EncodingUTF8:
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("invalid utf-8 sequence")
		}
		return string(raw), nil
	case EncodingWindows1252:
		return decodeWindows1252(raw)
	case EncodingLatin1:
		// ISO 8859-1 maps every byte, so this decode cannot fail.
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
		if err != nil {
			return "", err
		}
		return string(decoded), nil
	default:
		return "", fmt.Errorf("unknown encoding %q", name)
	}
}

// decodeWindows1252 rejects content containing the five code points that
// windows-1252 leaves undefined; the charmap decoder maps those to U+FFFD,
// which no defined windows-1252 byte can produce.
func decodeWindows1252(raw []byte) (string, error) {
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	text := string(decoded)
	if strings.ContainsRune(text, utf8.RuneError) {
		return "", fmt.Errorf("byte not defined in windows-1252")
	}
	return text, nil
}
