package charset

import "bytes"

// Byte-order marks recognized at the head of a source file.
var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// DetectBOM inspects the head of data for a byte-order mark. It returns
// the charset the mark names, whether a mark was present, and data with
// the mark stripped. Without a mark the data is returned unchanged and
// the charset is UTF-8.
func DetectBOM(data []byte) (Charset, bool, []byte) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return UTF8, true, data[len(bomUTF8):]
	case bytes.HasPrefix(data, bomUTF16BE):
		return utf16BE, true, data[len(bomUTF16BE):]
	case bytes.HasPrefix(data, bomUTF16LE):
		return utf16LE, true, data[len(bomUTF16LE):]
	}
	return UTF8, false, data
}

// BOM returns the byte-order mark for charsets that define one, nil
// otherwise. Used when writing a document back with its mark preserved.
func (c Charset) BOM() []byte {
	switch c.Name() {
	case "UTF-8":
		return bomUTF8
	case "UTF-16BE":
		return bomUTF16BE
	case "UTF-16LE":
		return bomUTF16LE
	}
	return nil
}
