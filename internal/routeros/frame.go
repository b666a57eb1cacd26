package routeros

import (
	"fmt"
	"io"
)

// RouterOS API words are length-prefixed with a variable-length encoding:
// the top bits of the first byte select how many bytes carry the length
// (0x80/0xC0/0xE0/0xF0 continuation scheme). A zero-length word terminates
// a sentence.

// encodeLength encodes a word length into its wire prefix
func encodeLength(length int) []byte {
	switch {
	case length < 0x80:
		return []byte{byte(length)}
	case length < 0x4000:
		return []byte{byte(length>>8) | 0x80, byte(length)}
	case length < 0x200000:
		return []byte{byte(length>>16) | 0xC0, byte(length >> 8), byte(length)}
	case length < 0x10000000:
		return []byte{byte(length>>24) | 0xE0, byte(length >> 16), byte(length >> 8), byte(length)}
	default:
		return []byte{0xF0, byte(length >> 24), byte(length >> 16), byte(length >> 8), byte(length)}
	}
}

// readLength decodes a length prefix from the reader
func readLength(r io.Reader) (int, error) {
	b := make([]byte, 1)
	if _, err := io.ReadFull(r, b); err != nil {
		return 0, err
	}

	first := b[0]

	switch {
	case first < 0x80:
		return int(first), nil
	case first < 0xC0:
		if _, err := io.ReadFull(r, b); err != nil {
			return 0, err
		}
		return int(first&0x3F)<<8 | int(b[0]), nil
	case first < 0xE0:
		extra := make([]byte, 2)
		if _, err := io.ReadFull(r, extra); err != nil {
			return 0, err
		}
		return int(first&0x1F)<<16 | int(extra[0])<<8 | int(extra[1]), nil
	case first < 0xF0:
		extra := make([]byte, 3)
		if _, err := io.ReadFull(r, extra); err != nil {
			return 0, err
		}
		return int(first&0x0F)<<24 | int(extra[0])<<16 | int(extra[1])<<8 | int(extra[2]), nil
	default:
		extra := make([]byte, 4)
		if _, err := io.ReadFull(r, extra); err != nil {
			return 0, err
		}
		return int(extra[0])<<24 | int(extra[1])<<16 | int(extra[2])<<8 | int(extra[3]), nil
	}
}

// writeWord writes a single length-prefixed word
func writeWord(w io.Writer, word string) error {
	if _, err := w.Write(encodeLength(len(word))); err != nil {
		return err
	}
	if len(word) > 0 {
		if _, err := w.Write([]byte(word)); err != nil {
			return err
		}
	}
	return nil
}

// readWord reads a single length-prefixed word. maxWordLen bounds the
// allocation so a corrupt length prefix cannot exhaust memory.
func readWord(r io.Reader, maxWordLen int) (string, error) {
	length, err := readLength(r)
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", nil
	}
	if length > maxWordLen {
		return "", fmt.Errorf("word length %d exceeds limit %d", length, maxWordLen)
	}

	word := make([]byte, length)
	if _, err := io.ReadFull(r, word); err != nil {
		return "", err
	}
	return string(word), nil
}
