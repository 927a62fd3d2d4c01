package server

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"fortio.org/safecast"
	"go.lsp.dev/protocol"
)

// offsetForPosition converts an LSP position (UTF-16 code units) into a byte
// offset into text. Positions past the end of a line clamp to the line end and
// lines past the end of the document clamp to the document end.
func offsetForPosition(text string, pos protocol.Position) (int, error) {
	line, err := safecast.Conv[int](pos.Line)
	if err != nil {
		return 0, fmt.Errorf("line %d: %w", pos.Line, err)
	}
	character, err := safecast.Conv[int](pos.Character)
	if err != nil {
		return 0, fmt.Errorf("character %d: %w", pos.Character, err)
	}
	offset := 0
	for ; line > 0; line-- {
		idx := strings.IndexByte(text[offset:], '\n')
		if idx < 0 {
			return len(text), nil
		}
		offset += idx + 1
	}
	units := 0
	for offset < len(text) && units < character {
		r, size := utf8.DecodeRuneInString(text[offset:])
		if r == '\n' {
			break
		}
		units += utf16Len(r)
		offset += size
	}
	return offset, nil
}

// positionForOffset is the inverse of offsetForPosition.
func positionForOffset(text string, offset int) (protocol.Position, error) {
	if offset < 0 || offset > len(text) {
		return protocol.Position{}, fmt.Errorf("offset %d outside document of %d bytes", offset, len(text))
	}
	line, units := 0, 0
	for _, r := range text[:offset] {
		if r == '\n' {
			line++
			units = 0
			continue
		}
		units += utf16Len(r)
	}
	l, err := safecast.Conv[uint32](line)
	if err != nil {
		return protocol.Position{}, err
	}
	c, err := safecast.Conv[uint32](units)
	if err != nil {
		return protocol.Position{}, err
	}
	return protocol.Position{Line: l, Character: c}, nil
}

func rangeForOffsets(text string, start, end int) (protocol.Range, error) {
	s, err := positionForOffset(text, start)
	if err != nil {
		return protocol.Range{}, err
	}
	e, err := positionForOffset(text, end)
	if err != nil {
		return protocol.Range{}, err
	}
	return protocol.Range{Start: s, End: e}, nil
}

func utf16Len(r rune) int {
	if r >= 0x10000 {
		return 2
	}
	return 1
}
