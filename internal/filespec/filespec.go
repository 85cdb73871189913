// Package filespec handles file arguments of the form path[:offset[:length]]
// and the write targets they describe.
package filespec

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrInvalidSpec is returned for file arguments that can not be parsed or
// do not fit the file they refer to.
var ErrInvalidSpec = errors.New("invalid file specification")

// Spec is a parsed file argument. A zero length refers to the rest of the
// file.
type Spec struct {
	Path   string
	Offset int
	Length int
}

// Parse parses a file argument. Up to two trailing colon separated numbers
// are taken as offset and length, numbers can be decimal, 0x or $ prefixed
// hex and an empty number is zero. Anything else stays part of the path.
func Parse(text string) (Spec, error) {
	parts := strings.Split(text, ":")

	var numbers []int
	for len(parts) > 1 && len(numbers) < 2 {
		value, ok := parseNumber(parts[len(parts)-1])
		if !ok {
			break
		}
		numbers = append([]int{value}, numbers...)
		parts = parts[:len(parts)-1]
	}

	spec := Spec{
		Path: strings.Join(parts, ":"),
	}
	if spec.Path == "" {
		return Spec{}, fmt.Errorf("%w: missing path in '%s'", ErrInvalidSpec, text)
	}
	if len(numbers) > 0 {
		spec.Offset = numbers[0]
	}
	if len(numbers) > 1 {
		spec.Length = numbers[1]
	}
	return spec, nil
}

// parseNumber parses a plain unsigned literal.
func parseNumber(text string) (int, bool) {
	text = strings.TrimSpace(text)
	base := 10
	switch {
	case text == "":
		return 0, true
	case strings.HasPrefix(text, "0x"), strings.HasPrefix(text, "0X"):
		text, base = text[2:], 16
	case strings.HasPrefix(text, "$"):
		text, base = text[1:], 16
	}

	value, err := strconv.ParseUint(text, base, 31)
	if err != nil {
		return 0, false
	}
	return int(value), true
}

func (s Spec) String() string {
	switch {
	case s.Length != 0:
		return fmt.Sprintf("%s:0x%X:0x%X", s.Path, s.Offset, s.Length)
	case s.Offset != 0:
		return fmt.Sprintf("%s:0x%X", s.Path, s.Offset)
	default:
		return s.Path
	}
}

// Slice returns the range of data that the spec describes.
func (s Spec) Slice(data []byte) ([]byte, error) {
	if s.Offset > len(data) {
		return nil, fmt.Errorf("%w: offset 0x%X is beyond the %d bytes of '%s'", ErrInvalidSpec, s.Offset, len(data), s.Path)
	}
	if s.Length == 0 {
		return data[s.Offset:], nil
	}

	end := s.Offset + s.Length
	if end > len(data) {
		return nil, fmt.Errorf("%w: range 0x%X-0x%X is beyond the %d bytes of '%s'",
			ErrInvalidSpec, s.Offset, end, len(data), s.Path)
	}
	return data[s.Offset:end], nil
}

// Target returns the write target that the spec describes: a fresh file if
// offset and length are both zero, otherwise a patch of an existing file.
func (s Spec) Target() WriteTarget {
	if s.Offset == 0 && s.Length == 0 {
		return Fresh{Path: s.Path}
	}
	return PatchInto{Path: s.Path, Offset: s.Offset, MaxLength: s.Length}
}

// WriteTarget is a destination for output data, either Fresh or PatchInto.
type WriteTarget interface {
	fmt.Stringer
	write(data []byte) (int, error)
}

// Fresh creates or truncates a file and writes all data to it.
type Fresh struct {
	Path string
}

func (f Fresh) String() string {
	return f.Path
}

func (f Fresh) write(data []byte) (int, error) {
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return 0, fmt.Errorf("writing file '%s': %w", f.Path, err)
	}
	return len(data), nil
}

// PatchInto writes data into an existing file at an offset. A non zero
// MaxLength limits the number of bytes written.
type PatchInto struct {
	Path      string
	Offset    int
	MaxLength int
}

func (p PatchInto) String() string {
	return Spec{Path: p.Path, Offset: p.Offset, Length: p.MaxLength}.String()
}

func (p PatchInto) write(data []byte) (int, error) {
	n := len(data)
	if p.MaxLength > 0 && p.MaxLength < n {
		n = p.MaxLength
	}

	file, err := os.OpenFile(p.Path, os.O_RDWR, 0)
	if err != nil {
		return 0, fmt.Errorf("opening file '%s': %w", p.Path, err)
	}

	written, err := file.WriteAt(data[:n], int64(p.Offset))
	if err != nil {
		_ = file.Close()
		return written, fmt.Errorf("patching file '%s' at offset 0x%X: %w", p.Path, p.Offset, err)
	}
	if err := file.Close(); err != nil {
		return written, fmt.Errorf("closing file '%s': %w", p.Path, err)
	}
	return written, nil
}

// Write writes data to the target and returns the number of bytes written.
func Write(target WriteTarget, data []byte) (int, error) {
	return target.write(data)
}
