// Package yenc implements L5.a: a yEnc single-part decoder and a multipart
// assembler, grounded in spec.md §4.7's bit-exact algorithm description (no
// reference yEnc implementation exists in the example corpus, so the
// decode loop and header grammar are built directly from the spec's
// byte-level rules rather than ported from a teacher file).
package yenc

import (
	"bufio"
	"bytes"
	"hash/crc32"
	"strconv"
	"strings"

	"github.com/javi11/nntppool/v4/errs"
)

// Frame is one decoded yEnc part: a single-part file, or one part of a
// multipart file when Part/Total are non-zero.
type Frame struct {
	Filename string
	Size     int64 // total decoded size of the whole file, from =ybegin
	Part     int   // 0 for single-part
	Total    int   // 0 for single-part
	Begin    int64 // 0-based offset of this part within the file (multipart only)
	End      int64 // 0-based, exclusive

	Decoded []byte

	TrailerSize  int64
	TrailerCRC32 uint32 // from =yend crc32= (single-part) or absent on multipart
	TrailerPCRC32 uint32 // from =yend pcrc32= (multipart, this part only)
	HasCRC32      bool
	HasPCRC32     bool

	CalculatedCRC32 uint32
}

// VerifyCRC32 reports whether the calculated CRC32 matches whichever
// trailer checksum applies to this frame (pcrc32 for a multipart part,
// crc32 otherwise).
func (f Frame) VerifyCRC32() bool {
	if f.HasPCRC32 {
		return f.CalculatedCRC32 == f.TrailerPCRC32
	}
	if f.HasCRC32 {
		return f.CalculatedCRC32 == f.TrailerCRC32
	}
	return false
}

// Decode parses one yEnc-encoded article body (everything between and
// including "=ybegin" and "=yend") into a Frame (§4.7).
func Decode(body []byte) (Frame, error) {
	scanner := bufio.NewScanner(bytes.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var frame Frame
	var sawYbegin, sawYpart, sawYend bool
	var dataBuf bytes.Buffer

	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case !sawYbegin && strings.HasPrefix(line, "=ybegin"):
			if err := parseYbegin(line, &frame); err != nil {
				return Frame{}, err
			}
			sawYbegin = true

		case sawYbegin && !sawYpart && frame.Part != 0 && strings.HasPrefix(line, "=ypart"):
			if err := parseYpart(line, &frame); err != nil {
				return Frame{}, err
			}
			sawYpart = true

		case sawYbegin && strings.HasPrefix(line, "=yend"):
			if err := parseYend(line, &frame); err != nil {
				return Frame{}, err
			}
			sawYend = true

		case sawYbegin && !sawYend:
			decodeLine(line, &dataBuf)

		default:
			// Ignore lines before =ybegin or after =yend.
		}
	}

	if !sawYbegin {
		return Frame{}, errs.New(errs.KindProtocol, "yEnc: missing =ybegin line")
	}
	if !sawYend {
		return Frame{}, errs.New(errs.KindProtocol, "yEnc: missing =yend line")
	}
	if frame.Part != 0 && !sawYpart {
		return Frame{}, errs.New(errs.KindProtocol, "yEnc: missing =ypart line for multipart frame")
	}

	frame.Decoded = dataBuf.Bytes()
	frame.CalculatedCRC32 = crc32.ChecksumIEEE(frame.Decoded)
	return frame, nil
}

// decodeLine strips CR/LF and applies the yEnc byte mapping: X-42 mod 256
// normally, or Y-64 mod 256 for the byte following an '=' escape.
func decodeLine(line string, out *bytes.Buffer) {
	data := []byte(line)
	escaped := false
	for _, x := range data {
		if x == '\r' || x == '\n' {
			continue
		}
		if escaped {
			out.WriteByte(byte(int(x) - 64))
			escaped = false
			continue
		}
		if x == '=' {
			escaped = true
			continue
		}
		out.WriteByte(byte(int(x) - 42))
	}
}

func parseYbegin(line string, f *Frame) error {
	kv := parseKeywords(strings.TrimPrefix(line, "=ybegin"))

	size, ok := kv["size"]
	if !ok {
		return errs.New(errs.KindProtocol, "yEnc: =ybegin missing size=")
	}
	n, err := strconv.ParseInt(size, 10, 64)
	if err != nil {
		return errs.Wrap(errs.KindProtocol, "yEnc: invalid size= in =ybegin", err)
	}
	f.Size = n

	name, ok := kv["name"]
	if !ok {
		return errs.New(errs.KindProtocol, "yEnc: =ybegin missing name=")
	}
	f.Filename = name

	if part, ok := kv["part"]; ok {
		p, err := strconv.Atoi(part)
		if err != nil {
			return errs.Wrap(errs.KindProtocol, "yEnc: invalid part= in =ybegin", err)
		}
		f.Part = p
	}
	if total, ok := kv["total"]; ok {
		t, err := strconv.Atoi(total)
		if err != nil {
			return errs.Wrap(errs.KindProtocol, "yEnc: invalid total= in =ybegin", err)
		}
		f.Total = t
	}
	return nil
}

func parseYpart(line string, f *Frame) error {
	kv := parseKeywords(strings.TrimPrefix(line, "=ypart"))

	begin, ok := kv["begin"]
	if !ok {
		return errs.New(errs.KindProtocol, "yEnc: =ypart missing begin=")
	}
	end, ok := kv["end"]
	if !ok {
		return errs.New(errs.KindProtocol, "yEnc: =ypart missing end=")
	}
	b, err := strconv.ParseInt(begin, 10, 64)
	if err != nil {
		return errs.Wrap(errs.KindProtocol, "yEnc: invalid begin= in =ypart", err)
	}
	e, err := strconv.ParseInt(end, 10, 64)
	if err != nil {
		return errs.Wrap(errs.KindProtocol, "yEnc: invalid end= in =ypart", err)
	}
	// 1-based inclusive on the wire, 0-based half-open internally.
	f.Begin = b - 1
	f.End = e
	return nil
}

func parseYend(line string, f *Frame) error {
	kv := parseKeywords(strings.TrimPrefix(line, "=yend"))

	size, ok := kv["size"]
	if !ok {
		return errs.New(errs.KindProtocol, "yEnc: =yend missing size=")
	}
	n, err := strconv.ParseInt(size, 10, 64)
	if err != nil {
		return errs.Wrap(errs.KindProtocol, "yEnc: invalid size= in =yend", err)
	}
	f.TrailerSize = n

	if crc, ok := kv["crc32"]; ok {
		v, err := strconv.ParseUint(crc, 16, 32)
		if err != nil {
			return errs.Wrap(errs.KindProtocol, "yEnc: invalid crc32= in =yend", err)
		}
		f.TrailerCRC32 = uint32(v)
		f.HasCRC32 = true
	}
	if pcrc, ok := kv["pcrc32"]; ok {
		v, err := strconv.ParseUint(pcrc, 16, 32)
		if err != nil {
			return errs.Wrap(errs.KindProtocol, "yEnc: invalid pcrc32= in =yend", err)
		}
		f.TrailerPCRC32 = uint32(v)
		f.HasPCRC32 = true
	}
	return nil
}

// parseKeywords splits a "key=value key=value" header tail. name= is
// special-cased: it always extends to end of line since filenames may
// contain spaces.
func parseKeywords(rest string) map[string]string {
	rest = strings.TrimSpace(rest)
	kv := make(map[string]string)

	if idx := strings.Index(rest, "name="); idx >= 0 {
		kv["name"] = strings.TrimSpace(rest[idx+len("name="):])
		rest = rest[:idx]
	}

	for _, field := range strings.Fields(rest) {
		parts := strings.SplitN(field, "=", 2)
		if len(parts) == 2 {
			kv[parts[0]] = parts[1]
		}
	}
	return kv
}
