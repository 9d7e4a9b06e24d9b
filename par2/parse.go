package par2

import (
	"encoding/binary"
	"strings"

	"github.com/javi11/nntppool/v4/errs"
)

// Parse reads every packet in data, building a File the way
// original_source/src/par2/parsing.rs's Par2File::parse does: iterate by
// offset, validate magic and set-id consistency, and dispatch each body by
// its 16-byte type tag. Unknown packet types are skipped; a known packet
// with a malformed body is a parse error.
func Parse(data []byte) (*File, error) {
	f := NewFile()
	offset := 0

	for offset < len(data) {
		if offset+packetHeaderSize > len(data) {
			break
		}
		if !HasMagicBytes(data[offset:]) {
			return nil, errs.New(errs.KindProtocol, "PAR2: invalid magic bytes")
		}

		header, err := parseHeader(data[offset:])
		if err != nil {
			return nil, err
		}

		if f.SetID == ([16]byte{}) {
			f.SetID = header.RecoveryID
		} else if f.SetID != header.RecoveryID {
			return nil, errs.New(errs.KindProtocol, "PAR2: packet set-id does not match")
		}

		bodyStart := offset + packetHeaderSize
		bodyLen := int(header.Length) - packetHeaderSize
		if bodyLen < 0 || bodyStart+bodyLen > len(data) {
			return nil, errs.New(errs.KindProtocol, "PAR2: packet body extends beyond buffer")
		}
		body := data[bodyStart : bodyStart+bodyLen]

		switch header.Type {
		case PacketTypeMain:
			main, err := parseMainPacket(body)
			if err != nil {
				return nil, err
			}
			f.Main = main

		case PacketTypeFileDesc:
			desc, err := parseFileDescriptor(body)
			if err != nil {
				return nil, err
			}
			f.FileDescriptions[desc.FileID] = desc

		case PacketTypeIFSC:
			ifsc, err := parseIFSCPacket(body)
			if err != nil {
				return nil, err
			}
			f.IFSCPackets[ifsc.FileID] = ifsc

		case PacketTypeRecoverySlice:
			slice, err := parseRecoverySlicePacket(body)
			if err != nil {
				return nil, err
			}
			f.RecoverySlices = append(f.RecoverySlices, slice)

		case PacketTypeCreator:
			creator := parseCreatorPacket(body)
			f.Creator = &creator

		default:
			// Unknown packet types are preserved structurally (skipped).
		}

		offset += int(header.Length)
	}

	return f, nil
}

// HasMagicBytes reports whether data begins with the PAR2 packet magic.
func HasMagicBytes(data []byte) bool {
	if len(data) < 8 {
		return false
	}
	for i := range 8 {
		if data[i] != MagicBytes[i] {
			return false
		}
	}
	return true
}

func parseHeader(data []byte) (PacketHeader, error) {
	if len(data) < packetHeaderSize {
		return PacketHeader{}, errs.New(errs.KindProtocol, "PAR2: truncated packet header")
	}
	h := PacketHeader{
		Length: binary.LittleEndian.Uint64(data[8:16]),
	}
	copy(h.PacketMD5[:], data[16:32])
	copy(h.RecoveryID[:], data[32:48])
	copy(h.Type[:], data[48:64])

	if h.Length < packetHeaderSize {
		return PacketHeader{}, errs.New(errs.KindProtocol, "PAR2: packet length smaller than header")
	}
	if h.Length%4 != 0 {
		return PacketHeader{}, errs.New(errs.KindProtocol, "PAR2: packet length not a multiple of 4")
	}
	return h, nil
}

func parseMainPacket(body []byte) (*MainPacket, error) {
	if len(body) < 12 {
		return nil, errs.New(errs.KindProtocol, "PAR2: main packet body too small")
	}
	sliceSize := binary.LittleEndian.Uint64(body[0:8])
	fileCount := binary.LittleEndian.Uint32(body[8:12])

	need := 12 + int(fileCount)*md5Size
	if len(body) < need {
		return nil, errs.New(errs.KindProtocol, "PAR2: main packet body truncated for file ids")
	}

	m := &MainPacket{SliceSize: sliceSize}
	offset := 12
	for i := uint32(0); i < fileCount; i++ {
		var id [16]byte
		copy(id[:], body[offset:offset+md5Size])
		m.FileIDs = append(m.FileIDs, id)
		offset += md5Size
	}
	for offset+md5Size <= len(body) {
		var id [16]byte
		copy(id[:], body[offset:offset+md5Size])
		m.NonRecoverableFileIDs = append(m.NonRecoverableFileIDs, id)
		offset += md5Size
	}
	return m, nil
}

func parseFileDescriptor(body []byte) (FileDescriptor, error) {
	const fixedLen = md5Size*3 + 8
	if len(body) < fixedLen {
		return FileDescriptor{}, errs.New(errs.KindProtocol, "PAR2: file description packet too small")
	}

	var desc FileDescriptor
	copy(desc.FileID[:], body[0:16])
	copy(desc.FileMD5[:], body[16:32])
	copy(desc.Hash16k[:], body[32:48])
	desc.Length = binary.LittleEndian.Uint64(body[48:56])
	desc.Name = trimNulPadding(body[56:])
	return desc, nil
}

func parseIFSCPacket(body []byte) (IFSCPacket, error) {
	if len(body) < 16 {
		return IFSCPacket{}, errs.New(errs.KindProtocol, "PAR2: IFSC packet too small")
	}
	var ifsc IFSCPacket
	copy(ifsc.FileID[:], body[0:16])

	rest := body[16:]
	for i := 0; i+4 <= len(rest); i += 4 {
		ifsc.Checksums = append(ifsc.Checksums, binary.LittleEndian.Uint32(rest[i:i+4]))
	}
	return ifsc, nil
}

func parseRecoverySlicePacket(body []byte) (RecoverySlicePacket, error) {
	if len(body) < 4 {
		return RecoverySlicePacket{}, errs.New(errs.KindProtocol, "PAR2: recovery slice packet too small")
	}
	return RecoverySlicePacket{
		Exponent: binary.LittleEndian.Uint32(body[0:4]),
		Data:     append([]byte(nil), body[4:]...),
	}, nil
}

func parseCreatorPacket(body []byte) CreatorPacket {
	return CreatorPacket{Client: trimNulPadding(body)}
}

// trimNulPadding cuts b at its first NUL byte, dropping the terminator and
// the zero padding that aligns the field to a 4-byte boundary. Without a
// NUL, b is returned whole.
func trimNulPadding(b []byte) string {
	s := string(b)
	if idx := strings.IndexByte(s, 0); idx >= 0 {
		s = s[:idx]
	}
	return s
}
