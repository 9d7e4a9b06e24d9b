package par2

import (
	"encoding/binary"
	"io"

	"github.com/javi11/nntppool/v4/errs"
)

// PacketReader gives streaming access to PAR2 packets over an io.Reader,
// adapted from internal/importer/parser/par2/reader.go's binary.Read-based
// header/FileDesc decoding so PAR2 metadata inside a downloaded article
// body can be scanned without buffering the whole file.
type PacketReader struct {
	r io.Reader
}

// NewPacketReader wraps r for packet-by-packet reading.
func NewPacketReader(r io.Reader) *PacketReader {
	return &PacketReader{r: r}
}

// ReadHeader reads and validates the next packet's 64-byte header.
func (pr *PacketReader) ReadHeader() (PacketHeader, error) {
	var buf [packetHeaderSize]byte
	if _, err := io.ReadFull(pr.r, buf[:8]); err != nil {
		return PacketHeader{}, err // propagate io.EOF untouched
	}
	var magic [8]byte
	copy(magic[:], buf[:8])
	if magic != MagicBytes {
		return PacketHeader{}, errs.New(errs.KindProtocol, "PAR2: invalid magic signature")
	}

	if _, err := io.ReadFull(pr.r, buf[8:]); err != nil {
		return PacketHeader{}, errs.Wrap(errs.KindProtocol, "PAR2: truncated packet header", err)
	}

	h := PacketHeader{Length: binary.LittleEndian.Uint64(buf[8:16])}
	copy(h.PacketMD5[:], buf[16:32])
	copy(h.RecoveryID[:], buf[32:48])
	copy(h.Type[:], buf[48:64])

	if h.Length < packetHeaderSize {
		return PacketHeader{}, errs.New(errs.KindProtocol, "PAR2: packet length smaller than header")
	}
	if h.Length%4 != 0 {
		return PacketHeader{}, errs.New(errs.KindProtocol, "PAR2: packet length not a multiple of 4")
	}
	return h, nil
}

// ReadFileDescriptor reads a FileDesc packet's body. header must already
// have been read and identified as a FileDesc packet.
func (pr *PacketReader) ReadFileDescriptor(header PacketHeader) (FileDescriptor, error) {
	if header.Type != PacketTypeFileDesc {
		return FileDescriptor{}, errs.New(errs.KindProtocol, "PAR2: not a FileDesc packet")
	}

	bodyLen := header.Length - packetHeaderSize
	const fixedLen = md5Size*3 + 8
	if bodyLen < fixedLen {
		return FileDescriptor{}, errs.New(errs.KindProtocol, "PAR2: file description packet too small")
	}

	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(pr.r, body); err != nil {
		return FileDescriptor{}, errs.Wrap(errs.KindProtocol, "PAR2: failed to read file description body", err)
	}
	return parseFileDescriptor(body)
}

// SkipPacketBody discards everything after header, for packet types the
// caller doesn't need to decode.
func (pr *PacketReader) SkipPacketBody(header PacketHeader) error {
	remaining := int64(header.Length) - packetHeaderSize
	if remaining == 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, pr.r, remaining)
	if err != nil {
		return errs.Wrap(errs.KindIO, "PAR2: failed to skip packet body", err)
	}
	return nil
}

// ReadBody reads header's remaining body bytes in full, for packet types
// whose decoder (parseMainPacket, parseIFSCPacket, ...) takes a body slice
// rather than a reader.
func (pr *PacketReader) ReadBody(header PacketHeader) ([]byte, error) {
	bodyLen := int64(header.Length) - packetHeaderSize
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(pr.r, body); err != nil {
		return nil, errs.Wrap(errs.KindProtocol, "PAR2: failed to read packet body", err)
	}
	return body, nil
}

// ParseStream scans r packet-by-packet with PacketReader rather than
// buffering the whole file, the streaming counterpart to Parse for a
// caller assembling PAR2 metadata out of a downloaded article body it is
// still receiving (§4.8, §1's "callers provide byte buffers" — for a
// not-yet-fully-buffered stream, this is the entry point instead). Stops
// cleanly at io.EOF between packets; any other read error, or EOF in the
// middle of a packet, is reported as a truncation error.
func ParseStream(r io.Reader) (*File, error) {
	pr := NewPacketReader(r)
	f := NewFile()

	for {
		header, err := pr.ReadHeader()
		if err != nil {
			if err == io.EOF {
				return f, nil
			}
			return nil, err
		}

		if f.SetID == ([16]byte{}) {
			f.SetID = header.RecoveryID
		} else if f.SetID != header.RecoveryID {
			return nil, errs.New(errs.KindProtocol, "PAR2: packet set-id does not match")
		}

		switch header.Type {
		case PacketTypeFileDesc:
			desc, err := pr.ReadFileDescriptor(header)
			if err != nil {
				return nil, err
			}
			f.FileDescriptions[desc.FileID] = desc

		case PacketTypeMain:
			body, err := pr.ReadBody(header)
			if err != nil {
				return nil, err
			}
			main, err := parseMainPacket(body)
			if err != nil {
				return nil, err
			}
			f.Main = main

		case PacketTypeIFSC:
			body, err := pr.ReadBody(header)
			if err != nil {
				return nil, err
			}
			ifsc, err := parseIFSCPacket(body)
			if err != nil {
				return nil, err
			}
			f.IFSCPackets[ifsc.FileID] = ifsc

		case PacketTypeRecoverySlice:
			body, err := pr.ReadBody(header)
			if err != nil {
				return nil, err
			}
			slice, err := parseRecoverySlicePacket(body)
			if err != nil {
				return nil, err
			}
			f.RecoverySlices = append(f.RecoverySlices, slice)

		case PacketTypeCreator:
			body, err := pr.ReadBody(header)
			if err != nil {
				return nil, err
			}
			creator := parseCreatorPacket(body)
			f.Creator = &creator

		default:
			if err := pr.SkipPacketBody(header); err != nil {
				return nil, err
			}
		}
	}
}
