// Package nzb implements L5.c: parsing, validation and emission of NZB job
// descriptors. Unlike internal/nzb/parser.go (a thin app-specific wrapper
// around the external nzbparser library with no XML parsing logic of its
// own), this package parses the NZB 1.1 DTD directly with encoding/xml,
// grounded in spec.md §4.9.
package nzb

import (
	"encoding/xml"
	"sort"
	"strconv"

	"github.com/javi11/nntppool/v4/errs"
	"golang.org/x/sync/errgroup"
)

// NZB is a fully parsed job descriptor: a metadata map plus an ordered
// sequence of files.
type NZB struct {
	Meta  map[string]string
	Files []File
}

// File is one file within an NZB: its Usenet posting metadata and its
// constituent segments.
type File struct {
	Poster    string
	PostedAt  int64 // unix seconds
	Subject   string
	Groups    []string
	Segments  []Segment
}

// Segment is one article making up part of a File.
type Segment struct {
	Bytes     int64
	Number    int // 1-based sequence number
	MessageID string
}

// TotalBytes returns the sum of every segment's byte size across every
// file (§8's total_bytes() testable property).
func (n NZB) TotalBytes() int64 {
	var total int64
	for _, f := range n.Files {
		for _, s := range f.Segments {
			total += s.Bytes
		}
	}
	return total
}

// Validate reports whether n is well-formed: at least one file, and for
// every file its segment numbers cover [1, N] without gaps (§3, §8).
func (n NZB) Validate() error {
	if len(n.Files) == 0 {
		return errs.New(errs.KindProtocol, "NZB: must contain at least one file")
	}
	for i, f := range n.Files {
		if err := f.validateSegments(); err != nil {
			return errs.Wrap(errs.KindProtocol, "NZB: file "+strconv.Itoa(i), err)
		}
	}
	return nil
}

func (f File) validateSegments() error {
	if len(f.Segments) == 0 {
		return errs.New(errs.KindProtocol, "file has no segments")
	}
	numbers := make([]int, len(f.Segments))
	for i, s := range f.Segments {
		numbers[i] = s.Number
	}
	sort.Ints(numbers)
	for i, n := range numbers {
		if n != i+1 {
			return errs.New(errs.KindProtocol, "segment numbers must cover 1..N without gaps")
		}
	}
	return nil
}

// xmlDoc mirrors the NZB 1.1 DTD's element structure for unmarshalling.
type xmlDoc struct {
	XMLName xml.Name   `xml:"nzb"`
	Head    xmlHead    `xml:"head"`
	Files   []xmlFile  `xml:"file"`
}

type xmlHead struct {
	Meta []xmlMeta `xml:"meta"`
}

type xmlMeta struct {
	Type  string `xml:"type,attr"`
	Value string `xml:",chardata"`
}

type xmlFile struct {
	Poster   string       `xml:"poster,attr"`
	Date     int64        `xml:"date,attr"`
	Subject  string       `xml:"subject,attr"`
	Groups   []string     `xml:"groups>group"`
	Segments []xmlSegment `xml:"segments>segment"`
}

type xmlSegment struct {
	Bytes     int64  `xml:"bytes,attr"`
	Number    int    `xml:"number,attr"`
	MessageID string `xml:",chardata"`
}

// Parse decodes XML conforming to the NZB 1.1 DTD. Segments may appear in
// any order inside <segments>; each (number, bytes, message-id) triple is
// recorded as-is, with no sorting or validation at this stage — call
// Validate separately (§4.9).
func Parse(data []byte) (NZB, error) {
	var doc xmlDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		return NZB{}, errs.Wrap(errs.KindProtocol, "NZB: invalid XML", err)
	}

	meta := make(map[string]string, len(doc.Head.Meta))
	for _, m := range doc.Head.Meta {
		meta[m.Type] = m.Value
	}

	files := make([]File, 0, len(doc.Files))
	for _, xf := range doc.Files {
		f := File{
			Poster:   xf.Poster,
			PostedAt: xf.Date,
			Subject:  xf.Subject,
			Groups:   xf.Groups,
		}
		for _, xs := range xf.Segments {
			f.Segments = append(f.Segments, Segment{
				Bytes:     xs.Bytes,
				Number:    xs.Number,
				MessageID: xs.MessageID,
			})
		}
		files = append(files, f)
	}

	return NZB{Meta: meta, Files: files}, nil
}

// ParseAll parses several NZB documents concurrently, fanning the work out
// across goroutines with golang.org/x/sync/errgroup the way par2.VerifyAll
// parallelizes its own independent per-file work: useful for callers
// bulk-importing a batch of .nzb files where each decode is independent
// CPU/allocation work with no shared state. Every document is parsed even
// when one fails; the first error returned is reported and no results are
// returned.
func ParseAll(documents [][]byte) ([]NZB, error) {
	results := make([]NZB, len(documents))
	var g errgroup.Group
	for i, doc := range documents {
		i, doc := i, doc
		g.Go(func() error {
			n, err := Parse(doc)
			if err != nil {
				return err
			}
			results[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Emit serializes n back to NZB 1.1 XML, declaring the DTD reference
// (§"NZB file format"). Whitespace and attribute ordering are not
// guaranteed to match any particular input document.
func Emit(n NZB) ([]byte, error) {
	doc := xmlDoc{}
	for typ, value := range n.Meta {
		doc.Head.Meta = append(doc.Head.Meta, xmlMeta{Type: typ, Value: value})
	}
	sort.Slice(doc.Head.Meta, func(i, j int) bool { return doc.Head.Meta[i].Type < doc.Head.Meta[j].Type })

	for _, f := range n.Files {
		xf := xmlFile{
			Poster:  f.Poster,
			Date:    f.PostedAt,
			Subject: f.Subject,
			Groups:  f.Groups,
		}
		for _, s := range f.Segments {
			xf.Segments = append(xf.Segments, xmlSegment{Bytes: s.Bytes, Number: s.Number, MessageID: s.MessageID})
		}
		doc.Files = append(doc.Files, xf)
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, errs.Wrap(errs.KindOther, "NZB: failed to marshal XML", err)
	}

	const dtd = `<?xml version="1.0" encoding="UTF-8"?>` + "\n" +
		`<!DOCTYPE nzb PUBLIC "-//newzBin//DTD NZB 1.1//EN" "http://www.newzbin.com/DTD/nzb/nzb-1.1.dtd">` + "\n"
	return append([]byte(dtd), body...), nil
}
