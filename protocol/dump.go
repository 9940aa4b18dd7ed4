package protocol

import "encoding/binary"

// DumpHeader is the decoded DMPAFT preamble.
type DumpHeader struct {
	// Pages is the number of page frames the console will send
	Pages uint16

	// Offset is the index of the first still-relevant record slot within
	// the first page, in record-size units
	Offset uint16
}

// DecodeDumpHeader decodes the 6-byte DMPAFT preamble. The caller is
// expected to have CRC-verified the frame already.
func DecodeDumpHeader(data []byte) (*DumpHeader, error) {
	if len(data) < DumpHeaderSize {
		return nil, &FrameError{Frame: "dump header", Got: len(data), Want: DumpHeaderSize}
	}
	return &DumpHeader{
		Pages:  binary.LittleEndian.Uint16(data[0:2]),
		Offset: binary.LittleEndian.Uint16(data[2:4]),
	}, nil
}

// DumpPage is one decoded archive page frame.
type DumpPage struct {
	// Index is the console-side page sequence number
	Index byte

	// Records is the raw blob holding up to RecordsPerPage record slots
	Records [PageBlobSize]byte
}

// DecodeDumpPage decodes a 267-byte page frame. The caller is expected to
// have CRC-verified the frame already.
func DecodeDumpPage(data []byte) (*DumpPage, error) {
	if len(data) < DumpPageSize {
		return nil, &FrameError{Frame: "dump page", Got: len(data), Want: DumpPageSize}
	}
	p := &DumpPage{Index: data[0]}
	copy(p.Records[:], data[1:1+PageBlobSize])
	return p, nil
}

// Slot returns the i-th record slot of the page blob.
func (p *DumpPage) Slot(i int) []byte {
	return p.Records[i*ArchiveRecordSize : (i+1)*ArchiveRecordSize]
}
