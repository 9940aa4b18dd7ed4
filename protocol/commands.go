package protocol

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// BuildCommand constructs the text line for a console command with optional
// integer arguments. The console expects space-separated decimal arguments
// and a trailing space before the newline.
//
// Line structure:
//
//	<VERB>[ <ARG>...]<SP><LF>
func BuildCommand(verb string, args ...int) []byte {
	var b strings.Builder
	b.WriteString(verb)
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(strconv.Itoa(a))
	}
	b.WriteString(" \n")
	return []byte(b.String())
}

// BuildSeekFrame constructs the watermark frame sent after DMPAFT is
// acknowledged: the packed date and time stamps little-endian, followed by
// their CRC big-endian.
//
// Frame structure:
//
//	[DATE_L][DATE_H][TIME_L][TIME_H][CRC_H][CRC_L]
func BuildSeekFrame(cur Cursor) []byte {
	frame := make([]byte, SeekFrameSize)
	binary.LittleEndian.PutUint16(frame[0:2], uint16(cur.Date))
	binary.LittleEndian.PutUint16(frame[2:4], uint16(cur.Time))
	binary.BigEndian.PutUint16(frame[4:6], Checksum(frame[:4]))
	return frame
}

// AppendCRC returns data with its big-endian CRC appended, producing a
// frame that passes Verify.
func AppendCRC(data []byte) []byte {
	frame := make([]byte, 0, len(data)+2)
	frame = append(frame, data...)
	crc := make([]byte, 2)
	binary.BigEndian.PutUint16(crc, Checksum(data))
	return append(frame, crc...)
}

// FormatStamp renders a cursor for logs as "YYYY-MM-DD HH:MM".
func FormatStamp(cur Cursor) string {
	year, month, day := cur.Date.Date()
	hour, minute := cur.Time.Clock()
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d", year, month, day, hour, minute)
}
