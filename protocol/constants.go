package protocol

// Wire tokens sent by or expected from the console.
const (
	// Ack is the single-byte acknowledgement returned after most commands
	Ack = 0x06

	// Esc aborts an in-progress paged transfer on the console side
	Esc = 0x1B

	// Wake is the byte written to take the console out of standby
	Wake = '\n'
)

// WakeAck is the two-byte reply confirming the console is awake.
var WakeAck = []byte{0x0A, 0x0D}

// OKReply is the literal confirmation returned by commands that answer
// with "OK" instead of an acknowledgement byte.
var OKReply = []byte("\n\rOK\n\r")

// Command verbs understood by the console. Arguments are space-separated
// decimal text; every command line ends with a trailing space and newline.
const (
	// CmdLoop requests real-time snapshot frames ("LOOP <n>")
	CmdLoop = "LOOP"

	// CmdDumpAfter starts an incremental archive download ("DMPAFT")
	CmdDumpAfter = "DMPAFT"

	// CmdSetPeriod sets the archive interval in minutes ("SETPER <min>",
	// confirmed with the literal OK reply)
	CmdSetPeriod = "SETPER"

	// CmdClearLog erases the console's archive memory ("CLRLOG")
	CmdClearLog = "CLRLOG"

	// CmdGetTime reads the console clock ("GETTIME")
	CmdGetTime = "GETTIME"

	// CmdSetTime writes the console clock ("SETTIME", followed by a
	// CRC-terminated 6-byte clock payload)
	CmdSetTime = "SETTIME"
)

// Frame sizes in bytes. Multi-byte fields are little-endian; every frame
// carries its CRC big-endian in the final two bytes, so Verify over the
// whole frame must yield zero.
const (
	// LoopFrameSize is the size of one LOOP snapshot frame
	LoopFrameSize = 99

	// DumpHeaderSize is the size of the DMPAFT preamble:
	// pages(2) + start offset(2) + CRC(2)
	DumpHeaderSize = 6

	// DumpPageSize is the size of one archive page frame:
	// index(1) + records(260) + padding(4) + CRC(2)
	DumpPageSize = 267

	// PageBlobSize is the record area within a page frame
	PageBlobSize = 260

	// ArchiveRecordSize is the size of one archive record, identical for
	// both revisions
	ArchiveRecordSize = 52

	// RecordsPerPage is the number of record slots in a page blob
	RecordsPerPage = 5

	// SeekFrameSize is the size of the DMPAFT seek frame:
	// date stamp(2) + time stamp(2) + CRC(2)
	SeekFrameSize = 6

	// ClockFrameSize is the size of the GETTIME response:
	// sec..year(6) + CRC(2)
	ClockFrameSize = 8
)
