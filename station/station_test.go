package station

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/openwx/go-vantage/protocol"
)

// MockDevice simulates the console link for testing. Each queued response
// answers exactly one ReadFull call; a nil entry simulates a read timeout,
// as does running out of responses.
type MockDevice struct {
	responses [][]byte
	respIdx   int
	writeBuf  bytes.Buffer
	writeErr  error
}

func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

func (m *MockDevice) AddResponse(data []byte) {
	m.responses = append(m.responses, data)
}

func (m *MockDevice) AddTimeout() {
	m.responses = append(m.responses, nil)
}

func (m *MockDevice) ReadFull(p []byte, timeout time.Duration) (int, error) {
	if m.respIdx >= len(m.responses) {
		return 0, errors.New("read timed out")
	}
	resp := m.responses[m.respIdx]
	m.respIdx++
	if resp == nil {
		return 0, errors.New("read timed out")
	}
	n := copy(p, resp)
	if n < len(p) {
		return n, errors.New("short read")
	}
	return n, nil
}

func (m *MockDevice) Write(p []byte) (int, error) {
	if m.writeErr != nil {
		return 0, m.writeErr
	}
	return m.writeBuf.Write(p)
}

func (m *MockDevice) Written() []byte {
	return m.writeBuf.Bytes()
}

// Mock logger for testing
type MockLogger struct {
	debugMsgs []string
	infoMsgs  []string
	errorMsgs []string
}

func (l *MockLogger) Debug(msg string, kv ...interface{}) {
	l.debugMsgs = append(l.debugMsgs, msg)
}

func (l *MockLogger) Info(msg string, kv ...interface{}) {
	l.infoMsgs = append(l.infoMsgs, msg)
}

func (l *MockLogger) Error(msg string, kv ...interface{}) {
	l.errorMsgs = append(l.errorMsgs, msg)
}

// loopTestFrame builds a CRC-valid LOOP frame with a few recognizable
// readings set.
func loopTestFrame() []byte {
	payload := make([]byte, protocol.LoopFrameSize-2)
	binary.LittleEndian.PutUint16(payload[7:9], 29985) // 29.985 inHg
	binary.LittleEndian.PutUint16(payload[12:14], 721) // 72.1 F outside
	payload[15] = 5                                    // 10-min wind
	payload[33] = 78                                   // outside humidity
	return protocol.AppendCRC(payload)
}

// archiveTestSlot builds a CRC-agnostic revision-B record slot with the
// given stamp. CRC protection applies to the page frame, not the slot.
func archiveTestSlot(date protocol.DateStamp, tm protocol.TimeStamp) []byte {
	slot := make([]byte, protocol.ArchiveRecordSize)
	binary.LittleEndian.PutUint16(slot[0:2], uint16(date))
	binary.LittleEndian.PutUint16(slot[2:4], uint16(tm))
	binary.LittleEndian.PutUint16(slot[4:6], 721)
	return slot
}

// pageTestFrame builds a CRC-valid page frame from up to five record slots;
// missing slots are filled with the unused-slot sentinel.
func pageTestFrame(index byte, slots ...[]byte) []byte {
	payload := make([]byte, protocol.DumpPageSize-2)
	payload[0] = index
	for i := 0; i < protocol.RecordsPerPage; i++ {
		off := 1 + i*protocol.ArchiveRecordSize
		if i < len(slots) {
			copy(payload[off:], slots[i])
		} else {
			payload[off], payload[off+1] = 0xFF, 0xFF
			payload[off+2], payload[off+3] = 0xFF, 0xFF
		}
	}
	return protocol.AppendCRC(payload)
}

func headerTestFrame(pages, offset uint16) []byte {
	payload := make([]byte, protocol.DumpHeaderSize-2)
	binary.LittleEndian.PutUint16(payload[0:2], pages)
	binary.LittleEndian.PutUint16(payload[2:4], offset)
	return protocol.AppendCRC(payload)
}

var testStart = time.Date(2023, 6, 15, 12, 0, 0, 0, time.Local)

func TestNew(t *testing.T) {
	device := NewMockDevice()

	tests := []struct {
		name    string
		options []Option
	}{
		{
			name:    "with no options",
			options: nil,
		},
		{
			name: "with all options",
			options: []Option{
				WithLogger(&MockLogger{}),
				WithRetries(5),
				WithRetryPause(100 * time.Millisecond),
				WithAckTimeout(time.Second),
				WithOKTimeout(10 * time.Second),
				WithFrameTimeout(2 * time.Second),
				WithLogInterval(10),
				WithClearLog(true),
				WithArchives(false),
				WithStartTime(testStart),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := New(device, tt.options...)
			if st == nil {
				t.Fatal("New() returned nil")
			}
			if st.device != device {
				t.Error("device not set correctly")
			}
		})
	}
}

func TestWakeUnansweredReportsUnreachable(t *testing.T) {
	device := NewMockDevice()
	// no responses queued: every read times out

	st := New(device, WithRetryPause(0))
	_, err := st.LoopPoll(context.Background())

	if !IsDeviceUnreachable(err) {
		t.Fatalf("error = %v, want *DeviceUnreachableError", err)
	}
	var unreachable *DeviceUnreachableError
	errors.As(err, &unreachable)
	if unreachable.Op != "wake" {
		t.Errorf("Op = %q, want %q", unreachable.Op, "wake")
	}
	if unreachable.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", unreachable.Attempts)
	}
	if got := bytes.Count(device.Written(), []byte{protocol.Wake}); got != 3 {
		t.Errorf("wake-up written %d times, want 3", got)
	}
}

func TestLoopPoll(t *testing.T) {
	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(loopTestFrame())

	st := New(device)
	r, err := st.LoopPoll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.TempOut != 72.1 {
		t.Errorf("TempOut = %v, want 72.1", r.TempOut)
	}
	if r.HumOut != 78 {
		t.Errorf("HumOut = %d, want 78", r.HumOut)
	}
	if !bytes.Contains(device.Written(), []byte("LOOP 1 \n")) {
		t.Errorf("LOOP command not written, got %q", device.Written())
	}
}

func TestLoopPollRetriesCorruptedFrame(t *testing.T) {
	corrupted := loopTestFrame()
	corrupted[10] ^= 0xFF

	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(corrupted)
	// second attempt re-issues the command
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(loopTestFrame())

	st := New(device, WithRetryPause(0))
	r, err := st.LoopPoll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.TempOut != 72.1 {
		t.Errorf("TempOut = %v, want 72.1", r.TempOut)
	}
}

func TestLoopPollGivesUpOnPersistentCorruption(t *testing.T) {
	corrupted := loopTestFrame()
	corrupted[10] ^= 0xFF

	device := NewMockDevice()
	for i := 0; i < 3; i++ {
		device.AddResponse(protocol.WakeAck)
		device.AddResponse([]byte{protocol.Ack})
		device.AddResponse(corrupted)
	}

	st := New(device, WithRetryPause(0))
	_, err := st.LoopPoll(context.Background())

	if !IsDeviceUnreachable(err) {
		t.Fatalf("error = %v, want *DeviceUnreachableError", err)
	}
	var unreachable *DeviceUnreachableError
	errors.As(err, &unreachable)
	if unreachable.Op != "loop" {
		t.Errorf("Op = %q, want %q", unreachable.Op, "loop")
	}
	if unreachable.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", unreachable.Attempts)
	}
	if unreachable.Unwrap() == nil {
		t.Error("final attempt's failure not carried")
	}
}

func TestCommandReplyTimeoutFailsFast(t *testing.T) {
	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	// acknowledgement read times out: no further responses queued

	st := New(device, WithRetryPause(0))
	_, err := st.LoopPoll(context.Background())

	if !IsDeviceUnreachable(err) {
		t.Fatalf("error = %v, want *DeviceUnreachableError", err)
	}
	var unreachable *DeviceUnreachableError
	errors.As(err, &unreachable)
	if unreachable.Op != protocol.CmdLoop {
		t.Errorf("Op = %q, want %q", unreachable.Op, protocol.CmdLoop)
	}
	// A silent console is not re-commanded; only the content-mismatch path
	// retries.
	if got := bytes.Count(device.Written(), []byte("LOOP 1 \n")); got != 1 {
		t.Errorf("LOOP command written %d times, want 1", got)
	}
}

func TestCommandRetriesOnReplyMismatch(t *testing.T) {
	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{0x15}) // wrong byte in place of ACK
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(loopTestFrame())

	st := New(device, WithRetryPause(0))
	r, err := st.LoopPoll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.TempOut != 72.1 {
		t.Errorf("TempOut = %v, want 72.1", r.TempOut)
	}
	if got := bytes.Count(device.Written(), []byte("LOOP 1 \n")); got != 2 {
		t.Errorf("LOOP command written %d times, want 2", got)
	}
}

func TestPollArchiveDeliversNewRecords(t *testing.T) {
	newStamp := protocol.CursorFor(testStart.Add(30 * time.Minute))
	slot := archiveTestSlot(newStamp.Date, newStamp.Time)

	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack}) // DMPAFT accepted
	device.AddResponse([]byte{protocol.Ack}) // seek frame accepted
	device.AddResponse(headerTestFrame(1, 0))
	device.AddResponse(pageTestFrame(0, slot))

	st := New(device, WithStartTime(testStart), WithRetryPause(0))
	records, err := st.PollArchive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if _, ok := records[0].(*protocol.ArchiveB); !ok {
		t.Errorf("record type = %T, want *protocol.ArchiveB", records[0])
	}
	if records[0].Stamp() != newStamp {
		t.Errorf("record stamp = %v, want %v", records[0].Stamp(), newStamp)
	}
	if st.Watermark() != newStamp {
		t.Errorf("watermark = %v, want %v", st.Watermark(), newStamp)
	}

	written := device.Written()
	if !bytes.Contains(written, []byte("DMPAFT \n")) {
		t.Error("DMPAFT command not written")
	}
	if !bytes.Contains(written, protocol.BuildSeekFrame(protocol.CursorFor(testStart))) {
		t.Error("seek frame not written")
	}
	if bytes.Contains(written, []byte{protocol.Esc}) {
		t.Error("transfer aborted unexpectedly")
	}
}

func TestPollArchiveSkipsStaleRecords(t *testing.T) {
	stale := protocol.CursorFor(testStart.Add(-time.Hour))
	fresh := protocol.CursorFor(testStart.Add(30 * time.Minute))

	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(headerTestFrame(1, 0))
	device.AddResponse(pageTestFrame(0,
		archiveTestSlot(stale.Date, stale.Time),
		archiveTestSlot(fresh.Date, fresh.Time)))

	st := New(device, WithStartTime(testStart), WithRetryPause(0))
	records, err := st.PollArchive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Stamp() != fresh {
		t.Errorf("record stamp = %v, want %v", records[0].Stamp(), fresh)
	}
}

func TestPollArchiveHonorsHeaderOffset(t *testing.T) {
	first := protocol.CursorFor(testStart.Add(30 * time.Minute))
	second := protocol.CursorFor(testStart.Add(60 * time.Minute))

	// The record in slot 0 predates the seek and must be skipped via the
	// header offset, not the watermark.
	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(headerTestFrame(1, 1))
	device.AddResponse(pageTestFrame(0,
		archiveTestSlot(first.Date, first.Time),
		archiveTestSlot(second.Date, second.Time)))

	st := New(device, WithStartTime(testStart), WithRetryPause(0))
	records, err := st.PollArchive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].Stamp() != second {
		t.Errorf("record stamp = %v, want %v", records[0].Stamp(), second)
	}
}

func TestPollArchiveCorruptHeaderAborts(t *testing.T) {
	badHeader := headerTestFrame(1, 0)
	badHeader[0] ^= 0xFF

	device := NewMockDevice()
	for i := 0; i < 3; i++ {
		device.AddResponse(protocol.WakeAck)
		device.AddResponse([]byte{protocol.Ack})
		device.AddResponse([]byte{protocol.Ack})
		device.AddResponse(badHeader)
	}

	st := New(device, WithStartTime(testStart), WithRetryPause(0))
	before := st.Watermark()
	_, err := st.PollArchive(context.Background())

	if !IsNoNewRecords(err) {
		t.Fatalf("error = %v, want *NoNewRecordsError", err)
	}
	if st.Watermark() != before {
		t.Error("watermark moved despite failed download")
	}
	if got := bytes.Count(device.Written(), []byte{protocol.Esc}); got != 3 {
		t.Errorf("abort written %d times, want 3", got)
	}
}

func TestPollArchiveSeekRejectedRetries(t *testing.T) {
	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse([]byte{0x21}) // seek frame rejected

	st := New(device, WithStartTime(testStart), WithRetries(1), WithRetryPause(0))
	_, err := st.PollArchive(context.Background())
	if !IsNoNewRecords(err) {
		t.Fatalf("error = %v, want *NoNewRecordsError", err)
	}
}

func TestPollArchiveDetectsRevisionA(t *testing.T) {
	newStamp := protocol.CursorFor(testStart.Add(30 * time.Minute))
	slot := archiveTestSlot(newStamp.Date, newStamp.Time)
	slot[42] = 0xFF // rev. A discriminator

	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(headerTestFrame(1, 0))
	device.AddResponse(pageTestFrame(0, slot))

	st := New(device, WithStartTime(testStart), WithRetryPause(0))
	records, err := st.PollArchive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if _, ok := records[0].(*protocol.ArchiveA); !ok {
		t.Errorf("record type = %T, want *protocol.ArchiveA", records[0])
	}
	if st.revision != protocol.RevisionA {
		t.Errorf("revision = %v, want %v", st.revision, protocol.RevisionA)
	}
}

func TestPollCombinesLoopAndArchive(t *testing.T) {
	newStamp := protocol.CursorFor(testStart.Add(30 * time.Minute))

	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(loopTestFrame())
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(headerTestFrame(1, 0))
	device.AddResponse(pageTestFrame(0, archiveTestSlot(newStamp.Date, newStamp.Time)))

	logger := &MockLogger{}
	st := New(device, WithStartTime(testStart), WithRetryPause(0), WithLogger(logger))
	obs, err := st.Poll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if obs.Loop.TempOut != 72.1 {
		t.Errorf("TempOut = %v, want 72.1", obs.Loop.TempOut)
	}
	// Below the heat index regression's range the reading passes through.
	if obs.HeatIndex != 72.1 {
		t.Errorf("HeatIndex = %v, want 72.1", obs.HeatIndex)
	}
	if obs.WindChill <= 74 || obs.WindChill >= 74.5 {
		t.Errorf("WindChill = %v, want about 74.18", obs.WindChill)
	}
	if obs.DewPoint <= 64.9 || obs.DewPoint >= 65.1 {
		t.Errorf("DewPoint = %v, want about 64.97", obs.DewPoint)
	}
	if len(obs.Archive) != 1 {
		t.Errorf("got %d archive records, want 1", len(obs.Archive))
	}
	if !obs.UTCTime.Equal(obs.Time) {
		t.Error("UTCTime and Time describe different instants")
	}

	reading := obs.Reading()
	if reading.TempOut != 72.1 || reading.HumOut != 78 {
		t.Errorf("reading = %+v, want TempOut 72.1 and HumOut 78", reading)
	}

	if len(logger.infoMsgs) == 0 {
		t.Error("expected info log messages, got none")
	}
}

func TestPollArchiveEmptyTransferIsNotAnError(t *testing.T) {
	// A completed transfer with only sentinel slots means the console has
	// nothing newer; it must not be retried or reported as a failure.
	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(headerTestFrame(1, 0))
	device.AddResponse(pageTestFrame(0))

	st := New(device, WithStartTime(testStart), WithRetryPause(0))
	records, err := st.PollArchive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("got %d records, want 0", len(records))
	}
	if device.respIdx != len(device.responses) {
		t.Error("empty transfer was retried")
	}
}

func TestPollToleratesEmptyArchive(t *testing.T) {
	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(loopTestFrame())
	// archive: transfer completes but the console has nothing newer
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(headerTestFrame(1, 0))
	device.AddResponse(pageTestFrame(0))

	st := New(device, WithStartTime(testStart), WithRetryPause(0))
	obs, err := st.Poll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(obs.Archive) != 0 {
		t.Errorf("got %d archive records, want 0", len(obs.Archive))
	}
	if st.LastObservation() != obs {
		t.Error("session did not retain the last observation")
	}
}

func TestWatermarkMonotonicity(t *testing.T) {
	stampAt := func(d time.Duration) protocol.Cursor {
		return protocol.CursorFor(testStart.Add(d))
	}

	device := NewMockDevice()
	// First download: records at +30m and +60m.
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(headerTestFrame(1, 0))
	device.AddResponse(pageTestFrame(0,
		archiveTestSlot(stampAt(30*time.Minute).Date, stampAt(30*time.Minute).Time),
		archiveTestSlot(stampAt(60*time.Minute).Date, stampAt(60*time.Minute).Time)))
	// Second download: the console replays +60m alongside +90m.
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(headerTestFrame(1, 0))
	device.AddResponse(pageTestFrame(0,
		archiveTestSlot(stampAt(60*time.Minute).Date, stampAt(60*time.Minute).Time),
		archiveTestSlot(stampAt(90*time.Minute).Date, stampAt(90*time.Minute).Time)))

	st := New(device, WithStartTime(testStart), WithRetryPause(0))

	records, err := st.PollArchive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("first download: got %d records, want 2", len(records))
	}
	if st.Watermark() != stampAt(60*time.Minute) {
		t.Errorf("watermark = %v, want %v", st.Watermark(), stampAt(60*time.Minute))
	}

	records, err = st.PollArchive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 || records[0].Stamp() != stampAt(90*time.Minute) {
		t.Fatalf("second download: got %d records, want just the +90m record", len(records))
	}
	if st.Watermark() != stampAt(90*time.Minute) {
		t.Errorf("watermark = %v, want %v", st.Watermark(), stampAt(90*time.Minute))
	}
}

func TestInit(t *testing.T) {
	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack}) // CLRLOG
	device.AddResponse(protocol.WakeAck)
	device.AddResponse(protocol.OKReply) // SETPER

	st := New(device, WithClearLog(true), WithLogInterval(10))
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	written := device.Written()
	if !bytes.Contains(written, []byte("CLRLOG \n")) {
		t.Error("CLRLOG command not written")
	}
	if !bytes.Contains(written, []byte("SETPER 10 \n")) {
		t.Error("SETPER command not written")
	}
}

func TestGetTime(t *testing.T) {
	want := time.Date(2023, 6, 15, 18, 54, 12, 0, time.Local)

	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack})
	device.AddResponse(protocol.AppendCRC(protocol.EncodeClock(want)))

	st := New(device)
	got, err := st.GetTime(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Equal(want) {
		t.Errorf("GetTime = %v, want %v", got, want)
	}
}

func TestSetTime(t *testing.T) {
	when := time.Date(2023, 6, 15, 18, 54, 12, 0, time.Local)

	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)
	device.AddResponse([]byte{protocol.Ack}) // SETTIME accepted
	device.AddResponse([]byte{protocol.Ack}) // payload accepted

	st := New(device)
	if err := st.SetTime(context.Background(), when); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(device.Written(), protocol.AppendCRC(protocol.EncodeClock(when))) {
		t.Error("clock payload not written")
	}
}

func TestCommandCancellation(t *testing.T) {
	device := NewMockDevice()
	device.AddResponse(protocol.WakeAck)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := New(device)
	_, err := st.LoopPoll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
