package station

import (
	"context"
	"fmt"

	"github.com/openwx/go-vantage/protocol"
)

// PollArchive downloads the archive records logged after the session
// watermark. On a completed transfer the watermark advances to the newest
// delivered record, so the next call only returns what the console logged
// since. A completed transfer with nothing newer returns an empty slice and
// no error.
//
// When every download attempt is aborted by a corrupted or unexpected
// frame, PollArchive returns a *NoNewRecordsError and the watermark is left
// untouched.
func (s *Station) PollArchive(ctx context.Context) ([]protocol.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pollArchive(ctx)
}

func (s *Station) pollArchive(ctx context.Context) ([]protocol.Record, error) {
	for attempt := 1; attempt <= s.config.Retries; attempt++ {
		if attempt > 1 {
			if err := s.pause(ctx); err != nil {
				return nil, err
			}
		}

		records, ok, err := s.downloadArchive(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			s.logDebug("archive download aborted", "attempt", attempt)
			continue
		}
		if len(records) == 0 {
			s.logDebug("no archive records newer than watermark",
				"since", protocol.FormatStamp(s.watermark))
			return nil, nil
		}

		newest := records[len(records)-1].Stamp()
		for _, r := range records {
			if r.Stamp().After(newest) {
				newest = r.Stamp()
			}
		}
		s.watermark = newest
		s.logInfo("archive records downloaded",
			"count", len(records), "newest", protocol.FormatStamp(newest))
		return records, nil
	}
	return nil, &NoNewRecordsError{Attempts: s.config.Retries}
}

// downloadArchive runs one DMPAFT transfer. A corrupted or unexpected frame
// aborts the transfer and reports ok=false; hard transport failures and
// unanswered handshakes return an error. A completed transfer reports
// ok=true even when it delivered no records.
func (s *Station) downloadArchive(ctx context.Context) ([]protocol.Record, bool, error) {
	if err := s.command(ctx, false, protocol.CmdDumpAfter); err != nil {
		return nil, false, err
	}

	// Seek: tell the console where the last delivered record left off.
	if _, err := s.device.Write(protocol.BuildSeekFrame(s.watermark)); err != nil {
		return nil, false, fmt.Errorf("write seek frame: %w", err)
	}
	if err := s.readAck(); err != nil {
		s.logDebug("seek frame not acknowledged", "error", err.Error())
		return nil, false, nil
	}

	header, err := s.readDumpHeader()
	if err != nil {
		s.logDebug("dump header rejected", "error", err.Error())
		s.abortTransfer()
		return nil, false, nil
	}
	s.logDebug("archive transfer starting",
		"pages", header.Pages, "first_slot", header.Offset)

	if _, err := s.device.Write([]byte{protocol.Ack}); err != nil {
		return nil, false, fmt.Errorf("acknowledge dump header: %w", err)
	}

	var records []protocol.Record
	for pageNo := 0; pageNo < int(header.Pages); pageNo++ {
		if err := ctx.Err(); err != nil {
			s.abortTransfer()
			return nil, false, err
		}

		page, err := s.readDumpPage()
		if err != nil {
			s.logDebug("dump page rejected", "page", pageNo, "error", err.Error())
			s.abortTransfer()
			return nil, false, nil
		}

		firstSlot := 0
		if pageNo == 0 {
			firstSlot = int(header.Offset)
		}
		recs, err := s.decodePage(page, firstSlot)
		if err != nil {
			s.abortTransfer()
			return nil, false, err
		}
		records = append(records, recs...)

		if _, err := s.device.Write([]byte{protocol.Ack}); err != nil {
			return nil, false, fmt.Errorf("acknowledge page %d: %w", pageNo, err)
		}
	}
	return records, true, nil
}

// decodePage walks the record slots of one page, skipping unused slots and
// anything at or below the watermark. The archive revision is probed on the
// first populated slot and then pinned for the session.
func (s *Station) decodePage(page *protocol.DumpPage, firstSlot int) ([]protocol.Record, error) {
	var records []protocol.Record
	for i := firstSlot; i < protocol.RecordsPerPage; i++ {
		slot := page.Slot(i)

		var stamp protocol.Cursor
		stamp.Date = protocol.DateStamp(uint16(slot[0]) | uint16(slot[1])<<8)
		stamp.Time = protocol.TimeStamp(uint16(slot[2]) | uint16(slot[3])<<8)
		if stamp.IsSentinel() {
			continue
		}

		if s.revision == protocol.RevisionUnknown {
			rev, err := protocol.DetectRevision(slot)
			if err != nil {
				return nil, err
			}
			s.revision = rev
			s.logInfo("archive revision detected", "revision", rev.String())
		}

		rec, err := protocol.DecodeArchive(s.revision, slot)
		if err != nil {
			return nil, err
		}
		if rec.Stamp().After(s.watermark) {
			records = append(records, rec)
		}
	}
	return records, nil
}

func (s *Station) readDumpHeader() (*protocol.DumpHeader, error) {
	frame, err := s.readFrame(protocol.DumpHeaderSize)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeDumpHeader(frame)
}

func (s *Station) readDumpPage() (*protocol.DumpPage, error) {
	frame, err := s.readFrame(protocol.DumpPageSize)
	if err != nil {
		return nil, err
	}
	return protocol.DecodeDumpPage(frame)
}

// abortTransfer tells the console to drop an in-progress paged transfer.
func (s *Station) abortTransfer() {
	if _, err := s.device.Write([]byte{protocol.Esc}); err != nil {
		s.logError("abort transfer", "error", err.Error())
	}
}
