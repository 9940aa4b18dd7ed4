// Package protocol implements the wire layer of the Davis Vantage Pro
// console protocol: CRC-16 frame verification, command line construction,
// and the fixed-layout binary record codecs.
//
// # Frames
//
// Every binary frame the console sends ends in a big-endian CRC-16 over
// the preceding bytes, computed with the XMODEM polynomial 0x1021 from a
// zero seed. A frame is valid iff the CRC over the whole frame, trailing
// CRC included, is zero:
//
//	if !protocol.Verify(frame) {
//	    // corrupted, request again or abort
//	}
//
// # Record layouts
//
// Five fixed layouts are decoded here:
//   - LoopRecord: the 99-byte real-time snapshot (LOOP command)
//   - ArchiveA / ArchiveB: the two 52-byte historical record revisions
//   - DumpHeader / DumpPage: the DMPAFT paged-transfer framing
//
// Archive decoding is two-staged: a shared common-prefix decode covers the
// first 30 bytes of both revisions, then a revision-specific tail decode
// fills the remainder. The revision in use is auto-detected once per
// session from the RecType discriminator byte (see DetectRevision).
//
// All multi-byte fields are little-endian except the trailing CRCs.
// Decoders return a *FrameError when the input is shorter than the layout
// requires; they never panic on short input.
//
// This package performs no I/O. The station package drives the command
// handshake and paged transfers on top of it.
package protocol
