// Package transport provides console links for the station package: a
// local serial port and a TCP stream. Both satisfy station.Device, whose
// ReadFull contract differs from io.Reader in that a read either delivers
// the full buffer or fails within the given timeout.
package transport
