// Package station drives a Davis Vantage Pro weather station console.
//
// A Station wraps a Device (see the transport package for serial and TCP
// implementations) and layers the console's session behaviour on top of the
// protocol package's codecs: the wake-up handshake, command retries, the
// DMPAFT paged archive transfer, and the session watermark that makes
// archive downloads incremental.
//
// Typical use:
//
//	device, err := transport.OpenSerial("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer device.Close()
//
//	st := station.New(device, station.WithLogInterval(5))
//	if err := st.Init(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	obs, err := st.Poll(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%.1f °F, %d%% RH\n", obs.Loop.TempOut, obs.Loop.HumOut)
//
// The console sleeps aggressively to save power, so every operation starts
// by waking it and may take a couple of attempts on a quiet line. A console
// that stays silent through all attempts is reported with
// *DeviceUnreachableError.
package station
