// wxpoll polls a Davis Vantage Pro console and logs each observation,
// real-time readings and newly archived records alike.
package main

import (
	"context"
	"errors"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openwx/go-vantage/protocol"
	"github.com/openwx/go-vantage/station"
	"github.com/openwx/go-vantage/transport"
)

type device interface {
	station.Device
	io.Closer
}

func main() {
	configPath := flag.String("config", "wxpoll.yaml", "path to the configuration file")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.WithError(err).Fatal("config load failed")
	}
	if cfg.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	dev, err := openDevice(cfg)
	if err != nil {
		log.WithError(err).Fatal("device open failed")
	}
	defer dev.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st := station.New(dev,
		station.WithLogger(&stationLogger{log: log}),
		station.WithArchives(cfg.Poll.Archives),
		station.WithLogInterval(cfg.Console.LogIntervalMin),
		station.WithClearLog(cfg.Console.ClearLog),
	)

	if err := st.Init(ctx); err != nil {
		log.WithError(err).Fatal("console init failed")
	}

	if clock, err := st.GetTime(ctx); err != nil {
		log.WithError(err).Warn("console clock unreadable")
	} else {
		log.WithField("console_time", clock.Format(time.RFC3339)).Info("console clock read")
	}

	log.WithField("interval", cfg.pollInterval().String()).Info("polling started")

	ticker := time.NewTicker(cfg.pollInterval())
	defer ticker.Stop()

	for {
		pollOnce(ctx, log, st)

		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return
		case <-ticker.C:
		}
	}
}

func pollOnce(ctx context.Context, log *logrus.Logger, st *station.Station) {
	obs, err := st.Poll(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		if station.IsDeviceUnreachable(err) {
			log.WithError(err).Error("console unreachable")
		} else {
			log.WithError(err).Error("poll failed")
		}
		return
	}

	r := obs.Reading()
	log.WithFields(logrus.Fields{
		"temp_out":   r.TempOut,
		"heat_index": r.HeatIndex,
		"wind_chill": r.WindChill,
		"dew_point":  r.DewPoint,
		"hum_out":    r.HumOut,
		"pressure":   r.Pressure,
		"wind_mph":   r.WindSpeed,
		"wind_dir":   r.WindDir,
		"rain_rate":  r.RainRate,
	}).Info("observation")

	for _, rec := range obs.Archive {
		log.WithField("stamp", protocol.FormatStamp(rec.Stamp())).Info("archive record")
	}
}

func openDevice(cfg *Config) (device, error) {
	if cfg.Device.Type == "tcp" {
		return transport.Dial(cfg.Device.Addr)
	}
	return transport.OpenSerial(cfg.Device.Port)
}

// stationLogger adapts logrus to the station's logging interface.
type stationLogger struct {
	log *logrus.Logger
}

func (l *stationLogger) Debug(msg string, kv ...interface{}) { l.entry(kv).Debug(msg) }
func (l *stationLogger) Info(msg string, kv ...interface{})  { l.entry(kv).Info(msg) }
func (l *stationLogger) Error(msg string, kv ...interface{}) { l.entry(kv).Error(msg) }

func (l *stationLogger) entry(kv []interface{}) *logrus.Entry {
	fields := logrus.Fields{}
	for i := 0; i+1 < len(kv); i += 2 {
		if key, ok := kv[i].(string); ok {
			fields[key] = kv[i+1]
		}
	}
	return l.log.WithFields(fields)
}
