package main

import (
	"flag"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"resourcedesk/internal/api"
	"resourcedesk/pkg/logging"
)

func main() {
	var (
		addr = flag.String("addr", ":8090", "listen address")
		date = flag.String("date", "", "YYYY-MM-DD the seeded records fall on (default today)")
	)
	flag.Parse()

	log := logging.New("info", "dev")

	day := time.Now().UTC()
	if *date != "" {
		d, err := time.Parse("2006-01-02", *date)
		if err != nil {
			log.WithError(err).Fatal("bad -date")
		}
		day = d
	}

	s := newStore(day)
	srv := &http.Server{
		Addr:              *addr,
		Handler:           api.RequestLogger(log)(s.routes()),
		ReadHeaderTimeout: 10 * time.Second,
	}
	log.WithFields(logrus.Fields{"addr": *addr, "date": day.Format("2006-01-02")}).Info("fake records backend listening; point BACKEND_URL here")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.WithError(err).Fatal("http serve")
	}
}
