package scraper

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jgoulah/campusscraper/internal/errkind"
	"github.com/jgoulah/campusscraper/internal/extract"
	"github.com/jgoulah/campusscraper/pkg/models"
	"github.com/sirupsen/logrus"
)

// ParkingScraper fetches the garage availability fragment over HTTP
type ParkingScraper struct {
	client    *http.Client
	url       string
	userAgent string
}

// ParkingOptions configures NewParkingScraper
type ParkingOptions struct {
	URL       string
	UserAgent string
	Timeout   time.Duration
	VerifyTLS bool
}

// NewParkingScraper creates a new parking scraper
func NewParkingScraper(opts ParkingOptions) *ParkingScraper {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !opts.VerifyTLS {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &ParkingScraper{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		url:       opts.URL,
		userAgent: opts.UserAgent,
	}
}

// Fetch returns the raw garage markup
func (s *ParkingScraper) Fetch(ctx context.Context) ([]byte, error) {
	log := logrus.WithField("url", s.url)
	log.Info("Requesting HTML data")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrNetwork, err, "creating request")
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		log.WithError(err).Error("Request failed")
		return nil, errkind.Wrap(errkind.ErrNetwork, err, "fetching %s", s.url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		log.WithField("status", resp.StatusCode).Error("Unexpected status code")
		return nil, errkind.Wrap(errkind.ErrNetwork, fmt.Errorf("unexpected status code: %d", resp.StatusCode), "fetching %s", s.url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrNetwork, err, "reading response")
	}

	log.WithField("size", humanize.Bytes(uint64(len(body)))).Debug("Fetched HTML")
	return body, nil
}

// Scrape fetches the garage page and extracts its records
func (s *ParkingScraper) Scrape(ctx context.Context) ([]models.ParkingRecord, error) {
	body, err := s.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	records, err := extract.ParseParking(bytes.NewReader(body))
	if err != nil {
		return nil, errkind.Wrap(errkind.ErrParse, err, "parsing garage page")
	}

	return records, nil
}
