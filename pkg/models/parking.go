package models

import (
	"fmt"
	"time"
)

// TimestampLayout is the format used for snapshot timestamps
const TimestampLayout = "2006-01-02 15:04:05"

// ParkingRecord represents one level/permit row of a garage table
type ParkingRecord struct {
	Garage          string `json:"garage"`
	Level           string `json:"level"`
	PermitType      string `json:"permit_type"`
	AvailableSpaces string `json:"available_spaces"`
}

// String renders the record as key=value pairs, one field per JSON key
func (r ParkingRecord) String() string {
	return fmt.Sprintf("garage=%q level=%q permit_type=%q available_spaces=%q",
		r.Garage, r.Level, r.PermitType, r.AvailableSpaces)
}

// ParkingSnapshot is the set of records captured by a single parking run
type ParkingSnapshot struct {
	Timestamp   string          `json:"timestamp"`
	RecordCount int             `json:"record_count"`
	Data        []ParkingRecord `json:"data"`
}

// NewParkingSnapshot stamps records with the given capture time
func NewParkingSnapshot(records []ParkingRecord, takenAt time.Time) ParkingSnapshot {
	data := make([]ParkingRecord, len(records))
	copy(data, records)

	return ParkingSnapshot{
		Timestamp:   takenAt.Format(TimestampLayout),
		RecordCount: len(data),
		Data:        data,
	}
}

// TakenAt parses the snapshot timestamp in the local timezone
func (s ParkingSnapshot) TakenAt() (time.Time, error) {
	return time.ParseInLocation(TimestampLayout, s.Timestamp, time.Local)
}
