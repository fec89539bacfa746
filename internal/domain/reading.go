// Package domain holds the sensor reading model shared by ingestion, storage,
// and the FHIR codec.
package domain

import (
	"math"
	"strings"
	"time"

	pkgerrors "soundsense/pkg/errors"
)

// Reading is a single timestamped sensor measurement for a patient/device
// pair. It is immutable once accepted: validation rejects wholesale, never
// partially.
type Reading struct {
	PatientID string     `json:"patient_id"`
	DeviceID  string     `json:"device_id"`
	Code      SignalCode `json:"code"`
	Value     float64    `json:"value"`
	Unit      string     `json:"unit"`
	Timestamp time.Time  `json:"ts"`
}

// Validate enforces the structural invariants on an inbound reading. Each
// failure returns a specific client-input reason.
func (r Reading) Validate() error {
	if strings.TrimSpace(r.PatientID) == "" {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "patient_id required")
	}
	if strings.TrimSpace(r.DeviceID) == "" {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "device_id required")
	}
	// A missing JSON code field decodes to the zero value without running the
	// alias check, so membership in the closed set is re-enforced here.
	if r.Code == "" {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "code required")
	}
	if _, err := ParseSignalCode(string(r.Code)); err != nil {
		return err
	}
	if math.IsNaN(r.Value) || math.IsInf(r.Value, 0) {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "value must be finite")
	}
	if r.Timestamp.IsZero() {
		return pkgerrors.New(pkgerrors.CodeBadRequest, "ts required")
	}
	return nil
}
