package fhir

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"soundsense/internal/domain"
)

func testReading() domain.Reading {
	return domain.Reading{
		PatientID: "p1",
		DeviceID:  "d1",
		Code:      domain.SignalSound,
		Value:     200.0,
		Unit:      "raw",
		Timestamp: time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC),
	}
}

func TestFromReading(t *testing.T) {
	obs := FromReading(testReading())

	assert.Equal(t, "Observation", obs.ResourceType)
	assert.Equal(t, "final", obs.Status)
	assert.Equal(t, "Patient/p1", obs.Subject.Reference)
	assert.Equal(t, 200.0, obs.ValueQuantity.Value)
	assert.Equal(t, "raw", obs.ValueQuantity.Unit)
	assert.Equal(t, testReading().Timestamp, obs.EffectiveDateTime)

	require.Len(t, obs.Code.Coding, 1)
	assert.Equal(t, "http://loinc.org", obs.Code.Coding[0].System)
	assert.Equal(t, "sound", obs.Code.Coding[0].Code)
	assert.Equal(t, "Sound Level", obs.Code.Coding[0].Display)

	_, err := uuid.Parse(obs.ID)
	assert.NoError(t, err)
	assert.NoError(t, obs.Validate())
}

func TestFromReadingGeneratesUniqueIDs(t *testing.T) {
	a := FromReading(testReading())
	b := FromReading(testReading())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestObservationValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Observation)
	}{
		{"wrong resource type", func(o *Observation) { o.ResourceType = "Patient" }},
		{"empty id", func(o *Observation) { o.ID = "" }},
		{"non-uuid id", func(o *Observation) { o.ID = "not-a-uuid" }},
		{"invalid status", func(o *Observation) { o.Status = "draft" }},
		{"no codings", func(o *Observation) { o.Code.Coding = nil }},
		{"empty coding system", func(o *Observation) { o.Code.Coding[0].System = "" }},
		{"non-uri coding system", func(o *Observation) { o.Code.Coding[0].System = "loinc" }},
		{"empty coding code", func(o *Observation) { o.Code.Coding[0].Code = "" }},
		{"empty subject reference", func(o *Observation) { o.Subject.Reference = "" }},
		{"subject reference without separator", func(o *Observation) { o.Subject.Reference = "p1" }},
		{"nan value", func(o *Observation) { o.ValueQuantity.Value = math.NaN() }},
		{"infinite value", func(o *Observation) { o.ValueQuantity.Value = math.Inf(1) }},
		{"empty unit", func(o *Observation) { o.ValueQuantity.Unit = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := FromReading(testReading())
			tt.mutate(&obs)
			assert.Error(t, obs.Validate())
		})
	}
}

func TestObservationJSONShape(t *testing.T) {
	obs := FromReading(testReading())
	data, err := json.Marshal(obs)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Observation", decoded["resourceType"])
	assert.Contains(t, decoded, "effectiveDateTime")
	vq := decoded["valueQuantity"].(map[string]any)
	assert.Equal(t, 200.0, vq["value"])
}

func TestBundle(t *testing.T) {
	obs := []Observation{FromReading(testReading()), FromReading(testReading())}
	bundle := NewBundle(obs)

	assert.Equal(t, "Bundle", bundle.ResourceType)
	assert.Equal(t, "collection", bundle.Type)
	assert.Equal(t, 2, bundle.Total)
	require.Len(t, bundle.Entry, 2)
	assert.NoError(t, bundle.Validate())

	bundle.Total = 5
	assert.Error(t, bundle.Validate())
}

func TestEmptyBundle(t *testing.T) {
	bundle := NewBundle(nil)
	assert.Equal(t, 0, bundle.Total)
	assert.NoError(t, bundle.Validate())
}
