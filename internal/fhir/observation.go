// Package fhir converts sensor readings into FHIR R4 Observation resources
// and validates the result independently of input validation. The second
// check exists so the pipeline can never persist or broadcast a structurally
// invalid record even if conversion grows a bug.
package fhir

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"soundsense/internal/domain"
)

const (
	ResourceTypeObservation = "Observation"
	StatusFinal             = "final"
	codingSystemLOINC       = "http://loinc.org"
)

// validStatuses is the FHIR R4 Observation.status value set.
var validStatuses = map[string]bool{
	"registered": true, "preliminary": true, "final": true, "amended": true,
	"corrected": true, "cancelled": true, "entered-in-error": true, "unknown": true,
}

type Coding struct {
	System  string `json:"system"`
	Code    string `json:"code"`
	Display string `json:"display"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding"`
	Text   string   `json:"text"`
}

type Quantity struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

type Reference struct {
	Reference string `json:"reference"`
}

// Observation is the canonical clinical record derived 1:1 from a Reading.
// Never mutated after creation.
type Observation struct {
	ResourceType      string          `json:"resourceType"`
	ID                string          `json:"id"`
	Status            string          `json:"status"`
	Code              CodeableConcept `json:"code"`
	Subject           Reference       `json:"subject"`
	EffectiveDateTime time.Time       `json:"effectiveDateTime"`
	ValueQuantity     Quantity        `json:"valueQuantity"`
}

// FromReading converts a structurally valid Reading into an Observation with
// a freshly generated identifier. Pure apart from ID generation; no I/O.
func FromReading(r domain.Reading) Observation {
	display := r.Code.Display()
	return Observation{
		ResourceType: ResourceTypeObservation,
		ID:           uuid.NewString(),
		Status:       StatusFinal,
		Code: CodeableConcept{
			Coding: []Coding{{
				System:  codingSystemLOINC,
				Code:    string(r.Code),
				Display: display,
			}},
			Text: display,
		},
		Subject:           Reference{Reference: "Patient/" + r.PatientID},
		EffectiveDateTime: r.Timestamp,
		ValueQuantity:     Quantity{Value: r.Value, Unit: r.Unit},
	}
}

// Validate re-checks the derived record against the FHIR R4 schema rules the
// downstream tooling depends on.
func (o Observation) Validate() error {
	if o.ResourceType != ResourceTypeObservation {
		return fmt.Errorf("resourceType must be %q", ResourceTypeObservation)
	}
	if o.ID == "" {
		return fmt.Errorf("observation ID is required")
	}
	if _, err := uuid.Parse(o.ID); err != nil {
		return fmt.Errorf("observation ID must be a valid UUID")
	}
	if !validStatuses[o.Status] {
		return fmt.Errorf("invalid status %q", o.Status)
	}
	if len(o.Code.Coding) == 0 {
		return fmt.Errorf("observation must have at least one coding")
	}
	for _, coding := range o.Code.Coding {
		if coding.System == "" {
			return fmt.Errorf("coding system is required")
		}
		if !strings.HasPrefix(coding.System, "http://") && !strings.HasPrefix(coding.System, "https://") {
			return fmt.Errorf("coding system must be a valid URI: %s", coding.System)
		}
		if coding.Code == "" {
			return fmt.Errorf("coding code is required")
		}
	}
	if o.Subject.Reference == "" {
		return fmt.Errorf("subject reference is required")
	}
	if !strings.Contains(o.Subject.Reference, "/") {
		return fmt.Errorf("subject reference must follow format: ResourceType/id")
	}
	if math.IsNaN(o.ValueQuantity.Value) || math.IsInf(o.ValueQuantity.Value, 0) {
		return fmt.Errorf("value must be a finite number")
	}
	if o.ValueQuantity.Unit == "" {
		return fmt.Errorf("value unit is required")
	}
	return nil
}
