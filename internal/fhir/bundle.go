package fhir

import "fmt"

const (
	ResourceTypeBundle   = "Bundle"
	BundleTypeCollection = "collection"
)

var validBundleTypes = map[string]bool{
	"document": true, "message": true, "transaction": true,
	"transaction-response": true, "batch": true, "batch-response": true,
	"history": true, "searchset": true, "collection": true,
}

type BundleEntry struct {
	Resource Observation `json:"resource"`
}

// Bundle is the ordered query-result collection. Constructed on demand, never
// persisted.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	Type         string        `json:"type"`
	Total        int           `json:"total"`
	Entry        []BundleEntry `json:"entry"`
}

// NewBundle wraps observations in a collection Bundle; Total always equals
// the entry count.
func NewBundle(observations []Observation) Bundle {
	entries := make([]BundleEntry, 0, len(observations))
	for _, o := range observations {
		entries = append(entries, BundleEntry{Resource: o})
	}
	return Bundle{
		ResourceType: ResourceTypeBundle,
		Type:         BundleTypeCollection,
		Total:        len(entries),
		Entry:        entries,
	}
}

// Validate checks the Bundle envelope and every contained observation.
func (b Bundle) Validate() error {
	if b.ResourceType != ResourceTypeBundle {
		return fmt.Errorf("resourceType must be %q", ResourceTypeBundle)
	}
	if !validBundleTypes[b.Type] {
		return fmt.Errorf("invalid bundle type %q", b.Type)
	}
	if b.Total != len(b.Entry) {
		return fmt.Errorf("bundle total (%d) does not match entry count (%d)", b.Total, len(b.Entry))
	}
	for i, entry := range b.Entry {
		if err := entry.Resource.Validate(); err != nil {
			return fmt.Errorf("observation at index %d is invalid: %w", i, err)
		}
	}
	return nil
}
