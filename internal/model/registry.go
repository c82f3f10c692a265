package model

// RegistryEntry is a discoverable event listing.  Index values start at 0
// and grow by one per registration.
type RegistryEntry struct {
	Index       uint64 `json:"index"`        // event_registry.idx
	InstanceID  uint64 `json:"instance_id"`  // event_registry.instance_id
	DisplayName string `json:"display_name"` // event_registry.name
}
