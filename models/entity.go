package models

// StorageEntity is the closed set of collections a request may select
// by name. Anything arriving from the request boundary is resolved
// through ResolveEntity before it goes near a query; identifiers are
// never interpolated.
type StorageEntity string

const (
	EntityClubs  StorageEntity = "clubs"
	EntityEvents StorageEntity = "events"
)

// ResolveEntity maps a request-supplied collection name onto the
// allow-list. Unknown names are rejected.
func ResolveEntity(name string) (StorageEntity, bool) {
	switch StorageEntity(name) {
	case EntityClubs:
		return EntityClubs, true
	case EntityEvents:
		return EntityEvents, true
	default:
		return "", false
	}
}
