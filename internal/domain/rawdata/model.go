package rawdata

import "time"

// Payload is one archived upstream response page.
type Payload struct {
	Provider    string
	EntityType  string
	EntityKey   string
	RunID       string
	PayloadJSON []byte
	PayloadHash string
	FetchedAt   time.Time
}
