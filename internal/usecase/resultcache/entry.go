package resultcache

import "github.com/kailas-cloud/docsearch/internal/domain/search"

// Status is the lifecycle state of a cache entry.
type Status int

// Entry states. An absent key reads as Idle.
const (
	Idle Status = iota
	Loading
	Succeeded
	Failed
)

func (s Status) String() string {
	switch s {
	case Loading:
		return "loading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

// Entry is a snapshot of one key. Response is set only when Succeeded, Err only when Failed.
type Entry struct {
	Key      string
	Status   Status
	Response search.ClientResponse
	Err      error
}
