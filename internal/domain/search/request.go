package search

// InsertRequest is the body accepted by POST /api/docs.
type InsertRequest struct {
	Documents []Doc `json:"documents"`
}
