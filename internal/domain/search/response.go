// Package search holds the wire contract exchanged with the search engine
// and the client-side derivations made from it.
package search

// Doc is the document part of a hit.
type Doc struct {
	URL   string   `json:"url"`
	Title string   `json:"title"`
	Body  []string `json:"body"`
}

// Hit is one ranked result. Ordering is owned by the engine.
type Hit struct {
	Score        float64  `json:"score"`
	Doc          Doc      `json:"doc"`
	RelevantBody []string `json:"relevant_body"`
}

// Snippet returns the excerpt shown for the hit.
func (h Hit) Snippet() string {
	return Snippet(h.RelevantBody)
}

// EngineResponse is the body returned by GET /api/docs.
type EngineResponse struct {
	Q         string  `json:"q"`
	ElapsedMS float64 `json:"elapsed_ms"`
	Count     *int    `json:"count,omitempty"`
	Hits      []Hit   `json:"hits"`
}

// ClientResponse is an EngineResponse annotated with the round trip measured by the caller.
type ClientResponse struct {
	EngineResponse
	ClientMS float64 `json:"client_ms"`
}
