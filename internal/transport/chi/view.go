package chi

import (
	"fmt"

	"github.com/kailas-cloud/docsearch/internal/domain"
	"github.com/kailas-cloud/docsearch/internal/domain/query"
	"github.com/kailas-cloud/docsearch/internal/usecase/resultcache"
)

type pageView struct {
	Draft   string
	Loading bool
	Error   string
	Failed  bool
	Results *resultsView
}

type resultsView struct {
	Count        *int
	InternalTime string
	ClientTime   string
	Cards        []cardView
}

type cardView struct {
	URL     string
	Title   string
	Snippet string
}

// newPageView maps the cache entry of an active query onto the page.
// Idle reads as loading: the entry was evicted and the next render fetches again.
func newPageView(state query.State, e resultcache.Entry) pageView {
	view := pageView{Draft: state.Draft()}

	switch e.Status {
	case resultcache.Succeeded:
		resp := e.Response
		cards := make([]cardView, 0, len(resp.Hits))
		for _, h := range resp.Hits {
			cards = append(cards, cardView{URL: h.Doc.URL, Title: h.Doc.Title, Snippet: h.Snippet()})
		}
		view.Results = &resultsView{
			Count:        resp.Count,
			InternalTime: formatMS(resp.ElapsedMS),
			ClientTime:   formatMS(resp.ClientMS),
			Cards:        cards,
		}
	case resultcache.Failed:
		view.Failed = true
		view.Error = domain.Message(e.Err)
	default:
		view.Loading = true
	}
	return view
}

func formatMS(ms float64) string {
	return fmt.Sprintf("%.3fms", ms)
}
