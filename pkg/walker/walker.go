package walker

import (
	"context"
	"time"

	"adlibscraper/pkg/adlib"
	"adlibscraper/pkg/extractor"
	"adlibscraper/pkg/logger"
	"adlibscraper/pkg/retry"
)

// DefaultPageCeiling bounds one walk regardless of target
const DefaultPageCeiling = 100

// State is the walker's lifecycle state
type State string

const (
	StateStart        State = "start"
	StateFetching     State = "fetching"
	StateAccumulating State = "accumulating"
	StateDone         State = "done"
	StateAborted      State = "aborted"
)

// PageFetcher fetches listing pages. *adlib.Client satisfies it; tests
// substitute a deterministic fake.
type PageFetcher interface {
	FetchFragment(advertiser, token string) (*adlib.Page, error)
	FetchOffsetPage(advertiser string, offset int) (*adlib.Page, error)
}

// Result is the outcome of one walk
type Result struct {
	AdIDs  []string
	Pages  int
	State  State
	Reason string
}

// Walker pages through an advertiser's listing, accumulating ad IDs in
// first-seen order until the target count or a termination condition.
type Walker struct {
	fetcher     PageFetcher
	delay       time.Duration
	pageCeiling int
	logger      logger.Logger
}

// New creates a walker. Delay is the fixed pause between page fetches.
func New(fetcher PageFetcher, delay time.Duration, log logger.Logger) *Walker {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Walker{
		fetcher:     fetcher,
		delay:       delay,
		pageCeiling: DefaultPageCeiling,
		logger:      log,
	}
}

// WithPageCeiling overrides the page safety ceiling
func (w *Walker) WithPageCeiling(ceiling int) *Walker {
	w.pageCeiling = ceiling
	return w
}

// Walk runs the pagination state machine for one advertiser. Loop and
// stuck-token conditions are normal terminations, not errors: the walk
// always returns whatever was accumulated.
func (w *Walker) Walk(ctx context.Context, advertiser string, target int) (*Result, error) {
	result := &Result{State: StateStart}

	adIDs := make([]string, 0, target)
	collected := make(map[string]bool, target)
	seenTokens := make(map[string]bool)
	token := ""
	page := 1

	finish := func(state State, reason string) (*Result, error) {
		result.AdIDs = adIDs
		result.State = state
		result.Reason = reason
		w.logger.InfoWithFields("pagination walk finished", map[string]interface{}{
			"advertiser": advertiser,
			"state":      string(state),
			"reason":     reason,
			"pages":      result.Pages,
			"collected":  len(adIDs),
		})
		return result, nil
	}

	for len(adIDs) < target {
		if token != "" && seenTokens[token] {
			return finish(StateAborted, "token already seen, loop detected")
		}
		if token != "" {
			seenTokens[token] = true
		}

		result.State = StateFetching
		result.Pages++

		body, err := w.fetchPage(advertiser, token)
		if err != nil {
			w.logger.WarnWithFields("page fetch failed", map[string]interface{}{
				"advertiser": advertiser,
				"page":       page,
				"error":      err.Error(),
			})
			return finish(StateAborted, "page fetch failed")
		}
		if body.HTML == "" {
			return finish(StateAborted, "empty page body")
		}

		result.State = StateAccumulating
		pageIDs := extractor.ListingAdIDs(body.HTML)

		if len(pageIDs) == 0 && body.Token == "" {
			return finish(StateDone, "end of results")
		}

		added := 0
		for _, id := range pageIDs {
			if len(adIDs) >= target {
				break
			}
			if collected[id] {
				continue
			}
			collected[id] = true
			adIDs = append(adIDs, id)
			added++
		}

		w.logger.DebugWithFields("listing page processed", map[string]interface{}{
			"advertiser": advertiser,
			"page":       page,
			"page_ids":   len(pageIDs),
			"added":      added,
			"collected":  len(adIDs),
			"target":     target,
		})

		if added == 0 && len(pageIDs) > 0 && token != "" {
			return finish(StateAborted, "no new items on revisited token")
		}

		if len(adIDs) >= target {
			return finish(StateDone, "target reached")
		}

		next := body.Token
		if next != "" && next == token {
			return finish(StateAborted, "continuation token did not advance")
		}
		token = next
		if token == "" {
			return finish(StateDone, "no continuation token")
		}

		page++
		if page > w.pageCeiling {
			return finish(StateAborted, "page ceiling reached")
		}

		if w.delay > 0 {
			if err := retry.Wait(ctx, w.delay); err != nil {
				return finish(StateAborted, "cancelled")
			}
		}
	}

	return finish(StateDone, "target reached")
}

// fetchPage dispatches the token to the endpoint it belongs to
func (w *Walker) fetchPage(advertiser, token string) (*adlib.Page, error) {
	mode, offset := ClassifyToken(token)
	if mode == ModeOffset {
		return w.fetcher.FetchOffsetPage(advertiser, offset)
	}
	return w.fetcher.FetchFragment(advertiser, token)
}
