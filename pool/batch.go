package pool

import (
	"context"

	"github.com/javi11/nntppool/v4/nntp"
	concpool "github.com/sourcegraph/conc/pool"
)

// BatchResult pairs one concurrently-fetched article with its error.
type BatchResult struct {
	ID      string
	Article nntp.Article
	Err     error
}

// FetchArticles fetches each id concurrently, bounded by maxWorkers
// simultaneous connection checkouts, using sourcegraph/conc/pool the way
// internal/usenet/usenet_reader.go's downloadManager bounds its segment
// downloads. Each worker acquires its own connection from np and releases
// it when done, so this is the natural home for cross-connection
// concurrency (as opposed to nntp.Client.ArticlePipeline, which pipelines
// multiple requests over a single already-acquired connection).
func FetchArticles(ctx context.Context, np *Pool[*nntp.Client], ids []string, maxWorkers int) []BatchResult {
	if maxWorkers <= 0 {
		maxWorkers = 10
	}

	results := make([]BatchResult, len(ids))
	wp := concpool.New().WithMaxGoroutines(maxWorkers).WithContext(ctx)

	for i, id := range ids {
		idx, msgID := i, id
		wp.Go(func(c context.Context) error {
			client, err := np.Acquire(c)
			if err != nil {
				results[idx] = BatchResult{ID: msgID, Err: err}
				return nil
			}
			defer np.Release(c, client)

			art, ferr := client.Article(c, msgID)
			results[idx] = BatchResult{ID: msgID, Article: art, Err: ferr}
			return nil
		})
	}

	_ = wp.Wait()
	return results
}
