package nntp

import "context"

// PipelineResult pairs one pipelined ARTICLE-family fetch with its error,
// so a partial batch (aborted at a hard error) can still report which
// requests already succeeded (§4.3).
type PipelineResult struct {
	ID      string
	Article Article
	Err     error
}

// pipelineCmd selects which article-fetch command a pipelined batch issues.
type pipelineCmd func(id string) string

// ArticlePipeline pipelines ARTICLE commands for ids, sending up to depth
// command lines back-to-back before reading the first response (depth is
// clamped to at least 1). Responses are read in strict request order. If
// abortOnError is true, the first error stops the batch: ids beyond the
// current window of depth commands are not sent. After an error response
// the responses to the window's remaining, already-sent commands are read
// and discarded; after a read error they are not read. Otherwise every id
// is attempted and its error recorded independently. Pipelining must never be mixed with
// commands that mutate connection state (GROUP, AUTHINFO, COMPRESS, MODE,
// QUIT) — callers are responsible for not interleaving those calls with
// an in-flight pipeline.
func (c *Client) ArticlePipeline(ctx context.Context, ids []string, depth int, abortOnError bool) []PipelineResult {
	return c.pipeline(ctx, ids, depth, abortOnError, cmdArticle, parseArticle)
}

// HeadPipeline pipelines HEAD commands the same way ArticlePipeline does.
func (c *Client) HeadPipeline(ctx context.Context, ids []string, depth int, abortOnError bool) []PipelineResult {
	return c.pipeline(ctx, ids, depth, abortOnError, cmdHead, parseHeaders)
}

func (c *Client) pipeline(
	ctx context.Context,
	ids []string,
	depth int,
	abortOnError bool,
	build pipelineCmd,
	parse func([]string) Article,
) []PipelineResult {
	if depth < 1 {
		depth = 1
	}

	results := make([]PipelineResult, 0, len(ids))
	i := 0
	for i < len(ids) {
		batch := ids[i:min(i+depth, len(ids))]

		for _, id := range batch {
			if err := c.conn.WriteCommand(build(id)); err != nil {
				c.markBroken()
				results = append(results, PipelineResult{ID: id, Err: err})
				return results
			}
		}

		aborted := false
		for j, id := range batch {
			resp, err := c.readResponse(ctx)
			if err != nil {
				results = append(results, PipelineResult{ID: id, Err: err})
				if abortOnError {
					aborted = true
					break
				}
				continue
			}
			if !resp.IsSuccess() {
				results = append(results, PipelineResult{ID: id, Err: protocolError(resp)})
				if abortOnError {
					// The rest of this window is already on the wire; read
					// its responses so the next command sees its own reply.
					for k := j + 1; k < len(batch); k++ {
						if _, derr := c.readResponse(ctx); derr != nil {
							break
						}
					}
					aborted = true
					break
				}
				continue
			}
			results = append(results, PipelineResult{ID: id, Article: parse(resp.Lines)})
		}

		if aborted {
			return results
		}
		i += len(batch)
	}
	return results
}
