package vectorDB

import "context"

// AnswerCache stores generated answers by question embedding. corpus
// identifies the indexed document set so answers do not outlive a reindex.
type AnswerCache interface {
	GetCachedAnswer(ctx context.Context, corpus string, queryVector []float32) (string, bool, error)
	SaveToCache(ctx context.Context, corpus string, queryVector []float32, answer string) error
}
