package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groundqa/internal/adapter/generator"
	"groundqa/internal/adapter/memstore"
	"groundqa/internal/domain"
)

// stubRetriever returns fixed chunks and records the last request.
type stubRetriever struct {
	chunks   []domain.Chunk
	docLimit int
	topK     int
	docID    string
}

func (s *stubRetriever) RetrieveChunks(ctx context.Context, question string, docLimit, topK int, explicitDocID string) []domain.Chunk {
	s.docLimit, s.topK, s.docID = docLimit, topK, explicitDocID
	return s.chunks
}

func fastRetry() generator.RetryPolicy {
	return generator.RetryPolicy{
		MaxAttempts:     3,
		RetryableStatus: []int{429, 503},
		BaseDelay:       time.Millisecond,
		MaxDelay:        2 * time.Millisecond,
	}
}

func newAsk(t *testing.T, r *stubRetriever, gen *generator.MockGenerator) *AskUseCase {
	t.Helper()
	u, err := NewAskUseCase(r, gen, 5, 10, WithLogger(quietLogger()), WithRetryPolicy(fastRetry()))
	require.NoError(t, err)
	return u
}

func TestNewAskUseCase_Validation(t *testing.T) {
	_, err := NewAskUseCase(nil, generator.NewMockGenerator(), 5, 10)
	assert.ErrorIs(t, err, ErrRetrieverRequired)

	_, err = NewAskUseCase(&stubRetriever{}, nil, 5, 10)
	assert.ErrorIs(t, err, ErrGeneratorRequired)
}

func TestAsk_Answered(t *testing.T) {
	r := &stubRetriever{chunks: retrievedChunks()}
	gen := generator.NewMockGenerator()
	u := newAsk(t, r, gen)

	answer := u.Ask(context.Background(), AskRequest{Question: "alpha?"})
	assert.Equal(t, StatusAnswered, answer.Status)
	assert.Equal(t, "alpha beta gamma", answer.Text)
	assert.Equal(t, []string{"d1_chunk_0"}, chunkIDs(answer.Citations))
	require.NotNil(t, answer.Confidence)
	assert.Equal(t, 1.0, *answer.Confidence)
	assert.Len(t, answer.Chunks, 3)
	assert.Equal(t, "mock", answer.Model)

	assert.Equal(t, 5, r.topK)
	assert.Equal(t, 10, r.docLimit)
}

func TestAsk_PassesRequestParameters(t *testing.T) {
	r := &stubRetriever{chunks: retrievedChunks()}
	u := newAsk(t, r, generator.NewMockGenerator())

	u.Ask(context.Background(), AskRequest{Question: "q", TopK: 2, DocLimit: 3, DocID: "d1"})
	assert.Equal(t, 2, r.topK)
	assert.Equal(t, 3, r.docLimit)
	assert.Equal(t, "d1", r.docID)
}

func TestAsk_InsufficientEvidence(t *testing.T) {
	gen := generator.NewMockGenerator()
	u := newAsk(t, &stubRetriever{}, gen)

	answer := u.Ask(context.Background(), AskRequest{Question: "anything"})
	assert.Equal(t, StatusInsufficientEvidence, answer.Status)
	assert.Equal(t, InsufficientEvidenceText, answer.Text)
	assert.NotNil(t, answer.Citations)
	assert.Empty(t, answer.Citations)
	assert.Equal(t, 0, gen.Calls())
}

func TestAsk_HallucinatedCitationsFallBack(t *testing.T) {
	gen := &generator.MockGenerator{Response: `{"answer":"made up","citations":[{"doc_id":"fake_doc","chunk_id":"fake_chunk"}]}`}
	u := newAsk(t, &stubRetriever{chunks: retrievedChunks()}, gen)

	answer := u.Ask(context.Background(), AskRequest{Question: "q"})
	assert.Equal(t, StatusAnswered, answer.Status)
	assert.Equal(t, "made up", answer.Text)
	assert.Equal(t, []string{"d1_chunk_0", "d2_chunk_1", "d1_chunk_1"}, chunkIDs(answer.Citations))
}

func TestAsk_UnparsedOutput(t *testing.T) {
	gen := &generator.MockGenerator{Response: "  Alpha comes first.  "}
	u := newAsk(t, &stubRetriever{chunks: retrievedChunks()}, gen)

	answer := u.Ask(context.Background(), AskRequest{Question: "q"})
	assert.Equal(t, StatusUnparsed, answer.Status)
	assert.Equal(t, "Alpha comes first.", answer.Text)
	assert.Nil(t, answer.Confidence)
	assert.Len(t, answer.Citations, DefaultMaxCitations)
}

func TestAsk_RetriesTransientFailures(t *testing.T) {
	gen := &generator.MockGenerator{Err: &generator.StatusError{Code: 503}, Failures: 2}
	u := newAsk(t, &stubRetriever{chunks: retrievedChunks()}, gen)

	answer := u.Ask(context.Background(), AskRequest{Question: "q"})
	assert.Equal(t, StatusAnswered, answer.Status)
	assert.Equal(t, 3, gen.Calls())
}

func TestAsk_GeneratorFailed(t *testing.T) {
	gen := &generator.MockGenerator{Err: errors.New("status code: 401")}
	u := newAsk(t, &stubRetriever{chunks: retrievedChunks()}, gen)

	answer := u.Ask(context.Background(), AskRequest{Question: "q"})
	assert.Equal(t, StatusGeneratorFailed, answer.Status)
	assert.Equal(t, GeneratorFailedText, answer.Text)
	assert.Equal(t, 1, gen.Calls())
	assert.Equal(t, []string{"d1_chunk_0", "d2_chunk_1", "d1_chunk_1"}, chunkIDs(answer.Citations))
}

func TestAsk_EndToEndWithRetriever(t *testing.T) {
	st := memstore.NewMemoryStore()
	putDoc(t, st, "a", "a.txt", "The alpha protocol uses beta frames.", 0)
	putDoc(t, st, "b", "b.txt", "Nothing relevant here.", 1)

	ret := newRetriever(t, st, nil)
	u, err := NewAskUseCase(ret, generator.NewMockGenerator(), 5, 10, WithLogger(quietLogger()), WithMaxCitations(2))
	require.NoError(t, err)

	answer := u.Ask(context.Background(), AskRequest{Question: "How does the alpha protocol use beta frames?"})
	assert.Equal(t, StatusAnswered, answer.Status)
	require.Len(t, answer.Citations, 1)
	assert.Equal(t, "a", answer.Citations[0].DocID)
	assert.Equal(t, "a_chunk_0", answer.Citations[0].ChunkID)
	assert.Equal(t, "the alpha protocol uses beta frames.", answer.Citations[0].Quote)
}
