package store

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/peerbench/peerbench/internal/domain"
	"github.com/peerbench/peerbench/internal/ports"
)

func testSubmission(cid, uploader string) domain.Submission {
	return domain.Submission{
		CID:        cid,
		UploaderID: uploader,
		Tier:       domain.TierValidator,
		CreatedAt:  time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Payload: domain.SubmissionPayload{
			Type:        domain.PayloadScores,
			PromptSetID: "set-1",
			Scores: []domain.Score{
				{Scorer: "exact-match", PromptID: "p1", ResponseID: "r1", EntityID: "e1", Value: 1, Valid: true},
			},
		},
	}
}

// submissionStoreSuite runs the SubmissionStore contract against any
// implementation.
func submissionStoreSuite(t *testing.T, open func(t *testing.T) ports.SubmissionStore) {
	t.Run("put and get", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		sub := testSubmission("sha256:aaa", "validator-1")
		require.NoError(t, s.Put(ctx, sub))

		got, found, err := s.Get(ctx, sub.CID)
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, sub.CID, got.CID)
		assert.Equal(t, sub.UploaderID, got.UploaderID)
		assert.Len(t, got.Payload.Scores, 1)

		has, err := s.Has(ctx, sub.CID)
		require.NoError(t, err)
		assert.True(t, has)
	})

	t.Run("get missing", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		_, found, err := s.Get(ctx, "sha256:missing")
		require.NoError(t, err)
		assert.False(t, found)

		has, err := s.Has(ctx, "sha256:missing")
		require.NoError(t, err)
		assert.False(t, has)
	})

	t.Run("rewriting a cid is a no-op", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		first := testSubmission("sha256:bbb", "validator-1")
		require.NoError(t, s.Put(ctx, first))

		overwrite := testSubmission("sha256:bbb", "validator-2")
		require.NoError(t, s.Put(ctx, overwrite))

		got, found, err := s.Get(ctx, "sha256:bbb")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "validator-1", got.UploaderID, "first write wins")
	})

	t.Run("snapshot ordered by cid", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		cids := []string{"sha256:ccc", "sha256:aaa", "sha256:bbb"}
		for i, cid := range cids {
			require.NoError(t, s.Put(ctx, testSubmission(cid, fmt.Sprintf("uploader-%d", i))))
		}

		snapshot, err := s.Snapshot(ctx)
		require.NoError(t, err)
		require.Len(t, snapshot, 3)

		assert.True(t, sort.SliceIsSorted(snapshot, func(i, j int) bool {
			return snapshot[i].CID < snapshot[j].CID
		}))
	})

	t.Run("series owner is first writer", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		first := testSubmission("sha256:ddd", "validator-1")
		first.MergeID = "series-1"
		first.ChunkSeq = 0
		require.NoError(t, s.Put(ctx, first))

		second := testSubmission("sha256:eee", "validator-2")
		second.MergeID = "series-1"
		second.ChunkSeq = 1
		require.NoError(t, s.Put(ctx, second))

		owner, found, err := s.SeriesOwner(ctx, "series-1")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "validator-1", owner)

		_, found, err = s.SeriesOwner(ctx, "series-unknown")
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestMemoryStore(t *testing.T) {
	submissionStoreSuite(t, func(t *testing.T) ports.SubmissionStore {
		return NewMemoryStore()
	})
}

func TestBadgerStore(t *testing.T) {
	submissionStoreSuite(t, func(t *testing.T) ports.SubmissionStore {
		s, err := OpenBadgerStore(InMemoryBadgerConfig())
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestFileArtifactStore_RoundTrip(t *testing.T) {
	s, err := NewFileArtifactStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	payload := []byte(`{"type":"scores"}`)
	require.NoError(t, s.WriteSigned(ctx, "batch-1.json", payload, "sha256:abc", "deadbeef"))

	got, cid, sig, err := s.ReadSigned(ctx, "batch-1.json")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
	assert.Equal(t, "sha256:abc", cid)
	assert.Equal(t, "deadbeef", sig)
}

func TestFileArtifactStore_UnsignedArtifact(t *testing.T) {
	s, err := NewFileArtifactStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, s.WriteSigned(ctx, "open.json", []byte("{}"), "sha256:abc", ""))

	_, cid, sig, err := s.ReadSigned(ctx, "open.json")
	require.NoError(t, err)
	assert.Equal(t, "sha256:abc", cid)
	assert.Empty(t, sig, "missing signature side file reads as unsigned")
}

func TestFileArtifactStore_RejectsEscapingNames(t *testing.T) {
	s, err := NewFileArtifactStore(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	for _, name := range []string{"", "../escape", "a/b", `a\b`} {
		assert.Error(t, s.WriteSigned(ctx, name, nil, "", ""), "name %q", name)
		_, _, _, err := s.ReadSigned(ctx, name)
		assert.Error(t, err, "name %q", name)
	}
}

func TestFileArtifactStore_MissingArtifact(t *testing.T) {
	s, err := NewFileArtifactStore(t.TempDir())
	require.NoError(t, err)

	_, _, _, err = s.ReadSigned(context.Background(), "nope.json")
	assert.Error(t, err)
}
