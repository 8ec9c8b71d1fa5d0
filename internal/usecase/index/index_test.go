package index_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/johnquangdev/lecture-assistant/internal/domain/entities"
	"github.com/johnquangdev/lecture-assistant/internal/infrastructure/vectordb"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/chunking"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/embedding"
	"github.com/johnquangdev/lecture-assistant/internal/usecase/index"
)

func newIndex(t *testing.T) (*index.Index, *vectordb.MemoryStore) {
	t.Helper()
	store := vectordb.NewMemoryStore()
	emb := embedding.NewEmbedder(func() (embedding.Model, error) {
		return embedding.NewHashModel(256), nil
	}, true, nil)
	ch, err := chunking.New(8, 2)
	if err != nil {
		t.Fatal(err)
	}
	return index.NewIndex(store, emb, ch, 4, nil), store
}

func lectureSegments() []entities.Segment {
	return []entities.Segment{
		{Start: 0, End: 5, Text: "photosynthesis converts light into chemical energy"},
		{Start: 5, End: 10, Text: "chlorophyll absorbs light in plant leaves"},
		{Start: 10, End: 15, Text: "the french revolution began in 1789"},
		{Start: 15, End: 20, Text: "the bastille was stormed by parisians"},
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 1},
		{1, 0.5},
		{2, 0},
		{3, 0},
		{0.3333, 0.833},
		{-0.1, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.distance), func(t *testing.T) {
			if got := index.Score(tt.distance); got != tt.want {
				t.Fatalf("Score(%v) = %v, want %v", tt.distance, got, tt.want)
			}
		})
	}
}

func TestIndexLectureAndSearch(t *testing.T) {
	ctx := context.Background()
	x, store := newIndex(t)

	n, err := x.IndexLecture(ctx, "lec-1", lectureSegments())
	if err != nil {
		t.Fatal(err)
	}
	if n == 0 {
		t.Fatalf("expected chunks to be indexed")
	}
	if count, _ := x.ChunkCount(ctx, "lec-1"); count != n {
		t.Fatalf("ChunkCount = %d, want %d", count, n)
	}
	if ok, _ := store.HasCollection(ctx, "lecture_lec_1"); !ok {
		t.Fatalf("collection name should replace dashes")
	}

	hits, err := x.Search(ctx, "lec-1", "photosynthesis light energy", 5, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Fatalf("expected hits")
	}
	if hits[0].StartTime != 0 {
		t.Errorf("best hit should come from the biology part, got %+v", hits[0])
	}
	for i := 1; i < len(hits); i++ {
		if hits[i].Score > hits[i-1].Score {
			t.Fatalf("hits not sorted by score: %+v", hits)
		}
	}
	for _, h := range hits {
		if h.Score < 0 || h.Score > 1 {
			t.Fatalf("score out of range: %v", h.Score)
		}
	}
}

func TestSearchMinScoreFilters(t *testing.T) {
	ctx := context.Background()
	x, _ := newIndex(t)
	if _, err := x.IndexLecture(ctx, "lec", lectureSegments()); err != nil {
		t.Fatal(err)
	}
	hits, err := x.Search(ctx, "lec", "photosynthesis", 5, 1.01)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected all hits filtered, got %d", len(hits))
	}
}

func TestSearchUnrelatedQueryBelowThreshold(t *testing.T) {
	ctx := context.Background()
	x, _ := newIndex(t)
	history := []entities.Segment{
		{Start: 0, End: 5, Text: "the french revolution began in 1789"},
		{Start: 5, End: 10, Text: "the bastille was stormed by parisians"},
	}
	if _, err := x.IndexLecture(ctx, "lec", history); err != nil {
		t.Fatal(err)
	}

	hits, err := x.Search(ctx, "lec", "photosynthesis chlorophyll", 5, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Fatalf("unrelated text passed min score: %+v", hits)
	}

	hits, err = x.Search(ctx, "lec", "bastille revolution", 5, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) == 0 {
		t.Fatalf("related text was filtered out")
	}
}

func TestSearchUnknownLecture(t *testing.T) {
	x, _ := newIndex(t)
	hits, err := x.Search(context.Background(), "nope", "anything", 5, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	if hits == nil || len(hits) != 0 {
		t.Fatalf("expected empty non-nil result, got %#v", hits)
	}
	if n, err := x.ChunkCount(context.Background(), "nope"); err != nil || n != 0 {
		t.Fatalf("ChunkCount = %d, %v", n, err)
	}
}

func TestReindexReplacesChunks(t *testing.T) {
	ctx := context.Background()
	x, _ := newIndex(t)

	if _, err := x.IndexLecture(ctx, "lec", lectureSegments()); err != nil {
		t.Fatal(err)
	}
	short := []entities.Segment{{Start: 0, End: 2, Text: "tiny lecture"}}
	n, err := x.IndexLecture(ctx, "lec", short)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("reindex stored %d chunks, want 1", n)
	}
	if count, _ := x.ChunkCount(ctx, "lec"); count != 1 {
		t.Fatalf("stale chunks survived reindex: %d", count)
	}
}

func TestIndexEmptyTranscriptDropsCollection(t *testing.T) {
	ctx := context.Background()
	x, store := newIndex(t)
	if _, err := x.IndexLecture(ctx, "lec", lectureSegments()); err != nil {
		t.Fatal(err)
	}
	n, err := x.IndexLecture(ctx, "lec", []entities.Segment{{Text: "   "}})
	if err != nil || n != 0 {
		t.Fatalf("IndexLecture = %d, %v", n, err)
	}
	if ok, _ := store.HasCollection(ctx, "lecture_lec"); ok {
		t.Fatalf("old collection should be dropped")
	}
}

func TestDeleteLecture(t *testing.T) {
	ctx := context.Background()
	x, _ := newIndex(t)
	if _, err := x.IndexLecture(ctx, "lec", lectureSegments()); err != nil {
		t.Fatal(err)
	}
	if ok, err := x.DeleteLecture(ctx, "lec"); err != nil || !ok {
		t.Fatalf("DeleteLecture = %v, %v", ok, err)
	}
	if ok, _ := x.DeleteLecture(ctx, "lec"); ok {
		t.Fatalf("second delete should report false")
	}
}

func TestSearchAllLectures(t *testing.T) {
	ctx := context.Background()
	x, _ := newIndex(t)

	if _, err := x.IndexLecture(ctx, "bio", lectureSegments()[:2]); err != nil {
		t.Fatal(err)
	}
	if _, err := x.IndexLecture(ctx, "hist", lectureSegments()[2:]); err != nil {
		t.Fatal(err)
	}

	results, err := x.SearchAllLectures(ctx, []string{"bio", "missing", "hist"}, "chlorophyll absorbs light", 3, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) == 0 || results[0].LectureID != "bio" {
		t.Fatalf("expected bio first, got %+v", results)
	}
	for _, r := range results {
		if r.LectureID == "missing" {
			t.Fatalf("lecture without collection should be omitted")
		}
		if len(r.Chunks) == 0 || len(r.Chunks) > 3 {
			t.Fatalf("unexpected chunk count for %s: %d", r.LectureID, len(r.Chunks))
		}
	}
}

func TestSearchAllLecturesShortCircuits(t *testing.T) {
	ctx := context.Background()
	x, _ := newIndex(t)

	for _, tc := range []struct {
		ids   []string
		query string
	}{
		{nil, "query"},
		{[]string{"a"}, "   "},
	} {
		res, err := x.SearchAllLectures(ctx, tc.ids, tc.query, 3, 0.25)
		if err != nil || res == nil || len(res) != 0 {
			t.Fatalf("SearchAllLectures(%v, %q) = %v, %v", tc.ids, tc.query, res, err)
		}
	}
}

type failingModel struct{}

func (failingModel) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("model offline")
}
func (failingModel) Dimension() int { return 4 }

func TestIndexEmbeddingFailureKeepsOldCollection(t *testing.T) {
	ctx := context.Background()
	store := vectordb.NewMemoryStore()
	good := embedding.NewEmbedder(func() (embedding.Model, error) { return embedding.NewHashModel(32), nil }, true, nil)
	if _, err := index.NewIndex(store, good, nil, 0, nil).IndexLecture(ctx, "lec", lectureSegments()); err != nil {
		t.Fatal(err)
	}

	bad := embedding.NewEmbedder(func() (embedding.Model, error) { return failingModel{}, nil }, true, nil)
	if _, err := index.NewIndex(store, bad, nil, 0, nil).IndexLecture(ctx, "lec", lectureSegments()); err == nil {
		t.Fatalf("expected embedding error")
	}
	if ok, _ := store.HasCollection(ctx, "lecture_lec"); !ok {
		t.Fatalf("failed reindex should not drop the existing collection")
	}
}

func TestConcurrentSearchDuringReindex(t *testing.T) {
	ctx := context.Background()
	x, _ := newIndex(t)
	if _, err := x.IndexLecture(ctx, "lec", lectureSegments()); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, err := x.IndexLecture(ctx, "lec", lectureSegments()); err != nil {
				t.Errorf("reindex: %v", err)
			}
		}()
		go func() {
			defer wg.Done()
			if _, err := x.Search(ctx, "lec", "bastille", 5, 0); err != nil {
				t.Errorf("search: %v", err)
			}
		}()
	}
	wg.Wait()
}
