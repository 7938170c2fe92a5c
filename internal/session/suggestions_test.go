package session

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/ironsheep/annotate-mcp/internal/annotation"
)

func TestAcceptRegistersClass(t *testing.T) {
	s := newCellSession(t)
	box := annotation.BBox{X: 10, Y: 20, Width: 40, Height: 30}
	queued, err := s.Suggest([]annotation.Suggestion{
		annotation.NewBoxSuggestion(box, "truck", 0.92, annotation.SourceExternal),
	})
	if err != nil {
		t.Fatalf("Suggest() error = %v", err)
	}
	if s.Store().Len() != 0 {
		t.Fatal("suggestions must not enter the store before accept")
	}

	cs, err := s.Accept([]string{queued[0].ID})
	if err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	id, ok := s.Classes().Lookup("truck")
	if !ok || id != 4 {
		t.Fatalf("truck id = %d, %v, want 4 (after cell=3)", id, ok)
	}
	got := s.Store().Get("truck")
	if len(got) != 1 || got[0].BBox != box || got[0].CategoryID != id {
		t.Fatalf("stored = %+v", got)
	}
	if len(cs.Inserted) != 1 || cs.Inserted[0].Class != "truck" {
		t.Errorf("ChangeSet = %+v", cs)
	}
	data, _ := json.Marshal(s.Store())
	if strings.Contains(string(data), "score") || strings.Contains(string(data), "0.92") {
		t.Errorf("stored record keeps transient fields: %s", data)
	}
	if len(s.Suggestions()) != 0 {
		t.Error("accepted suggestion should leave the pending list")
	}
}

func TestAcceptAllKeepsOrder(t *testing.T) {
	s := newCellSession(t)
	s.Suggest([]annotation.Suggestion{
		annotation.NewPolygonSuggestion(bar(0, 0, 10, 10), "cell", 0.5, annotation.SourceSegment),
		annotation.NewBoxSuggestion(annotation.BBox{Width: 3, Height: 3}, "cell", 0.4, annotation.SourceShapes),
	})
	cs, err := s.Accept(nil)
	if err != nil {
		t.Fatal(err)
	}
	list := s.Store().Get("cell")
	if len(list) != 2 || list[0].Kind != annotation.Polygon || list[1].Kind != annotation.Rectangle {
		t.Errorf("cell list = %+v", list)
	}
	if len(cs.Inserted) != 2 {
		t.Errorf("inserted %d, want 2", len(cs.Inserted))
	}
}

func TestAcceptUnknownIDChangesNothing(t *testing.T) {
	s := newCellSession(t)
	queued, _ := s.Suggest([]annotation.Suggestion{
		annotation.NewBoxSuggestion(annotation.BBox{Width: 3, Height: 3}, "cell", 1, annotation.SourceOCR),
	})
	_, err := s.Accept([]string{queued[0].ID, "missing"})
	if !errors.Is(err, ErrUnknownSuggestion) {
		t.Fatalf("Accept() error = %v, want ErrUnknownSuggestion", err)
	}
	if s.Store().Len() != 0 || len(s.Suggestions()) != 1 {
		t.Error("failed accept must not mutate anything")
	}
}

func TestReject(t *testing.T) {
	s := newCellSession(t)
	queued, _ := s.Suggest([]annotation.Suggestion{
		annotation.NewBoxSuggestion(annotation.BBox{Width: 3, Height: 3}, "a", 1, annotation.SourceShapes),
		annotation.NewBoxSuggestion(annotation.BBox{Width: 3, Height: 3}, "b", 1, annotation.SourceShapes),
		annotation.NewBoxSuggestion(annotation.BBox{Width: 3, Height: 3}, "c", 1, annotation.SourceShapes),
	})
	n, err := s.Reject([]string{queued[1].ID})
	if err != nil || n != 1 {
		t.Fatalf("Reject() = %d, %v", n, err)
	}
	rest := s.Suggestions()
	if len(rest) != 2 || rest[0].CategoryName != "a" || rest[1].CategoryName != "c" {
		t.Errorf("remaining = %+v", rest)
	}
	if n, _ := s.Reject(nil); n != 2 {
		t.Errorf("Reject(all) = %d, want 2", n)
	}
	if s.Store().Len() != 0 {
		t.Error("reject must not touch the store")
	}
}

func TestSuggestValidates(t *testing.T) {
	s := newCellSession(t)
	tests := []struct {
		name string
		sg   annotation.Suggestion
		want error
	}{
		{"no geometry", annotation.Suggestion{Kind: annotation.Polygon, CategoryName: "x"}, annotation.ErrInvalidGeometry},
		{"no class", annotation.NewBoxSuggestion(annotation.BBox{Width: 1, Height: 1}, "", 1, "x"), ErrUnknownClass},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Suggest([]annotation.Suggestion{tt.sg}); !errors.Is(err, tt.want) {
				t.Errorf("Suggest() error = %v, want %v", err, tt.want)
			}
		})
	}
	if len(s.Suggestions()) != 0 {
		t.Error("invalid suggestions must not be queued")
	}
}

func TestSuggestAssignsMissingIDs(t *testing.T) {
	s := newCellSession(t)
	queued, err := s.Suggest([]annotation.Suggestion{{
		Kind: annotation.Rectangle, BBox: annotation.BBox{Width: 2, Height: 2}, CategoryName: "cell",
	}})
	if err != nil {
		t.Fatal(err)
	}
	if queued[0].ID == "" || s.Suggestions()[0].ID != queued[0].ID {
		t.Errorf("queued = %+v", queued)
	}
}

func TestSuggestionsSkipEraser(t *testing.T) {
	s := newCellSession(t)
	s.Suggest([]annotation.Suggestion{
		annotation.NewPolygonSuggestion(bar(40, 40, 80, 80), "cell", 1, annotation.SourceSegment),
	})
	s.Erase(bar(40, 40, 80, 80), 20)
	if _, err := s.CommitErase(); err != nil {
		t.Fatal(err)
	}
	pending := s.Suggestions()
	if len(pending) != 1 || len(pending[0].Segmentation) != 4 {
		t.Errorf("pending suggestion changed by eraser: %+v", pending)
	}
}
