package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewCommentValidation(t *testing.T) {
	if _, err := NewComment("post-1", "user-1", "", "   "); !errors.Is(err, ErrEmptyContent) {
		t.Errorf("Expected ErrEmptyContent for blank content, got %v", err)
	}

	if _, err := NewComment("", "user-1", "", "hello"); !errors.Is(err, ErrMissingID) {
		t.Errorf("Expected ErrMissingID for empty post id, got %v", err)
	}

	c, err := NewComment("post-1", "user-1", "", "  hello  ")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if c.ID == "" {
		t.Error("Expected generated id")
	}
	if c.Content != "hello" {
		t.Errorf("Expected trimmed content, got %q", c.Content)
	}
	if !c.IsTopLevel() {
		t.Error("Comment without parent should be top-level")
	}

	reply, err := NewComment("post-1", "user-2", c.ID, "hi")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if reply.IsTopLevel() {
		t.Error("Comment with parent should not be top-level")
	}
}

func flatComment(id, parentID string, createdAt time.Time) *Comment {
	return &Comment{
		ID:        id,
		PostID:    "post-1",
		AuthorID:  "user-" + id,
		ParentID:  parentID,
		Content:   "c-" + id,
		CreatedAt: createdAt,
	}
}

func TestBuildCommentForestOrdering(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := []*Comment{
		flatComment("a", "", base),
		flatComment("b", "", base.Add(2*time.Minute)),
		flatComment("c", "", base.Add(1*time.Minute)),
	}

	roots := BuildCommentForest(rows)
	if len(roots) != 3 {
		t.Fatalf("Expected 3 roots, got %d", len(roots))
	}
	// Racines du plus récent au plus ancien
	if roots[0].ID != "b" || roots[1].ID != "c" || roots[2].ID != "a" {
		t.Errorf("Expected order b,c,a got %s,%s,%s", roots[0].ID, roots[1].ID, roots[2].ID)
	}
}

func TestBuildCommentForestDeepNesting(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// a <- b <- c <- d : chaîne de profondeur 4
	rows := []*Comment{
		flatComment("d", "c", base.Add(3*time.Minute)),
		flatComment("b", "a", base.Add(1*time.Minute)),
		flatComment("a", "", base),
		flatComment("c", "b", base.Add(2*time.Minute)),
	}

	roots := BuildCommentForest(rows)
	if len(roots) != 1 {
		t.Fatalf("Expected single root, got %d", len(roots))
	}

	node := roots[0]
	for _, want := range []string{"b", "c", "d"} {
		if len(node.Replies) != 1 {
			t.Fatalf("Expected one reply under %s, got %d", node.ID, len(node.Replies))
		}
		node = node.Replies[0]
		if node.ID != want {
			t.Fatalf("Expected %s in chain, got %s", want, node.ID)
		}
	}
	if len(node.Replies) != 0 {
		t.Errorf("Leaf should have no replies, got %d", len(node.Replies))
	}
}

func TestBuildCommentForestRepliesChronological(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := []*Comment{
		flatComment("root", "", base),
		flatComment("r2", "root", base.Add(2*time.Minute)),
		flatComment("r1", "root", base.Add(1*time.Minute)),
		flatComment("r3", "root", base.Add(3*time.Minute)),
	}

	roots := BuildCommentForest(rows)
	if len(roots) != 1 {
		t.Fatalf("Expected single root, got %d", len(roots))
	}

	replies := roots[0].Replies
	if len(replies) != 3 {
		t.Fatalf("Expected 3 replies, got %d", len(replies))
	}
	// Réponses du plus ancien au plus récent (fil de discussion)
	if replies[0].ID != "r1" || replies[1].ID != "r2" || replies[2].ID != "r3" {
		t.Errorf("Expected r1,r2,r3 got %s,%s,%s", replies[0].ID, replies[1].ID, replies[2].ID)
	}
}

func TestBuildCommentForestOrphanBecomesRoot(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	// Sous-arbre chargé seul : la racine du lot a un parent hors du lot
	rows := []*Comment{
		flatComment("x", "missing-parent", base),
		flatComment("y", "x", base.Add(time.Minute)),
	}

	roots := BuildCommentForest(rows)
	if len(roots) != 1 {
		t.Fatalf("Expected orphan promoted to root, got %d roots", len(roots))
	}
	if roots[0].ID != "x" || len(roots[0].Replies) != 1 {
		t.Errorf("Expected x with one reply, got %s with %d", roots[0].ID, len(roots[0].Replies))
	}
}

func TestBuildCommentForestNoDuplicates(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	rows := []*Comment{
		flatComment("root", "", base),
	}
	for i := 0; i < 20; i++ {
		rows = append(rows, flatComment(string(rune('a'+i)), "root", base.Add(time.Duration(i)*time.Second)))
	}

	roots := BuildCommentForest(rows)
	seen := make(map[string]bool)
	for _, r := range roots[0].Replies {
		if seen[r.ID] {
			t.Fatalf("Duplicate reply id %s", r.ID)
		}
		seen[r.ID] = true
	}
	if len(seen) != 20 {
		t.Errorf("Expected 20 unique replies, got %d", len(seen))
	}
}
