package boxtree

import (
	"math/rand"
	"testing"

	"github.com/gogpu/uicore/dom"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/style"
)

func blockNode() dom.StyledNode {
	return dom.StyledNode{Type: dom.NodeDiv, Style: style.Style{Display: style.DisplayBlock}}
}

func inlineNode() dom.StyledNode {
	return dom.StyledNode{Type: dom.NodeDiv, Style: style.Style{Display: style.DisplayInline}}
}

// TestMixedContentWrapping is the canonical rewrite: a parent with
// children [inline, inline, block, inline] becomes
// [anon(inline, inline), block, anon(inline)].
func TestMixedContentWrapping(t *testing.T) {
	b := dom.NewBuilder()
	b.Open(blockNode())
	b.Leaf(inlineNode())
	b.Leaf(inlineNode())
	blockChild := b.Leaf(blockNode())
	b.Leaf(inlineNode())
	b.Close()
	d := b.Build()

	tree := Build(d)
	if err := tree.Hierarchy.CheckConsistency(); err != nil {
		t.Fatalf("CheckConsistency: %v", err)
	}

	root := idtree.Root
	var kids []idtree.NodeId
	for c := range tree.Hierarchy.Children(root) {
		kids = append(kids, c)
	}
	if len(kids) != 3 {
		t.Fatalf("root has %d children, want 3", len(kids))
	}

	if tree.Box(kids[0]).Kind != KindAnonBlock {
		t.Errorf("child 0: kind = %v, want anon block", tree.Box(kids[0]).Kind)
	}
	if got := tree.Hierarchy.ChildCount(kids[0]); got != 2 {
		t.Errorf("first anon block has %d children, want 2", got)
	}

	if tree.Box(kids[1]).Kind != KindStyled || tree.Box(kids[1]).Source != blockChild {
		t.Errorf("child 1: got %+v, want styled box of %v", tree.Box(kids[1]), blockChild)
	}

	if tree.Box(kids[2]).Kind != KindAnonBlock {
		t.Errorf("child 2: kind = %v, want anon block", tree.Box(kids[2]).Kind)
	}
	if got := tree.Hierarchy.ChildCount(kids[2]); got != 1 {
		t.Errorf("second anon block has %d children, want 1", got)
	}
}

func TestUniformChildrenUnchanged(t *testing.T) {
	tests := []struct {
		name string
		kid  func() dom.StyledNode
	}{
		{"all block", blockNode},
		{"all inline", inlineNode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := dom.NewBuilder()
			b.Open(blockNode())
			for i := 0; i < 4; i++ {
				b.Leaf(tt.kid())
			}
			b.Close()
			tree := Build(b.Build())

			if got := tree.Hierarchy.ChildCount(idtree.Root); got != 4 {
				t.Fatalf("root has %d children, want 4", got)
			}
			for c := range tree.Hierarchy.Children(idtree.Root) {
				if tree.Box(c).Kind != KindStyled {
					t.Errorf("child %v: kind = %v, want styled", c, tree.Box(c).Kind)
				}
			}
		})
	}
}

func TestTextForcesInline(t *testing.T) {
	// A text node with display:block in its style is still inline
	// content; mixed with a real block it must be wrapped.
	b := dom.NewBuilder()
	b.Open(blockNode())
	b.Text("hello", style.Style{Display: style.DisplayBlock})
	b.Leaf(blockNode())
	b.Close()
	tree := Build(b.Build())

	var kids []idtree.NodeId
	for c := range tree.Hierarchy.Children(idtree.Root) {
		kids = append(kids, c)
	}
	if len(kids) != 2 {
		t.Fatalf("root has %d children, want 2", len(kids))
	}
	if tree.Box(kids[0]).Kind != KindAnonBlock {
		t.Errorf("text run not wrapped: %+v", tree.Box(kids[0]))
	}
}

func TestWhitespaceOnlyRunMarked(t *testing.T) {
	b := dom.NewBuilder()
	b.Open(blockNode())
	b.Leaf(blockNode())
	b.Text("  \n\t", style.Style{})
	b.Leaf(blockNode())
	b.Close()
	tree := Build(b.Build())

	var anon *Box
	for c := range tree.Hierarchy.Children(idtree.Root) {
		if tree.Box(c).Kind == KindAnonBlock {
			anon = tree.Box(c)
		}
	}
	if anon == nil {
		t.Fatal("whitespace run not wrapped")
	}
	if !anon.WhitespaceOnly {
		t.Error("whitespace-only wrapper not marked")
	}
}

func TestDisplayNoneDropped(t *testing.T) {
	b := dom.NewBuilder()
	b.Open(blockNode())
	hidden := blockNode()
	hidden.Style.Display = style.DisplayNone
	b.Open(hidden)
	b.Leaf(inlineNode()) // must not appear either
	b.Close()
	b.Leaf(blockNode())
	b.Close()
	tree := Build(b.Build())

	if got := tree.Hierarchy.ChildCount(idtree.Root); got != 1 {
		t.Fatalf("root has %d children, want 1", got)
	}
	if len(tree.Boxes) != 2 {
		t.Fatalf("tree has %d boxes, want 2", len(tree.Boxes))
	}
}

// TestRandomTreesUniformInvariant builds random mixed trees and
// asserts the output invariant: every parent's children are all
// inline-level or all block-level.
func TestRandomTreesUniformInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	for trial := 0; trial < 100; trial++ {
		b := dom.NewBuilder()
		b.Open(blockNode())
		var build func(depth int)
		build = func(depth int) {
			n := rng.Intn(5)
			for i := 0; i < n; i++ {
				switch rng.Intn(3) {
				case 0:
					b.Leaf(inlineNode())
				case 1:
					b.Leaf(blockNode())
				default:
					if depth < 3 {
						b.Open(blockNode())
						build(depth + 1)
						b.Close()
					} else {
						b.Leaf(blockNode())
					}
				}
			}
		}
		build(0)
		b.Close()
		tree := Build(b.Build())

		if err := tree.Hierarchy.CheckConsistency(); err != nil {
			t.Fatalf("trial %d: %v", trial, err)
		}
		for i := range tree.Boxes {
			id := idtree.FromIndex(i)
			inline, block := 0, 0
			for c := range tree.Hierarchy.Children(id) {
				if boxIsInlineLevel(tree, c) {
					inline++
				} else {
					block++
				}
			}
			if inline > 0 && block > 0 {
				t.Fatalf("trial %d: box %v has mixed children (%d inline, %d block)",
					trial, id, inline, block)
			}
		}
		// Every visible source node maps to exactly one styled box.
		seen := map[idtree.NodeId]int{}
		for i := range tree.Boxes {
			if tree.Boxes[i].Kind == KindStyled {
				seen[tree.Boxes[i].Source]++
			}
		}
		for src, n := range seen {
			if n != 1 {
				t.Fatalf("trial %d: source %v generated %d boxes", trial, src, n)
			}
		}
	}
}

// boxIsInlineLevel classifies an output box the way layout will:
// anonymous wrappers are block-level, styled boxes follow their
// source classification.
func boxIsInlineLevel(tree *Tree, id idtree.NodeId) bool {
	b := tree.Box(id)
	if b.Kind == KindAnonBlock {
		return false
	}
	return b.Inline
}
