// Command uicoredemo lays out a small styled document, renders one
// frame through a counting backend, and prints pipeline statistics:
// display items, picture-cache slices and tiles, render passes, and a
// hit test at the cursor position.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/uicore"
	"github.com/gogpu/uicore/display"
	"github.com/gogpu/uicore/document"
	"github.com/gogpu/uicore/dom"
	"github.com/gogpu/uicore/fonts"
	"github.com/gogpu/uicore/frame"
	"github.com/gogpu/uicore/idtree"
	"github.com/gogpu/uicore/locale"
	"github.com/gogpu/uicore/style"
	"github.com/gogpu/uicore/text"
)

func main() {
	var (
		width   = flag.Int("width", 800, "viewport width")
		height  = flag.Int("height", 600, "viewport height")
		rows    = flag.Int("rows", 40, "list rows")
		scroll  = flag.Float64("scroll", 120, "scroll offset applied to the list")
		hitX    = flag.Float64("hx", 40, "hit-test x")
		hitY    = flag.Float64("hy", 80, "hit-test y")
		pack    = flag.String("pack", "", "fluent language pack (.zip)")
		lang    = flag.String("lang", "en-US", "UI locale")
		verbose = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	if *verbose {
		uicore.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	loc := locale.NewLocalizer("en-US")
	if err := loc.AddResource("en-US", defaultMessages); err != nil {
		log.Fatal(err)
	}
	if *pack != "" {
		data, err := os.ReadFile(*pack)
		if err != nil {
			log.Fatal(err)
		}
		res, err := loc.LoadZip(data)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("language pack: %d files loaded, %d failed\n", res.FilesLoaded, res.FilesFailed)
	}

	mgr := fonts.NewManager(nil)
	if err := mgr.EnableSystemFonts(""); err != nil {
		log.Fatalf("system fonts: %v", err)
	}

	backend := &countingBackend{}
	doc := document.Open(document.Options{
		Pipeline: 1,
		Provider: text.NewFontSystem(mgr),
		Viewport: uicore.Size{Width: float64(*width), Height: float64(*height)},
		Backend:  backend,
	})
	defer doc.Close()

	root, list := buildDemoDOM(loc, *lang, *rows)
	tx := document.NewTransaction().
		SetRoot(root).
		Scroll(list, uicore.Pt(0, *scroll)).
		GenerateFrame(0)
	rendered := make(chan document.Checkpoint, 1)
	tx.Notify(document.NewNotification(document.FrameRendered, func(c document.Checkpoint) {
		rendered <- c
	}))
	if err := doc.Submit(tx); err != nil {
		log.Fatal(err)
	}
	select {
	case c := <-rendered:
		if c != document.FrameRendered {
			log.Fatalf("frame not rendered: %v", c)
		}
	case <-time.After(10 * time.Second):
		log.Fatal("timed out waiting for the frame")
	}

	f := doc.Frame()
	fmt.Printf("frame: %d display items, %d slices, %d tiles, %d passes\n",
		len(f.List.Items), len(f.Slices), len(f.Tiles), len(f.Passes))
	dirty := 0
	for _, t := range f.Tiles {
		if t.State == frame.TileDirty {
			dirty++
		}
	}
	fmt.Printf("tiles: %d dirty, reasons %v\n", dirty, f.Reasons)
	fmt.Printf("backend: %d rects, %d text runs, %d clips\n",
		backend.rects, backend.texts, backend.clips)

	hits, err := doc.HitTest(context.Background(), uicore.Pt(*hitX, *hitY))
	if err != nil {
		log.Fatal(err)
	}
	for _, h := range hits {
		fmt.Printf("hit: %v\n", h.Tag)
	}
}

const defaultMessages = `
title = Pipeline demo
row = Row { $n }
`

// buildDemoDOM returns a header plus a scrollable list of rows, and
// the node id of the scrolling list.
func buildDemoDOM(loc *locale.Localizer, lang string, rows int) (*dom.StyledDom, idtree.NodeId) {
	b := dom.NewBuilder()
	b.Open(dom.StyledNode{Type: dom.NodeDiv, Style: style.Style{
		Background: uicore.RGB(245, 245, 245),
	}})

	b.Open(dom.StyledNode{Type: dom.NodeDiv, Style: style.Style{
		Height:     style.Px(48),
		Background: uicore.RGB(40, 44, 52),
		Padding:    [4]style.Value{style.EdgeLeft: style.Px(12), style.EdgeTop: style.Px(12)},
	}})
	b.Text(loc.Translate(lang, "title", nil), style.Style{
		Color:      uicore.RGB(255, 255, 255),
		FontSizePx: 20,
	})
	b.Close()

	list := b.Open(dom.StyledNode{Type: dom.NodeDiv, Style: style.Style{
		Overflow: style.OverflowScroll,
		Height:   style.Px(480),
	}})
	for i := 0; i < rows; i++ {
		bg := uicore.RGB(255, 255, 255)
		if i%2 == 1 {
			bg = uicore.RGB(235, 238, 241)
		}
		b.Open(dom.StyledNode{
			Type: dom.NodeDiv,
			Style: style.Style{
				Height:     style.Px(28),
				Background: bg,
				Padding:    [4]style.Value{style.EdgeLeft: style.Px(12)},
			},
			HitTag: dom.MakeHitTag(1, idtree.NodeId(i+1)),
		})
		b.Text(loc.Translate(lang, "row", map[string]any{"n": i}), style.Style{
			FontSizePx: 14,
		})
		b.Close()
	}
	b.Close()

	b.Close()
	return b.Build(), list
}

// countingBackend tallies draw ops instead of touching a GPU.
type countingBackend struct {
	rects, borders, texts int
	images, clips, layers int
}

func (c *countingBackend) BeginFrame(uicore.Size, uicore.Color) error { return nil }
func (c *countingBackend) EndFrame() error                            { return nil }

func (c *countingBackend) DrawRects(rects []display.Rect) error {
	c.rects += len(rects)
	return nil
}

func (c *countingBackend) DrawBorders(borders []display.Border) error {
	c.borders += len(borders)
	return nil
}

func (c *countingBackend) DrawText(runs []display.Text) error {
	c.texts += len(runs)
	return nil
}

func (c *countingBackend) DrawImage(display.Image) error                     { c.images++; return nil }
func (c *countingBackend) DrawExternalTexture(display.ExternalTexture) error { c.images++; return nil }
func (c *countingBackend) DrawIFrame(display.IFrame) error                   { c.images++; return nil }
func (c *countingBackend) PushLayer(display.PushStackingContext) error       { c.layers++; return nil }
func (c *countingBackend) PopLayer() error                                   { return nil }
func (c *countingBackend) PushClip(display.PushClip) error                   { c.clips++; return nil }
func (c *countingBackend) PopClip() error                                    { return nil }
