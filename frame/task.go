package frame

import (
	"errors"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/uicore"
)

// ErrCycle reports a render-task graph whose dependencies do not form
// a DAG. The frame is dropped rather than scheduled.
var ErrCycle = errors.New("frame: render task graph has a cycle")

// TaskID identifies a task within one frame's graph. Zero means no
// task.
type TaskID uint32

// TaskKind classifies a render task.
type TaskKind uint8

const (
	// TaskPicture rasterizes one tile's command buffer into the
	// tile's texture region.
	TaskPicture TaskKind = iota
	// TaskTileComposite blends finished tiles into a surface.
	TaskTileComposite
	// TaskBlur applies a separable blur to its input.
	TaskBlur
	// TaskClipMask rasterizes a clip shape into a single-channel
	// mask.
	TaskClipMask
	// TaskResolve copies already-composited pixels into a readable
	// input texture, breaking a read-after-write cycle for
	// sub-graphs.
	TaskResolve
)

var taskKindNames = [...]string{
	TaskPicture:       "Picture",
	TaskTileComposite: "TileComposite",
	TaskBlur:          "Blur",
	TaskClipMask:      "ClipMask",
	TaskResolve:       "Resolve",
}

// String returns the kind name.
func (k TaskKind) String() string {
	if int(k) < len(taskKindNames) {
		return taskKindNames[k]
	}
	return "Unknown"
}

// LocationKind states where a task's output lives.
type LocationKind uint8

const (
	// LocationDynamic outputs are packed into a pass-owned target.
	LocationDynamic LocationKind = iota
	// LocationParent outputs share a region of the parent task's
	// allocation.
	LocationParent
	// LocationStatic outputs go to a pre-existing target (the frame
	// buffer or a persistent tile texture).
	LocationStatic
)

// Task is one node of the frame's render DAG. Deps are the producer
// tasks whose outputs this task samples; every dep executes in an
// earlier pass.
type Task struct {
	Kind     TaskKind
	Size     uicore.Size
	Format   gputypes.TextureFormat
	Location LocationKind
	Parent   TaskID
	Deps     []TaskID

	// Buffer indexes the command buffer a Picture task rasterizes;
	// -1 for other kinds.
	Buffer int

	// BlurRadius is set for Blur tasks.
	BlurRadius float64
}

// Graph accumulates the tasks of one frame. IDs are assigned in
// insertion order starting at 1.
type Graph struct {
	tasks []Task
}

// NewGraph returns an empty graph.
func NewGraph() *Graph { return &Graph{} }

// Len returns the task count.
func (g *Graph) Len() int { return len(g.tasks) }

// Task returns the task with the given id, or nil.
func (g *Graph) Task(id TaskID) *Task {
	if id == 0 || int(id) > len(g.tasks) {
		return nil
	}
	return &g.tasks[id-1]
}

// Add appends a task and returns its id. Color tasks default to
// RGBA8; clip masks to a single channel.
func (g *Graph) Add(t Task) TaskID {
	if t.Format == 0 {
		if t.Kind == TaskClipMask {
			t.Format = gputypes.TextureFormatR8Unorm
		} else {
			t.Format = gputypes.TextureFormatRGBA8Unorm
		}
	}
	if t.Kind != TaskPicture {
		t.Buffer = -1
	}
	g.tasks = append(g.tasks, t)
	return TaskID(len(g.tasks)) //nolint:gosec // task counts are small
}

// AddPicture adds a picture task rasterizing the given command
// buffer into a static tile texture.
func (g *Graph) AddPicture(size uicore.Size, buffer int) TaskID {
	return g.Add(Task{Kind: TaskPicture, Size: size, Location: LocationStatic, Buffer: buffer})
}

// AddBlur adds a blur over input's output.
func (g *Graph) AddBlur(input TaskID, radius float64) TaskID {
	size := uicore.Size{}
	if t := g.Task(input); t != nil {
		size = t.Size
	}
	return g.Add(Task{Kind: TaskBlur, Size: size, Deps: []TaskID{input}, BlurRadius: radius})
}

// AddClipMask adds a single-channel clip mask task.
func (g *Graph) AddClipMask(size uicore.Size) TaskID {
	return g.Add(Task{Kind: TaskClipMask, Size: size})
}

// AddResolve adds a resolve copying src's pixels into a fresh
// picture-input texture.
func (g *Graph) AddResolve(src TaskID) TaskID {
	size := uicore.Size{}
	if t := g.Task(src); t != nil {
		size = t.Size
	}
	return g.Add(Task{Kind: TaskResolve, Size: size, Deps: []TaskID{src}})
}

// AddComposite adds the tile composite consuming the given inputs
// into a static target.
func (g *Graph) AddComposite(size uicore.Size, deps []TaskID) TaskID {
	return g.Add(Task{Kind: TaskTileComposite, Size: size, Location: LocationStatic, Deps: deps})
}

// Alloc places one task's output inside a render target.
type Alloc struct {
	Task TaskID
	Rect uicore.Rect
}

// Target is one pass-owned texture holding the packed outputs of
// dynamic tasks that share a format.
type Target struct {
	Format gputypes.TextureFormat
	Size   uicore.Size
	Allocs []Alloc
}

// Pass is one scheduling unit: every task's inputs were produced in
// an earlier pass. Freed lists the dynamic tasks whose last consumer
// ran in this pass; their allocations are recycled before the next
// pass executes.
type Pass struct {
	Tasks   []TaskID
	Targets []Target
	Freed   []TaskID
}

// targetMaxDim caps pass-target textures; larger tasks get a target
// of their own size.
const targetMaxDim = 2048.0

// AssignPasses walks the graph in topological order, groups tasks
// into passes and packs each pass's dynamic outputs into render
// targets by format. Returns ErrCycle when the dependency edges do
// not form a DAG.
func (g *Graph) AssignPasses() ([]Pass, error) {
	n := len(g.tasks)
	if n == 0 {
		return nil, nil
	}

	// Kahn with depth tracking: a task's pass is one past its deepest
	// input.
	indeg := make([]int, n)
	consumers := make([][]int, n)
	for i := range g.tasks {
		for _, d := range g.tasks[i].Deps {
			if d == 0 || int(d) > n {
				continue
			}
			indeg[i]++
			consumers[d-1] = append(consumers[d-1], i)
		}
	}
	depth := make([]int, n)
	queue := make([]int, 0, n)
	for i, d := range indeg {
		if d == 0 {
			queue = append(queue, i)
		}
	}
	processed := 0
	maxDepth := 0
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		processed++
		if depth[i] > maxDepth {
			maxDepth = depth[i]
		}
		for _, c := range consumers[i] {
			if depth[i]+1 > depth[c] {
				depth[c] = depth[i] + 1
			}
			indeg[c]--
			if indeg[c] == 0 {
				queue = append(queue, c)
			}
		}
	}
	if processed != n {
		return nil, ErrCycle
	}

	passes := make([]Pass, maxDepth+1)
	for i := range g.tasks {
		p := &passes[depth[i]]
		p.Tasks = append(p.Tasks, TaskID(i+1)) //nolint:gosec // task counts are small
	}

	// A dynamic task's allocation lives until its deepest consumer's
	// pass completes.
	lastUse := make([]int, n)
	for i := range g.tasks {
		lastUse[i] = depth[i] // unconsumed outputs are frame deliverables
		for _, c := range consumers[i] {
			if depth[c] > lastUse[i] {
				lastUse[i] = depth[c]
			}
		}
	}

	for pi := range passes {
		packPass(g, &passes[pi])
		for i := range g.tasks {
			if g.tasks[i].Location != LocationDynamic {
				continue
			}
			if lastUse[i] == pi && len(consumers[i]) > 0 {
				passes[pi].Freed = append(passes[pi].Freed, TaskID(i+1)) //nolint:gosec // task counts are small
			}
		}
	}
	return passes, nil
}

// packPass shelf-packs the pass's dynamic task outputs into targets
// grouped by texture format.
func packPass(g *Graph, p *Pass) {
	byFormat := make(map[gputypes.TextureFormat][]TaskID)
	var formats []gputypes.TextureFormat
	for _, id := range p.Tasks {
		t := g.Task(id)
		if t.Location != LocationDynamic || t.Size.IsEmpty() {
			continue
		}
		if _, ok := byFormat[t.Format]; !ok {
			formats = append(formats, t.Format)
		}
		byFormat[t.Format] = append(byFormat[t.Format], id)
	}

	for _, format := range formats {
		ids := byFormat[format]
		var (
			cur        *Target
			penX, penY float64
			rowH       float64
		)
		open := func() {
			p.Targets = append(p.Targets, Target{Format: format})
			cur = &p.Targets[len(p.Targets)-1]
			penX, penY, rowH = 0, 0, 0
		}
		for _, id := range ids {
			t := g.Task(id)
			w, h := t.Size.Width, t.Size.Height
			if w > targetMaxDim || h > targetMaxDim {
				// Oversized tasks get a dedicated target.
				p.Targets = append(p.Targets, Target{
					Format: format,
					Size:   t.Size,
					Allocs: []Alloc{{Task: id, Rect: uicore.Rect{W: w, H: h}}},
				})
				continue
			}
			if cur == nil {
				open()
			}
			if penX+w > targetMaxDim {
				penY += rowH
				penX, rowH = 0, 0
			}
			if penY+h > targetMaxDim {
				open()
			}
			cur.Allocs = append(cur.Allocs, Alloc{
				Task: id,
				Rect: uicore.Rect{X: penX, Y: penY, W: w, H: h},
			})
			penX += w
			if h > rowH {
				rowH = h
			}
			if penX > cur.Size.Width {
				cur.Size.Width = penX
			}
			if penY+rowH > cur.Size.Height {
				cur.Size.Height = penY + rowH
			}
		}
	}
}
