package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"github.com/sirupsen/logrus"

	"github.com/lixenwraith/chunkflow/config"
	"github.com/lixenwraith/chunkflow/grid"
	"github.com/lixenwraith/chunkflow/logging"
	"github.com/lixenwraith/chunkflow/navigation"
	"github.com/lixenwraith/chunkflow/obstacle"
	"github.com/lixenwraith/chunkflow/parameter"
	"github.com/lixenwraith/chunkflow/vmath"
)

var (
	configFlag = flag.String("config", "", "Config file (yaml, toml or json)")
	envFlag    = flag.String("env", ".env", "Optional .env file")
	modeFlag   = flag.String("mode", "", "Obstacle mode override: open, scatter, maze")
	muteFlag   = flag.Bool("mute", false, "Disable audio cues")
)

const (
	frameInterval = 33 * time.Millisecond
	spawnCount    = 8
)

var (
	styleFloor    = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleWall     = tcell.StyleDefault.Foreground(tcell.ColorDarkSlateGray)
	styleField    = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	styleAgent    = tcell.StyleDefault.Foreground(tcell.ColorGreen).Bold(true)
	styleIdle     = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleDest     = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleBoundary = tcell.StyleDefault.Foreground(tcell.ColorNavy)
	styleCursor   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleStatus   = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorSilver)
)

// Viewer renders a simulation in the terminal, one screen cell per grid cell, +Z up
type Viewer struct {
	screen        tcell.Screen
	width, height int

	terrain grid.Terrain
	nav     *navigation.Navigator
	sim     *navigation.Simulation
	log     logrus.FieldLogger

	cursorX, cursorY int // Grid coordinates
	scrollX, scrollY int // Top-left of the viewport, in screen rows from the top of the grid

	dest      *grid.Point
	showField bool
	message   string

	arrivals  chan []int
	audioInit bool
}

func NewViewer(nav *navigation.Navigator, sim *navigation.Simulation, log logrus.FieldLogger, mute bool) (*Viewer, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}

	v := &Viewer{
		screen:    screen,
		terrain:   nav.Terrain(),
		nav:       nav,
		sim:       sim,
		log:       log,
		showField: true,
		arrivals:  make(chan []int, 16),
		message:   "arrows move  s spawn  d destination  f field  c clear  q quit",
	}
	v.width, v.height = screen.Size()
	v.cursorX = v.terrain.CellsX() / 2
	v.cursorY = v.terrain.CellsY() / 2

	sim.OnArrive(func(ids []int) {
		select {
		case v.arrivals <- ids:
		default:
		}
	})

	if !mute {
		if err := v.initAudio(); err != nil {
			// Non-fatal, viewer can run without sound
			log.WithError(err).Warn("Audio initialization failed")
		}
	}
	return v, nil
}

func (v *Viewer) initAudio() error {
	sampleRate := beep.SampleRate(44100)
	err := speaker.Init(sampleRate, sampleRate.N(time.Second/10))
	if err == nil {
		v.audioInit = true
	}
	return err
}

func (v *Viewer) playTone(freq int, d time.Duration) {
	if !v.audioInit {
		return
	}
	sampleRate := beep.SampleRate(44100)
	sine, err := generators.SineTone(sampleRate, float64(freq))
	if err != nil {
		return
	}
	speaker.Play(beep.Take(sampleRate.N(d), sine))
}

func (v *Viewer) playArrival() { v.playTone(880, 50*time.Millisecond) }
func (v *Viewer) playNoPath()  { v.playTone(220, 150*time.Millisecond) }

func (v *Viewer) viewRows() int {
	return v.height - 1 // Last row is the status line
}

// toScreen maps a grid coordinate to a screen cell; ok is false when off-screen
func (v *Viewer) toScreen(gx, gy int) (int, int, bool) {
	sx := gx - v.scrollX
	sy := (v.terrain.CellsY() - 1 - gy) - v.scrollY
	return sx, sy, sx >= 0 && sy >= 0 && sx < v.width && sy < v.viewRows()
}

func (v *Viewer) followCursor() {
	row := v.terrain.CellsY() - 1 - v.cursorY
	switch {
	case v.cursorX < v.scrollX:
		v.scrollX = v.cursorX
	case v.cursorX >= v.scrollX+v.width:
		v.scrollX = v.cursorX - v.width + 1
	}
	switch {
	case row < v.scrollY:
		v.scrollY = row
	case row >= v.scrollY+v.viewRows():
		v.scrollY = row - v.viewRows() + 1
	}
}

func (v *Viewer) cursorWorld() vmath.Vec3F {
	gi := v.cursorY*v.terrain.CellsX() + v.cursorX
	return v.terrain.Cell(gi, nil).Center
}

func (v *Viewer) moveCursor(dx, dy int) {
	v.cursorX = min(max(v.cursorX+dx, 0), v.terrain.CellsX()-1)
	v.cursorY = min(max(v.cursorY+dy, 0), v.terrain.CellsY()-1)
	v.followCursor()
}

func (v *Viewer) spawn() {
	chunk := v.terrain.ChunkIndexFromWorldPosition(v.cursorWorld())
	ids, err := v.sim.Spawn(chunk, spawnCount)
	if err != nil {
		v.message = err.Error()
		return
	}
	v.message = fmt.Sprintf("spawned %d agents in chunk %d", len(ids), chunk)
}

func (v *Viewer) command() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := v.sim.Command(ctx, v.cursorWorld()); err != nil {
		v.message = err.Error()
		v.playNoPath()
		return
	}
	v.dest = &grid.Point{X: v.cursorX, Y: v.cursorY}

	stranded := 0
	snap := v.sim.Snapshot()
	for _, a := range snap.Agents {
		if a.State == navigation.AgentIdle.String() {
			stranded++
		}
	}
	if stranded > 0 {
		v.playNoPath()
		v.message = fmt.Sprintf("no path for %d of %d agents", stranded, len(snap.Agents))
		return
	}
	v.message = fmt.Sprintf("routing %d agents", len(snap.Agents))
}

// fieldGlyphs collects direction glyphs of every leg on the agents' current routes
func (v *Viewer) fieldGlyphs(snap navigation.Snapshot) map[int]rune {
	glyphs := make(map[int]rune)
	seen := make(map[navigation.Leg]bool)
	for _, a := range snap.Agents {
		legs, err := navigation.ChunkRoute(a.Route).Legs(v.terrain)
		if err != nil {
			continue
		}
		for _, leg := range legs {
			if seen[leg] {
				continue
			}
			seen[leg] = true
			f, err := v.nav.GetDirectionField(leg.Chunk, leg.Side)
			if err != nil {
				continue
			}
			for local, gi := range v.terrain.CellsAtChunk(leg.Chunk) {
				if f.Reachable(local) {
					glyphs[gi] = f.At(local).Glyph()
				}
			}
		}
	}
	return glyphs
}

func (v *Viewer) draw() {
	v.screen.Clear()
	snap := v.sim.Snapshot()

	var glyphs map[int]rune
	if v.showField {
		glyphs = v.fieldGlyphs(snap)
	}

	cellsX := v.terrain.CellsX()
	size := v.terrain.ChunkSize
	masks := make([][]bool, v.terrain.NumChunks())
	for chunk := range masks {
		masks[chunk], _ = v.nav.Obstacles(chunk)
	}
	for gy := 0; gy < v.terrain.CellsY(); gy++ {
		for gx := 0; gx < cellsX; gx++ {
			sx, sy, ok := v.toScreen(gx, gy)
			if !ok {
				continue
			}
			gi := gy*cellsX + gx
			mask := masks[v.terrain.ChunkIndexFromGridIndex(gi)]

			ch, style := '.', styleFloor
			switch {
			case mask[v.terrain.LocalIndexFromGridIndex(gi)]:
				ch, style = '█', styleWall
			case glyphs[gi] != 0:
				ch, style = glyphs[gi], styleField
			case gx%size == 0 || gy%size == 0:
				ch, style = '·', styleBoundary
			}
			v.screen.SetContent(sx, sy, ch, nil, style)
		}
	}

	if v.dest != nil {
		if sx, sy, ok := v.toScreen(v.dest.X, v.dest.Y); ok {
			v.screen.SetContent(sx, sy, 'X', nil, styleDest)
		}
	}

	for _, a := range snap.Agents {
		pos := vmath.Vec3F{X: a.X, Y: a.Y, Z: a.Z}
		if !v.terrain.ContainsWorldPosition(pos) {
			continue
		}
		p := v.terrain.GridCoordFromWorldPosition(pos)
		if sx, sy, ok := v.toScreen(p.X, p.Y); ok {
			style := styleIdle
			if a.State == navigation.AgentFollowing.String() {
				style = styleAgent
			}
			v.screen.SetContent(sx, sy, '@', nil, style)
		}
	}

	if sx, sy, ok := v.toScreen(v.cursorX, v.cursorY); ok {
		v.screen.SetContent(sx, sy, '+', nil, styleCursor)
	}

	v.drawStatus(snap)
	v.screen.Show()
}

func (v *Viewer) drawStatus(snap navigation.Snapshot) {
	gi := v.cursorY*v.terrain.CellsX() + v.cursorX
	status := fmt.Sprintf(" chunk %d cell %d (%d,%d) agents %d tick %d | %s ",
		v.terrain.ChunkIndexFromGridIndex(gi), v.terrain.LocalIndexFromGridIndex(gi),
		v.cursorX, v.cursorY, len(snap.Agents), snap.Tick, v.message)

	row := v.height - 1
	for x := 0; x < v.width; x++ {
		v.screen.SetContent(x, row, ' ', nil, styleStatus)
	}
	x := 0
	for _, r := range status {
		if x >= v.width {
			break
		}
		v.screen.SetContent(x, row, r, nil, styleStatus)
		x++
	}
}

func (v *Viewer) handleInput(ev tcell.Event) bool {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		switch ev.Key() {
		case tcell.KeyEscape, tcell.KeyCtrlC:
			return false
		case tcell.KeyUp:
			v.moveCursor(0, 1)
		case tcell.KeyDown:
			v.moveCursor(0, -1)
		case tcell.KeyLeft:
			v.moveCursor(-1, 0)
		case tcell.KeyRight:
			v.moveCursor(1, 0)
		case tcell.KeyEnter:
			v.command()
		case tcell.KeyRune:
			switch ev.Rune() {
			case 'q':
				return false
			case 's':
				v.spawn()
			case 'd':
				v.command()
			case 'f':
				v.showField = !v.showField
			case 'c':
				v.sim.Clear()
				v.dest = nil
				v.message = "cleared"
			}
		}

	case *tcell.EventResize:
		v.width, v.height = v.screen.Size()
		v.screen.Sync()
		v.followCursor()
	}
	return true
}

func (v *Viewer) run() {
	frame := time.NewTicker(frameInterval)
	defer frame.Stop()
	tick := time.NewTicker(parameter.SimulationTick)
	defer tick.Stop()

	eventChan := make(chan tcell.Event, 100)
	go func() {
		for {
			ev := v.screen.PollEvent()
			if ev == nil {
				return
			}
			eventChan <- ev
		}
	}()

	for {
		select {
		case ev := <-eventChan:
			if !v.handleInput(ev) {
				return
			}
		case <-tick.C:
			v.sim.Tick(parameter.SimulationTick)
		case ids := <-v.arrivals:
			v.playArrival()
			v.message = fmt.Sprintf("%d agents stopped", len(ids))
		case <-frame.C:
			v.draw()
		}
	}
}

func (v *Viewer) cleanup() {
	if v.audioInit {
		speaker.Close()
	}
	v.screen.Fini()
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configFlag, *envFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowviz: %v\n", err)
		os.Exit(1)
	}
	if *modeFlag != "" {
		cfg.Obstacles.Mode = *modeFlag
	}

	// The terminal is the display; only log when a file is configured
	var log logrus.FieldLogger = logging.Discard()
	if cfg.Log.File != "" {
		sink, err := logging.Setup(cfg.Log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "flowviz: %v\n", err)
			os.Exit(1)
		}
		defer sink.Close()
		log = sink.Logger
	}

	nav, layout, err := build(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flowviz: %v\n", err)
		os.Exit(1)
	}
	defer nav.Close()
	log.WithField("blocked", layout.BlockedCount()).Info("Layout ready")

	sim := navigation.NewSimulation(nav, cfg.Navigation.AgentSpeed, log)
	viewer, err := NewViewer(nav, sim, log, *muteFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize: %v\n", err)
		os.Exit(1)
	}

	// Restore the terminal even if a frame panics
	defer func() {
		if r := recover(); r != nil {
			viewer.cleanup()
			fmt.Fprintf(os.Stderr, "flowviz crashed: %v\n%s\n", r, debug.Stack())
			os.Exit(1)
		}
	}()
	defer viewer.cleanup()

	viewer.run()
}

func build(cfg config.Config, log logrus.FieldLogger) (*navigation.Navigator, obstacle.Layout, error) {
	terrain, err := cfg.TerrainSpec()
	if err != nil {
		return nil, obstacle.Layout{}, err
	}
	obsCfg, err := cfg.ObstacleSpec()
	if err != nil {
		return nil, obstacle.Layout{}, err
	}
	layout, err := obstacle.Generate(terrain, obsCfg)
	if err != nil {
		return nil, obstacle.Layout{}, err
	}
	nav, err := navigation.NewNavigator(terrain, cfg.NavigatorOptions(), log)
	if err != nil {
		return nil, obstacle.Layout{}, err
	}
	if err := layout.Apply(nav); err != nil {
		nav.Close()
		return nil, obstacle.Layout{}, err
	}
	return nav, layout, nil
}
