package cmd

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jroimartin/gocui"
	"github.com/spf13/cobra"

	"github.com/roffe/cansig"
	"github.com/roffe/cansig/cmd/sigtool/pkg/ui"
	"github.com/roffe/cansig/pkg/signals"
	"github.com/roffe/cansig/pkg/tail"
)

func init() {
	rootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().Bool(flagSeekEnd, false, "skip existing capture content")
}

var filter = &ui.Input{
	Name:      "filter",
	Title:     "Filter",
	X:         0,
	Y:         16,
	W:         25,
	MaxLength: 30,
}

var mu sync.Mutex
var buffLines int64
var frameCount int64
var filters []uint32
var latest = make(map[string]float64)

var monitorCmd = &cobra.Command{
	Use:   "monitor <capture>",
	Short: "watch a capture file with live signal values",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Println("Entering monitoring mode")
		ctx := cmd.Context()

		var opts []tail.Option
		if ok, _ := cmd.Flags().GetBool(flagSeekEnd); ok {
			opts = append(opts, tail.WithSeekEnd())
		}
		frames, errs := tail.Follow(ctx, args[0], opts...)

		stream := cansig.NewStream(frames)
		go stream.Run(ctx)
		defer stream.Close()
		sub := stream.Subscribe()
		defer sub.Close()

		g, err := gocui.NewGui(gocui.OutputNormal)
		if err != nil {
			return err
		}
		g.Cursor = true
		defer g.Close()

		g.SetManagerFunc(layout)

		if err := initKeybindings(g); err != nil {
			return err
		}

		go frameParser(ctx, stream, sub, g)
		go errorPump(ctx, errs, g)

		if err := g.MainLoop(); err != nil && err != gocui.ErrQuit {
			return err
		}
		return nil
	},
}

func inFilters(identifier uint32) bool {
	mu.Lock()
	defer mu.Unlock()
	if len(filters) == 0 {
		return true
	}
	for _, id := range filters {
		if id == identifier {
			return true
		}
	}
	return false
}

func frameParser(ctx context.Context, stream *cansig.Stream, sub *cansig.Subscriber, g *gocui.Gui) {
	for {
		og, err := sub.Next(ctx)
		if err != nil {
			return
		}
		atomic.AddInt64(&frameCount, 1)
		if !inFilters(og.Identifier) {
			continue
		}
		if atomic.LoadInt64(&buffLines) > 50000 {
			continue
		}

		f := *og // the update closure runs later, keep our own copy
		g.Update(func(g *gocui.Gui) error {
			packets, err := g.View("packets")
			if err != nil {
				return err
			}

			// Latest values only change here, on the ui goroutine.
			for _, def := range signals.ForIdentifier(f.Identifier) {
				latest[def.Name] = def.Decode(&f)
			}

			sv, err := g.View("signals")
			if err != nil {
				return err
			}
			sv.Clear()
			for _, def := range signals.List() {
				if v, ok := latest[def.Name]; ok {
					fmt.Fprintf(sv, "%s: %.2f %s\n", def.Name, v, def.Unit)
				} else {
					fmt.Fprintf(sv, "%s: -\n", def.Name)
				}
			}

			info, err := g.View("info")
			if err != nil {
				return err
			}
			info.Clear()
			fmt.Fprintf(info, "frames: %d\n", atomic.LoadInt64(&frameCount))
			fmt.Fprintf(info, "in buffer: %d\n", atomic.LoadInt64(&buffLines))
			fmt.Fprintf(info, "dropped: %d\n", stream.Stats().Dropped)

			fmt.Fprintf(packets, " %s || %s%s\n", time.Now().Format("15:04:05.00000"), f.String(), annotate(&f))
			atomic.AddInt64(&buffLines, 1)
			return nil
		})
	}
}

// annotate names the signals riding on a frame, with their decoded
// values.
func annotate(f *cansig.Frame) string {
	defs := signals.ForIdentifier(f.Identifier)
	if len(defs) == 0 {
		return ""
	}
	var parts []string
	for _, def := range defs {
		parts = append(parts, fmt.Sprintf("%s=%.2f %s", def.Name, def.Decode(f), def.Unit))
	}
	return " || " + strings.Join(parts, ", ")
}

func errorPump(ctx context.Context, errs <-chan error, g *gocui.Gui) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			g.Update(func(g *gocui.Gui) error {
				if v, verr := g.View("errors"); verr == nil {
					fmt.Fprintln(v, err)
				}
				return nil
			})
		}
	}
}

func layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if v, err := g.SetView("signals", 0, 0, 25, 10); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Autoscroll = false
		v.Title = "Signals"
	}
	if v, err := g.SetView("info", 0, 11, 25, 15); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Autoscroll = false
		v.Title = "Info"
	}

	if err := filter.Layout(g); err != nil {
		return err
	}

	if v, err := g.SetView("help", 0, maxY-21, 25, maxY-11); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Autoscroll = false
		v.Wrap = true
		v.Title = "Help"
		fmt.Fprintln(v, "<Q, Ctrl-C> Quit")
		fmt.Fprintln(v, "<Space> Autoscroll")
		fmt.Fprintln(v, "<Ctrl-F> Set filter")
		fmt.Fprintln(v, "<C> Clear buffer")
	}

	if v, err := g.SetView("errors", 0, maxY-10, 25, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Autoscroll = true
		v.Wrap = true
		v.Title = "Errors"
	}

	if v, err := g.SetView("packets", 26, 0, maxX-1, maxY-1); err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.SelFgColor = gocui.ColorCyan
		v.Autoscroll = true
		v.Highlight = true
		v.Title = "Frame view"
		if _, err := g.SetCurrentView("packets"); err != nil {
			return err
		}
	}

	return nil
}

func up(g *gocui.Gui, v *gocui.View) error {
	v.MoveCursor(0, -1, false)
	return nil
}

func down(g *gocui.Gui, v *gocui.View) error {
	v.MoveCursor(0, 1, false)
	return nil
}

func flipAutoscroll(g *gocui.Gui, v *gocui.View) error {
	v.Autoscroll = !v.Autoscroll
	return nil
}

func quit(g *gocui.Gui, v *gocui.View) error {
	return gocui.ErrQuit
}

func setFilter(g *gocui.Gui, v *gocui.View) error {
	buff := strings.TrimRight(v.Buffer(), "\n")
	mu.Lock()
	defer mu.Unlock()
	filters = []uint32{}
	if len(buff) == 0 {
		if _, err := g.SetCurrentView("packets"); err != nil {
			return err
		}
		return nil
	}
	for _, p := range strings.Split(buff, ",") {
		parsed, err := parseIdentifier(p)
		if err != nil {
			if ev, verr := g.View("errors"); verr == nil {
				fmt.Fprintln(ev, err)
			}
			continue
		}
		filters = append(filters, parsed)
	}
	if ev, verr := g.View("errors"); verr == nil {
		fmt.Fprintf(ev, "Set filters %03X\n", filters)
	}
	if _, err := g.SetCurrentView("packets"); err != nil {
		return err
	}
	return nil
}

func initKeybindings(g *gocui.Gui) error {
	if err := g.SetKeybinding("", 'q', gocui.ModNone, quit); err != nil {
		return err
	}
	if err := g.SetKeybinding("", gocui.KeyCtrlC, gocui.ModNone, quit); err != nil {
		return err
	}

	if err := g.SetKeybinding("packets", gocui.KeyCtrlF, gocui.ModNone,
		func(g *gocui.Gui, v *gocui.View) error {
			if _, err := g.SetCurrentView("filter"); err != nil {
				return err
			}
			return nil
		}); err != nil {
		return err
	}

	if err := g.SetKeybinding("filter", gocui.KeyEnter, gocui.ModNone, setFilter); err != nil {
		return err
	}

	if err := g.SetKeybinding("packets", 'c', gocui.ModNone,
		func(g *gocui.Gui, v *gocui.View) error {
			atomic.StoreInt64(&buffLines, 0)
			v.Autoscroll = true
			v.Clear()
			v.SetOrigin(0, 0)
			return nil
		},
	); err != nil {
		return err
	}

	if err := g.SetKeybinding("packets", gocui.KeyHome, gocui.ModNone,
		func(g *gocui.Gui, v *gocui.View) error {
			cx, cy := v.Cursor()
			v.Autoscroll = false
			v.SetOrigin(0, 0)
			v.SetCursor(cx, cy)
			return nil
		},
	); err != nil {
		return err
	}

	if err := g.SetKeybinding("packets", gocui.KeyEnd, gocui.ModNone,
		func(g *gocui.Gui, v *gocui.View) error {
			v.Autoscroll = false
			cx, cy := v.Cursor()
			_, y := v.Size()
			v.SetOrigin(0, len(v.BufferLines())-y+1)
			v.SetCursor(cx, cy)
			return nil
		},
	); err != nil {
		return err
	}

	if err := g.SetKeybinding("packets", gocui.KeySpace, gocui.ModNone, flipAutoscroll); err != nil {
		return err
	}

	if err := g.SetKeybinding("packets", gocui.KeyArrowUp, gocui.ModNone, up); err != nil {
		return err
	}
	if err := g.SetKeybinding("packets", gocui.KeyArrowDown, gocui.ModNone, down); err != nil {
		return err
	}

	if err := g.SetKeybinding("packets", gocui.KeyPgup, gocui.ModNone,
		func(g *gocui.Gui, v *gocui.View) error {
			v.MoveCursor(0, -10, false)
			return nil
		}); err != nil {
		return err
	}
	if err := g.SetKeybinding("packets", gocui.KeyPgdn, gocui.ModNone,
		func(g *gocui.Gui, v *gocui.View) error {
			v.MoveCursor(0, 10, false)
			return nil
		}); err != nil {
		return err
	}

	return nil
}
