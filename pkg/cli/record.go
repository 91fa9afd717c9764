package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/istale/auto-click-system/pkg/driver/mock"
	"github.com/istale/auto-click-system/pkg/flow"
	"github.com/istale/auto-click-system/pkg/project"
	"github.com/istale/auto-click-system/pkg/recorder"
)

var recordCommand = &cli.Command{
	Name:      "record",
	Usage:     "Record a new flow from an event script",
	ArgsUsage: "<project-dir>",
	Description: `Record a flow into a project. Events are read one per line from stdin
or --events:

  click X Y [button] [clicks]   absolute screen click
  pause                         toggle recording on/off
  stop                          finish the recording

Clicks arriving while paused are discarded; pause and stop never become
steps. Each recorded click is stored as an offset from the anchor click
position (--anchor-origin + --click-in-image). OS-level event listeners
plug in through the same recorder session API.`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "id",
			Usage: "Flow id (default: generated)",
		},
		&cli.StringFlag{
			Name:  "title",
			Usage: "Flow title",
		},
		&cli.StringFlag{
			Name:     "anchor-image",
			Usage:    "PNG template to store as the flow's anchor",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "click-in-image",
			Usage:    "Anchor click position inside the template, as x,y",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "anchor-origin",
			Usage:    "Top-left screen position of the anchor at record time, as x,y",
			Required: true,
		},
		&cli.Float64Flag{
			Name:  "delay",
			Usage: "Default delay in seconds for recorded steps",
		},
		&cli.StringFlag{
			Name:  "events",
			Usage: "Event script file (default: stdin)",
		},
		&cli.StringFlag{
			Name:  "frame",
			Usage: "PNG screenshot used for step previews (optional)",
		},
	},
	Action: recordAction,
}

func recordAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one project directory")
	}
	p, err := project.Open(c.Args().First())
	if err != nil {
		return err
	}

	clickInImage, err := parsePoint(c.String("click-in-image"))
	if err != nil {
		return err
	}
	origin, err := parsePoint(c.String("anchor-origin"))
	if err != nil {
		return err
	}

	id := c.String("id")
	if id == "" {
		id = uuid.New().String()[:8]
	}
	if _, exists := p.Flow(id); exists {
		return fmt.Errorf("flow %q already exists in project", id)
	}

	// Store the anchor template under the project's asset layout.
	template, err := loadPNG(c.String("anchor-image"))
	if err != nil {
		return err
	}
	tb := template.Bounds()
	if clickInImage.X < 0 || clickInImage.Y < 0 || clickInImage.X >= tb.Dx() || clickInImage.Y >= tb.Dy() {
		return fmt.Errorf("click-in-image (%d,%d) is outside the %dx%d template",
			clickInImage.X, clickInImage.Y, tb.Dx(), tb.Dy())
	}
	anchorRel := project.AnchorPath(id)
	if err := p.SavePNG(anchorRel, template); err != nil {
		return err
	}

	delayS := c.Float64("delay")
	if delayS == 0 {
		delayS = p.Doc.Meta.DefaultDelayS
	}

	cfg := recorder.Config{
		FlowID: id,
		Title:  c.String("title"),
		Anchor: &flow.Anchor{
			Image:        anchorRel,
			ClickInImage: clickInImage,
		},
		AnchorClick: origin.Add(clickInImage),
		DelayS:      delayS,
		Previews:    p,
	}
	if framePath := c.String("frame"); framePath != "" {
		frame, err := loadPNG(framePath)
		if err != nil {
			return err
		}
		cfg.Screen = mock.NewScreen(frame)
	}

	var source io.Reader = os.Stdin
	if path := c.String("events"); path != "" {
		fd, err := os.Open(path) //#nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("failed to open events file: %w", err)
		}
		defer fd.Close()
		source = fd
	}

	session := recorder.NewSession(cfg)
	events := make(chan recorder.Event)
	errc := make(chan error, 1)
	go func() {
		errc <- feedEvents(source, events)
		close(events)
	}()

	f, err := session.Consume(c.Context, events)
	if err != nil {
		return err
	}
	if err := <-errc; err != nil {
		return err
	}

	p.AddFlow(f)
	if err := p.Save(); err != nil {
		return err
	}
	fmt.Printf("Recorded flow %s with %d step(s)\n", f.ID, len(f.Steps))
	return nil
}

// feedEvents parses the line protocol and forwards events. It returns on
// stop, EOF, or the first malformed line.
func feedEvents(r io.Reader, events chan<- recorder.Event) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		ev, err := parseEvent(line)
		if err != nil {
			return err
		}
		events <- ev
		if ev.Kind == recorder.EventStop {
			return nil
		}
	}
	return scanner.Err()
}

func parseEvent(line string) (recorder.Event, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "pause":
		return recorder.Event{Kind: recorder.EventPause}, nil
	case "stop":
		return recorder.Event{Kind: recorder.EventStop}, nil
	case "click":
		if len(fields) < 3 {
			return recorder.Event{}, fmt.Errorf("click needs X and Y: %q", line)
		}
		x, err := strconv.Atoi(fields[1])
		if err != nil {
			return recorder.Event{}, fmt.Errorf("bad click X in %q: %w", line, err)
		}
		y, err := strconv.Atoi(fields[2])
		if err != nil {
			return recorder.Event{}, fmt.Errorf("bad click Y in %q: %w", line, err)
		}
		ev := recorder.Event{Kind: recorder.EventClick, Point: flow.Point{X: x, Y: y}}
		if len(fields) > 3 {
			button, err := flow.ParseButton(fields[3])
			if err != nil {
				return recorder.Event{}, err
			}
			ev.Button = button
		}
		if len(fields) > 4 {
			clicks, err := strconv.Atoi(fields[4])
			if err != nil || clicks < 1 || clicks > flow.MaxClicks {
				return recorder.Event{}, fmt.Errorf("bad click count in %q", line)
			}
			ev.Clicks = clicks
		}
		return ev, nil
	default:
		return recorder.Event{}, fmt.Errorf("unknown event %q", fields[0])
	}
}
