package cli

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/istale/auto-click-system/pkg/core"
	"github.com/istale/auto-click-system/pkg/driver/mock"
	"github.com/istale/auto-click-system/pkg/executor"
	"github.com/istale/auto-click-system/pkg/flow"
	"github.com/istale/auto-click-system/pkg/project"
	"github.com/istale/auto-click-system/pkg/report"
	"github.com/istale/auto-click-system/pkg/validator"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Replay a project's flows against a screen frame",
	ArgsUsage: "<project-dir>",
	Description: `Replay flows by locating each flow's anchor on the screen frame and
injecting its steps relative to the recovered anchor position.

The screen is supplied as a PNG screenshot via --frame; OS-level capture
and injection backends plug in through the same interfaces.`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "flow",
			Usage: "Flow id to run (repeatable; default: all flows)",
		},
		&cli.StringFlag{
			Name:     "frame",
			Usage:    "PNG screenshot to use as the screen",
			Required: true,
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "Resolve coordinates without injecting input",
		},
		&cli.IntFlag{
			Name:  "max-attempts",
			Usage: "Anchor location attempts per flow",
			Value: 3,
		},
		&cli.DurationFlag{
			Name:  "retry-interval",
			Usage: "Delay between anchor location attempts",
			Value: time.Second,
		},
		&cli.BoolFlag{
			Name:  "exponential",
			Usage: "Grow the retry delay exponentially",
		},
		&cli.StringFlag{
			Name:  "on-failure",
			Usage: "Step failure policy: abort or skip",
			Value: "abort",
		},
		&cli.StringFlag{
			Name:  "report",
			Usage: "Report output directory (default: the project directory)",
		},
	},
	Action: runAction,
}

func runAction(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one project directory")
	}
	p, err := project.Open(c.Args().First())
	if err != nil {
		return err
	}

	if result := validator.Validate(p); !result.IsValid() {
		for _, issue := range result.Errors() {
			fmt.Printf("error: %v\n", issue)
		}
		return fmt.Errorf("project failed validation; run 'auto-click validate' for details")
	}

	flows, err := selectFlows(p, c.StringSlice("flow"))
	if err != nil {
		return err
	}

	frame, err := loadPNG(c.String("frame"))
	if err != nil {
		return err
	}

	policy, ok := executor.ParsePolicy(c.String("on-failure"))
	if !ok {
		return fmt.Errorf("unknown failure policy %q (want abort or skip)", c.String("on-failure"))
	}

	screen := mock.NewScreen(frame)
	input := mock.NewInput(mock.Config{})
	exec := executor.New(screen, input, p, executor.Config{
		Retry: executor.RetryPolicy{
			MaxAttempts: c.Int("max-attempts"),
			Interval:    c.Duration("retry-interval"),
			Exponential: c.Bool("exponential"),
		},
		OnFailure: policy,
		DryRun:    c.Bool("dry-run"),
		OnStepComplete: func(sr core.StepResult) {
			printStep(sr)
		},
	})

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	results := exec.Run(ctx, flows)

	reportDir := c.String("report")
	if reportDir == "" {
		reportDir = p.Dir
	}
	path, err := report.Write(reportDir, report.Build(p.Doc.Meta.Name, results))
	if err != nil {
		return err
	}

	failed := 0
	for _, fr := range results {
		fmt.Printf("%s  %s (%d steps, %v)\n", strings.ToUpper(fr.Status.String()), fr.FlowID, len(fr.Steps), fr.Duration.Round(time.Millisecond))
		if fr.Status != core.StatusPassed {
			failed++
		}
	}
	fmt.Printf("Report written to %s\n", path)
	if failed > 0 {
		return fmt.Errorf("%d of %d flow(s) failed", failed, len(results))
	}
	return nil
}

func printStep(sr core.StepResult) {
	mark := "✓"
	if sr.Status == core.StatusFailed {
		mark = "✗"
	}
	line := fmt.Sprintf("  %s step %d %s", mark, sr.Index+1, sr.Action)
	if sr.Target != nil {
		line += fmt.Sprintf(" -> (%d,%d)", sr.Target.X, sr.Target.Y)
	}
	if sr.Error != "" {
		line += "  " + sr.Error
	}
	fmt.Println(line)
}

// selectFlows resolves --flow ids against the project, defaulting to all.
func selectFlows(p *project.Project, ids []string) ([]*flow.Flow, error) {
	if len(ids) == 0 {
		if len(p.Doc.Flows) == 0 {
			return nil, fmt.Errorf("project has no flows")
		}
		return p.Doc.Flows, nil
	}

	flows := make([]*flow.Flow, 0, len(ids))
	for _, id := range ids {
		f, ok := p.Flow(id)
		if !ok {
			return nil, fmt.Errorf("flow %q not found in project", id)
		}
		flows = append(flows, f)
	}
	return flows, nil
}

func loadPNG(path string) (image.Image, error) {
	fd, err := os.Open(path) //#nosec G304 -- user-provided path
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer fd.Close()
	img, err := png.Decode(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

// parsePoint parses "x,y".
func parsePoint(s string) (flow.Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return flow.Point{}, fmt.Errorf("expected x,y but got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return flow.Point{}, fmt.Errorf("bad x in %q: %w", s, err)
	}
	y, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return flow.Point{}, fmt.Errorf("bad y in %q: %w", s, err)
	}
	return flow.Point{X: x, Y: y}, nil
}
