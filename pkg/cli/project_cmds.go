package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/istale/auto-click-system/pkg/project"
	"github.com/istale/auto-click-system/pkg/validator"
)

var initCommand = &cli.Command{
	Name:      "init",
	Usage:     "Create an empty flow project",
	ArgsUsage: "<project-dir>",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "name",
			Usage: "Project display name",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("expected exactly one project directory")
		}
		dir := c.Args().First()
		name := c.String("name")
		if name == "" {
			name = "auto-click project"
		}

		p, err := project.Create(dir, name)
		if err != nil {
			return err
		}
		fmt.Printf("Created project %q in %s\n", p.Doc.Meta.Name, p.Dir)
		return nil
	},
}

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Check a project's flows and assets without replaying",
	ArgsUsage: "<project-dir>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("expected exactly one project directory")
		}
		p, err := project.Open(c.Args().First())
		if err != nil {
			return err
		}

		result := validator.Validate(p)
		for _, issue := range result.Issues {
			prefix := "error"
			if issue.Warning {
				prefix = "warning"
			}
			fmt.Printf("%s: %v\n", prefix, issue)
		}
		if !result.IsValid() {
			return fmt.Errorf("validation failed with %d error(s)", len(result.Errors()))
		}
		fmt.Printf("%d flow(s) valid\n", len(p.Doc.Flows))
		return nil
	},
}

var listCommand = &cli.Command{
	Name:      "list",
	Usage:     "List the flows and steps in a project",
	ArgsUsage: "<project-dir>",
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("expected exactly one project directory")
		}
		p, err := project.Open(c.Args().First())
		if err != nil {
			return err
		}

		fmt.Printf("%s (%d flows)\n", p.Doc.Meta.Name, len(p.Doc.Flows))
		for _, f := range p.Doc.Flows {
			title := f.Title
			if title == "" {
				title = "(untitled)"
			}
			fmt.Printf("  %s  %s\n", f.ID, title)
			for i, step := range f.Steps {
				fmt.Printf("    %2d. %s\n", i+1, step.Describe())
			}
		}
		return nil
	},
}
