package viewcmder

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ledgerview/pkg/cliui"
	"github.com/papercomputeco/ledgerview/pkg/compose"
	"github.com/papercomputeco/ledgerview/pkg/config"
	"github.com/papercomputeco/ledgerview/pkg/utils"
)

type timelineCommander struct {
	viewCommander

	limit int
}

const timelineLongDesc string = `Print the change history of a namespace or node, newest first.

Without a target the current namespace's history is shown.

Examples:
  ledgerview timeline
  ledgerview timeline node:7d1c... --limit 20`

const timelineShortDesc string = "Print change history"

func NewTimelineCmd() *cobra.Command {
	cmder := &timelineCommander{}

	cmd := &cobra.Command{
		Use:     "timeline [target]",
		Aliases: []string{"history"},
		Short:   timelineShortDesc,
		Long:    timelineLongDesc,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmder.prepare(cmd, config.FlagHistoryLimit)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := ""
			if len(args) == 1 {
				target = args[0]
			}
			return cmder.run(cmd.Context(), target)
		},
	}

	cmder.addKernelFlags(cmd)
	config.AddIntFlag(cmd, config.Flags, config.FlagHistoryLimit, &cmder.limit)

	return cmd
}

// maxActorWidth keeps long service principals from pushing summaries off
// screen.
const maxActorWidth = 24

func (c *timelineCommander) run(ctx context.Context, target string) error {
	composer, err := c.composer()
	if err != nil {
		return err
	}

	view, err := composer.Timeline(ctx, compose.TimelineRequest{
		Target: target,
		Limit:  c.viper.GetInt("view.history_limit"),
	})
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	if c.json {
		return c.printJSON(view)
	}

	fmt.Fprintf(c.out, "\n  %s %s\n\n",
		cliui.KeyStyle.Render("History of"),
		cliui.ValueStyle.Render(view.Target),
	)

	if len(view.Timeline) == 0 {
		fmt.Fprintf(c.out, "  %s\n\n", cliui.DimStyle.Render("No operations recorded."))
		return nil
	}

	for _, e := range view.Timeline {
		fmt.Fprintf(c.out, "  %s  %s  %s  %s\n",
			cliui.DimStyle.Render(fmt.Sprintf("#%d", e.Seq)),
			cliui.KeyStyle.Render(e.OccurredAt.Format(time.DateTime)),
			cliui.RoleStyle.Render(utils.Truncate(e.ActorID, maxActorWidth)),
			cliui.ValueStyle.Render(e.Summary),
		)
	}

	fmt.Fprintln(c.out)
	return nil
}
