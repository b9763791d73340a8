package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"easel/internal/queueview"
)

func newQueueCommand(ctx *commandContext) *cobra.Command {
	queueCmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and manage the generation queue",
	}

	queueCmd.AddCommand(newQueueListCommand(ctx))
	queueCmd.AddCommand(newQueueShowCommand(ctx))
	queueCmd.AddCommand(newQueueCancelCommand(ctx))
	queueCmd.AddCommand(newQueueCancelAllCommand(ctx))
	queueCmd.AddCommand(newQueueRetryCommand(ctx))
	queueCmd.AddCommand(newQueueDeleteCommand(ctx))
	queueCmd.AddCommand(newQueueClearCommand(ctx))
	queueCmd.AddCommand(newQueueWatchCommand(ctx))

	return queueCmd
}

func (c *commandContext) queueView() (*queueview.Synchronizer, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := c.apiClient()
	if err != nil {
		return nil, err
	}
	engine, err := c.submitEngine()
	if err != nil {
		return nil, err
	}
	return queueview.New(
		client,
		engine,
		queueview.WithPageSize(cfg.Queue.PageSize),
		queueview.WithCoalesceWindow(cfg.Queue.RefetchCoalesceWindow()),
	), nil
}

func newQueueListCommand(ctx *commandContext) *cobra.Command {
	var page int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queued and finished jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := ctx.queueView()
			if err != nil {
				return err
			}
			if err := view.FetchPage(cmd.Context(), page); err != nil {
				return err
			}
			result := view.Page()
			out := cmd.OutOrStdout()
			if len(result.Jobs) == 0 {
				fmt.Fprintln(out, "Queue is empty")
				return nil
			}
			fmt.Fprintln(out, renderTable(queueTableHeaders, buildQueueRows(result.Jobs)))
			fmt.Fprintln(out, pageFooter(result))
			return nil
		},
	}

	cmd.Flags().IntVarP(&page, "page", "p", 1, "Page to display")
	return cmd
}

func newQueueShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <jobID>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			gen, err := client.GetGeneration(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:      %s\n", gen.ID)
			fmt.Fprintf(out, "Mode:    %s\n", gen.Mode.DisplayLabel())
			fmt.Fprintf(out, "Model:   %s\n", gen.Model)
			fmt.Fprintf(out, "Status:  %s\n", colorizeStatus(gen.Status, shouldColorize(out)))
			if gen.Prompt != "" {
				fmt.Fprintf(out, "Prompt:  %s\n", gen.Prompt)
			}
			if gen.NegativePrompt != "" {
				fmt.Fprintf(out, "Negative: %s\n", gen.NegativePrompt)
			}
			if gen.Params.Width > 0 {
				fmt.Fprintf(out, "Size:    %dx%d\n", gen.Params.Width, gen.Params.Height)
			}
			if gen.Params.Seed != nil {
				fmt.Fprintf(out, "Seed:    %d\n", *gen.Params.Seed)
			}
			if gen.Error != "" {
				fmt.Fprintf(out, "Error:   %s\n", gen.Error)
			}
			for _, image := range gen.Images {
				fmt.Fprintf(out, "Image:   %s\n", image)
			}
			return nil
		},
	}
}

func newQueueCancelCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <jobID>",
		Short: "Cancel an active job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.CancelJob(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancellation requested for %s\n", args[0])
			return nil
		},
	}
}

func newQueueCancelAllCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-all",
		Short: "Cancel every active job",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.CancelAll(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cancelled %d job(s)\n", resp.Cancelled)
			return nil
		},
	}
}

func newQueueRetryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "retry <jobID>",
		Short: "Resubmit a failed or cancelled job as a new one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			gen, err := client.GetGeneration(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			view, err := ctx.queueView()
			if err != nil {
				return err
			}
			result, err := view.Retry(cmd.Context(), gen.Job)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), result.Summary())
			return nil
		},
	}
}

func newQueueDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <jobID>",
		Short: "Delete one job record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			if err := client.DeleteGeneration(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func newQueueClearCommand(ctx *commandContext) *cobra.Command {
	var deleteFiles bool
	var force bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every job record",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !force {
				label := "job records"
				if deleteFiles {
					label = "job records and stored image files"
				}
				fmt.Fprintf(out, "This removes all %s. Continue? [y/N]: ", label)
				var answer string
				fmt.Fscanln(cmd.InOrStdin(), &answer)
				if !strings.EqualFold(strings.TrimSpace(answer), "y") {
					fmt.Fprintln(out, "Aborted")
					return nil
				}
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.DeleteAllGenerations(cmd.Context(), deleteFiles)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Deleted %d job record(s)\n", resp.Deleted)
			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteFiles, "delete-files", false, "Also delete stored image files")
	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")
	return cmd
}
