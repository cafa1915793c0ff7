package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/InfinitIQFlow/AltDump/internal/config"
	"github.com/InfinitIQFlow/AltDump/internal/model"
)

func newIngestTextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest-text [text]",
		Short: "Ingest typed or pasted plain text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			eng, closeFn, err := openEngine(cfg)
			if err != nil {
				return fmt.Errorf("open vault: %w", err)
			}
			defer closeFn()

			item, err := eng.IngestText(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printItem(cmd, item)
			return nil
		},
	}
}

func newIngestLinkCmd() *cobra.Command {
	var title string
	cmd := &cobra.Command{
		Use:   "ingest-link [url]",
		Short: "Ingest a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			eng, closeFn, err := openEngine(cfg)
			if err != nil {
				return fmt.Errorf("open vault: %w", err)
			}
			defer closeFn()

			item, err := eng.IngestLink(cmd.Context(), args[0], title)
			if err != nil {
				return err
			}
			printItem(cmd, item)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "optional link title")
	return cmd
}

func newIngestFileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest-file [path]",
		Short: "Ingest a dropped file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			eng, closeFn, err := openEngine(cfg)
			if err != nil {
				return fmt.Errorf("open vault: %w", err)
			}
			defer closeFn()

			item, err := eng.IngestFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printItem(cmd, item)
			return nil
		},
	}
}

func newSearchCmd() *cobra.Command {
	var k int
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the vault",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			eng, closeFn, err := openEngine(cfg)
			if err != nil {
				return fmt.Errorf("open vault: %w", err)
			}
			defer closeFn()

			items, err := eng.Search(cmd.Context(), args[0], k)
			if err != nil {
				return err
			}
			for _, item := range items {
				printItem(cmd, item)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&k, "k", 10, "maximum number of results")
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every item in the vault",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			eng, closeFn, err := openEngine(cfg)
			if err != nil {
				return fmt.Errorf("open vault: %w", err)
			}
			defer closeFn()

			items, err := eng.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, item := range items {
				printItem(cmd, item)
			}
			return nil
		},
	}
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete [id]",
		Short: "Delete an item by id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			eng, closeFn, err := openEngine(cfg)
			if err != nil {
				return fmt.Errorf("open vault: %w", err)
			}
			defer closeFn()

			return eng.Delete(cmd.Context(), args[0])
		},
	}
}

func printItem(cmd *cobra.Command, item model.Item) {
	damaged := ""
	if item.Damaged() {
		damaged = " [damaged]"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\t%s%s\n", item.ID, item.Kind, item.Category, item.Title, damaged)
}
