package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/c360studio/actionmark/docs"
)

func docsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Documentation maintenance utilities",
	}

	cmd.AddCommand(docsConvertCmd())
	cmd.AddCommand(docsRenameCmd())
	cmd.AddCommand(docsHeadersCmd())

	return cmd
}

func docsConvertCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "convert <file.html>",
		Short: "Convert an HTML document to Markdown",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}

			result, err := docs.ConvertHTML(content)
			if err != nil {
				return fmt.Errorf("convert %s: %w", args[0], err)
			}

			if output == "" {
				fmt.Println(result.Markdown)
				return nil
			}
			if err := os.WriteFile(output, []byte(result.Markdown+"\n"), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			fmt.Printf("Converted %q to %s\n", result.Title, output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

func docsRenameCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rename <dir>",
		Short: "Rename Markdown files to kebab-case and fix links",
		Long: `Rename converts every Markdown filename under the directory to
kebab-case, then rewrites relative links in the remaining Markdown files to
point at the new names.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]

			renames, err := collectRenames(dir)
			if err != nil {
				return err
			}
			if len(renames) == 0 {
				fmt.Println("All filenames already kebab-case")
				return nil
			}

			for old, updated := range renames {
				fmt.Printf("%s -> %s\n", old, updated)
				if dryRun {
					continue
				}
				if err := os.Rename(filepath.Join(dir, old), filepath.Join(dir, updated)); err != nil {
					return fmt.Errorf("rename %s: %w", old, err)
				}
			}
			if dryRun {
				return nil
			}

			return rewriteDirLinks(dir, renames)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show renames without applying them")

	return cmd
}

// collectRenames maps Markdown filenames in dir to their kebab-case form,
// omitting files that are already canonical.
func collectRenames(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	renames := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			continue
		}
		kebab := docs.KebabFilename(entry.Name())
		if kebab != entry.Name() {
			renames[entry.Name()] = kebab
		}
	}
	return renames, nil
}

func rewriteDirLinks(dir string, renames map[string]string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		updated := docs.RewriteLinks(string(content), renames)
		if updated == string(content) {
			continue
		}
		if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return nil
}

func docsHeadersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "headers <file.md>...",
		Short: "Rewrite Markdown headers to sentence case",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				updated := docs.SentenceCaseHeaders(string(content))
				if updated == string(content) {
					continue
				}
				if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", path, err)
				}
				fmt.Printf("Updated headers in %s\n", path)
			}
			return nil
		},
	}
}
