package main

import (
	_ "embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nao1215/ecoaudit/internal/config"
	"github.com/nao1215/ecoaudit/internal/plugin"
	"github.com/spf13/cobra"
)

//go:embed templates/ecoaudit.yaml
var configTemplate []byte

// errConfigExists is returned when init would overwrite a file without --force.
var errConfigExists = errors.New("configuration file already exists")

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create an ecoaudit configuration file",
		Long: `Init writes a commented .ecoaudit configuration file.

The file sets request headers and cookies per site, the ffprobe binary used
by the video-codec audit, an optional SOCKS5 proxy and the weights of the
audits in the sustainability score.

Examples:
  # Create .ecoaudit in the current directory
  ecoaudit init

  # Create the file somewhere else
  ecoaudit init -o ~/.ecoaudit

  # Print the template instead of writing it
  ecoaudit init --stdout`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile, "Path of the configuration file")
	cmd.Flags().BoolP("force", "f", false, "Overwrite an existing file")
	cmd.Flags().Bool("stdout", false, "Print the template to stdout")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	toStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if toStdout {
		_, err := out.Write(configTemplate)
		return err
	}

	if err := writeConfigTemplate(outputPath, force); err != nil {
		return err
	}

	fmt.Fprintf(out, "Created configuration file: %s\n\n", outputPath)
	printDefaultWeights(out)
	return nil
}

// writeConfigTemplate writes the template to path, creating parent
// directories. The file may hold cookies and tokens, so it is private.
func writeConfigTemplate(path string, force bool) error {
	if !force {
		_, err := os.Stat(path)
		switch {
		case err == nil:
			return fmt.Errorf("%w: %s (use -f to overwrite)", errConfigExists, path)
		case !errors.Is(err, fs.ErrNotExist):
			return err
		}
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, configTemplate, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}
	return nil
}

// printDefaultWeights lists the category weights the file starts from.
func printDefaultWeights(w io.Writer) {
	category := plugin.DefaultManifest().Category
	fmt.Fprintf(w, "Default weights of %q:\n", category.Title)
	for _, ref := range category.AuditRefs {
		fmt.Fprintf(w, "  %-24s %g\n", ref.ID, ref.Weight)
	}
}
