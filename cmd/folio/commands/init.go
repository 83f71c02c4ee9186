package commands

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dnnweb/folio/scaffold"
)

// scaffoldData holds the template variables passed to every scaffold template.
type scaffoldData struct {
	SiteName      string
	SiteURL       string
	APIServerURL  string
	SessionSecret string
	ConfigFile    string
}

func initCmd() *cobra.Command {
	data := scaffoldData{ConfigFile: "folio.yaml"}
	var force bool
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a starter folio.yaml and .env.example",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if data.SiteName == "" {
				abs, err := filepath.Abs(dir)
				if err != nil {
					return err
				}
				data.SiteName = toTitle(filepath.Base(abs))
			}
			data.SessionSecret = newSecret()
			return runInit(cmd, dir, data, force)
		},
	}
	cmd.Flags().StringVar(&data.SiteName, "name", "", "site name (default derived from the directory)")
	cmd.Flags().StringVar(&data.SiteURL, "url", "http://localhost:4321", "canonical site URL")
	cmd.Flags().StringVar(&data.APIServerURL, "api", "http://localhost:3000", "content API server URL")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")
	return cmd
}

func runInit(cmd *cobra.Command, dir string, data scaffoldData, force bool) error {
	out := cmd.OutOrStdout()
	root := "templates"

	err := fs.WalkDir(scaffold.Templates, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		outPath := strings.TrimSuffix(filepath.Join(dir, relPath), ".tmpl")
		if filepath.Base(outPath) == "dotenv" {
			outPath = filepath.Join(filepath.Dir(outPath), ".env.example")
		}

		if d.IsDir() {
			return os.MkdirAll(outPath, 0o755)
		}
		if _, err := os.Stat(outPath); err == nil && !force {
			fmt.Fprintf(out, "  skipped %s (exists)\n", outPath)
			return nil
		}

		content, err := scaffold.Templates.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		tmpl, err := template.New(filepath.Base(path)).Parse(string(content))
		if err != nil {
			return fmt.Errorf("parse template %s: %w", path, err)
		}

		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create %s: %w", outPath, err)
		}
		defer f.Close()

		if err := tmpl.Execute(f, data); err != nil {
			return fmt.Errorf("execute template %s: %w", path, err)
		}
		fmt.Fprintf(out, "  created %s\n", outPath)
		return nil
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Done! Next steps:")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "  cp .env.example .env")
	fmt.Fprintln(out, "  folio check")
	fmt.Fprintln(out, "  folio serve")
	return nil
}

// newSecret returns a random session secret.
func newSecret() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// toTitle converts a hyphenated or lowercase name to a title-case string.
// e.g. "my-site" -> "My Site", "folio" -> "Folio"
func toTitle(s string) string {
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if len(p) > 0 {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}
