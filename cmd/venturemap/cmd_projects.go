package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"venturemap/internal/catalog"
	"venturemap/internal/export"
	"venturemap/internal/journey"
	"venturemap/internal/plan"
	"venturemap/internal/store"
)

var newCmd = &cobra.Command{
	Use:   "new [name] [idea...]",
	Short: "Create a new project and open the chat",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		name := args[0]
		idea := strings.Join(args[1:], " ")
		id, err := s.Create(cmd.Context(), name, idea)
		s.Close()
		if err != nil {
			return err
		}
		fmt.Printf("Created project %q (%s)\n", name, id)
		return runChat(cmd.Context(), id)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		projects, err := s.List(cmd.Context())
		if err != nil {
			return err
		}
		if len(projects) == 0 {
			fmt.Println("No projects yet. Start one with: venturemap new <name> <idea>")
			return nil
		}
		for _, p := range projects {
			fmt.Printf("%s  %-24s %3.0f%%  %s\n",
				p.ID, p.Name, catalog.Progress(p.Stage)*100, p.Stage)
		}
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open [project]",
	Short: "Open a project's chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		id, err := resolveProject(cmd.Context(), s, args[0])
		s.Close()
		if err != nil {
			return err
		}
		return runChat(cmd.Context(), id)
	},
}

var renameCmd = &cobra.Command{
	Use:   "rename [project] [name]",
	Short: "Rename a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := resolveProject(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}
		if err := s.Rename(cmd.Context(), id, args[1]); err != nil {
			return err
		}
		fmt.Printf("Renamed project to %q\n", args[1])
		return nil
	},
}

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete [project]",
	Short: "Delete a project and all its data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := resolveProject(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}
		p, err := s.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !deleteYes && !confirm(fmt.Sprintf("Delete project %q and all its data?", p.Name)) {
			fmt.Println("Aborted.")
			return nil
		}
		if err := s.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted project %q\n", p.Name)
		return nil
	},
}

var restartYes bool

var restartCmd = &cobra.Command{
	Use:   "restart [project]",
	Short: "Restart a project's journey, keeping only name and initial idea",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := resolveProject(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}
		p, err := s.Get(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !restartYes && !confirm(fmt.Sprintf("Restart project %q? All answers will be discarded.", p.Name)) {
			fmt.Println("Aborted.")
			return nil
		}

		eng := journey.New(journey.Config{
			Store:     s,
			Generator: unavailableGenerator{},
			Locale:    plan.Locale(cfg.Journey.Locale),
			Logger:    logger,
		})
		if err := eng.Open(cmd.Context(), id); err != nil {
			return err
		}
		if err := eng.Restart(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("Restarted project %q\n", p.Name)
		return nil
	},
}

var (
	exportDir    string
	exportFormat string
)

var exportCmd = &cobra.Command{
	Use:   "export [project]",
	Short: "Export a project's business plan (json, csv, html)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		id, err := resolveProject(cmd.Context(), s, args[0])
		if err != nil {
			return err
		}
		written, err := exportProject(cmd.Context(), s, id, exportDir, exportFormat)
		if err != nil {
			return err
		}
		fmt.Printf("Exported %s\n", written)
		return nil
	},
}

// exportProject writes a project's plan to dir and returns a description of
// what was written.
func exportProject(ctx context.Context, s *store.Store, id, dir, format string) (string, error) {
	stage, data, messages, err := s.Load(ctx, id)
	if err != nil {
		return "", err
	}
	doc := export.Document{Stage: stage, Data: data, Messages: messages}

	base := data[plan.KeyProjectName]
	if base == "" {
		base = id
	}
	base = strings.ToLower(strings.ReplaceAll(base, " ", "-"))

	switch format {
	case "all", "":
		if err := export.WriteAll(ctx, dir, base, doc); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s.{json,csv,html} to %s", base, dir), nil
	case "json":
		return exportOne(dir, base+".json", func(f *os.File) error { return export.WriteJSON(f, doc) })
	case "csv":
		return exportOne(dir, base+".csv", func(f *os.File) error { return export.WriteCSV(f, doc.Data) })
	case "html":
		return exportOne(dir, base+".html", func(f *os.File) error { return export.WriteHTML(f, doc.Data) })
	default:
		return "", fmt.Errorf("unknown export format %q", format)
	}
}

func exportOne(dir, name string, write func(*os.File) error) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}

// resolveProject accepts a project id, an id prefix, or an exact name.
func resolveProject(ctx context.Context, s *store.Store, arg string) (string, error) {
	projects, err := s.List(ctx)
	if err != nil {
		return "", err
	}
	var matches []string
	for _, p := range projects {
		if p.ID == arg || p.Name == arg {
			return p.ID, nil
		}
		if strings.HasPrefix(p.ID, arg) {
			matches = append(matches, p.ID)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no project matches %q", arg)
	default:
		return "", fmt.Errorf("%q is ambiguous (%d matches)", arg, len(matches))
	}
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N] ", prompt)
	var answer string
	fmt.Scanln(&answer)
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

// unavailableGenerator backs engine operations that never generate, such as
// restart from the command line.
type unavailableGenerator struct{}

func (unavailableGenerator) GenerateForStage(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (journey.Generated, error) {
	return journey.Generated{}, fmt.Errorf("generation not available")
}

func (unavailableGenerator) GenerateSectionSummary(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale) (string, error) {
	return "", fmt.Errorf("generation not available")
}

func (unavailableGenerator) GenerateSuggestion(ctx context.Context, stage catalog.Stage, data plan.Data, locale plan.Locale, userHint string) (string, error) {
	return "", fmt.Errorf("generation not available")
}

func (unavailableGenerator) RefineText(ctx context.Context, original, instruction string, data plan.Data, locale plan.Locale) (string, error) {
	return "", fmt.Errorf("generation not available")
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
	restartCmd.Flags().BoolVarP(&restartYes, "yes", "y", false, "skip the confirmation prompt")
	exportCmd.Flags().StringVar(&exportDir, "dir", ".", "output directory")
	exportCmd.Flags().StringVar(&exportFormat, "format", "all", "format: all, json, csv, html")
}
