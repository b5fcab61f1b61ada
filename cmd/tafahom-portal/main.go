package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tafahom/internal/config"
	"tafahom/internal/dialogue"
	"tafahom/internal/llm"
	"tafahom/internal/profile"
	"tafahom/internal/prompts"
	"tafahom/internal/store/filestore"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func isTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, red(err.Error()))
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tafahom-portal",
		Short: "Portail TAFAHOM: entretien guidé pour porteurs de projets culturels",
		Long: fmt.Sprintf(`%s

Conduit un entretien en dix questions avec un porteur de projet artistique
ou culturel, puis traduit ses réponses en un profil structuré (score IAS,
dix critères) transmissible aux institutions de financement.

%s
  tafahom-portal                   # démarre un entretien
  tafahom-portal --data-dir ./out  # fichiers de session dans ./out

%s
  /status       progression de l'entretien
  /transcript   relire la conversation
  /generate     générer le profil (entretien terminé)
  /reset        recommencer avec un nouvel identifiant
  /exit         quitter`,
			bold("TAFAHOM - Portail Artiste"),
			bold("EXEMPLES:"),
			bold("COMMANDES:")),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runPortal,
	}

	rootCmd.PersistentFlags().StringP("model", "m", "", "Model identifier (default from config)")
	rootCmd.PersistentFlags().String("base-url", "", "Completion API base URL")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory for session files")
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if v, _ := cmd.Flags().GetString("model"); v != "" {
		cfg.Model = v
	}
	if v, _ := cmd.Flags().GetString("base-url"); v != "" {
		cfg.BaseURL = v
	}
	if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
		cfg.DataDir = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runPortal(cmd *cobra.Command, args []string) error {
	if !isTTY() {
		return cmd.Help()
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	loader, err := prompts.NewLoader()
	if err != nil {
		return err
	}
	client := llm.NewClient(cfg.Model, llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Timeout: cfg.Timeout,
	})
	files := filestore.New(cfg.DataDir)

	portal, err := dialogue.NewPortal(client, loader, files, files)
	if err != nil {
		return err
	}

	fmt.Println(bold("TAFAHOM - Portail Artiste"))
	fmt.Println(gray("Session " + portal.ID()))
	fmt.Println()
	fmt.Println("Cet espace a été conçu pour vous écouter et comprendre votre projet")
	fmt.Println("artistique ou culturel. Répondez aux questions; tapez /exit pour quitter.")
	fmt.Println()

	greeting, err := portal.Start()
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n\n", cyan("TAFAHOM:"), greeting)

	homeDir, _ := os.UserHomeDir()
	rl, err := readline.NewEx(&readline.Config{
		Prompt:            "> ",
		HistoryFile:       filepath.Join(homeDir, ".tafahom-portal-history"),
		InterruptPrompt:   "^C",
		EOFPrompt:         "/exit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("initialize readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	ctx := context.Background()
	for {
		input, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		} else if err == io.EOF {
			fmt.Println(gray("Au revoir."))
			return nil
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			done, err := handleCommand(ctx, portal, files, input)
			if err != nil {
				fmt.Println(red(err.Error()))
			}
			if done {
				return nil
			}
			continue
		}

		if portal.Ended() && portal.Phase() != dialogue.PhaseProfile {
			fmt.Println(yellow("L'entretien est terminé. Tapez /generate pour créer votre profil."))
			continue
		}
		if portal.Phase() == dialogue.PhaseProfile {
			fmt.Println(yellow("Le profil est déjà généré. Tapez /export ou /reset."))
			continue
		}

		reply, done, err := portal.Reply(ctx, input)
		if err != nil {
			// The apology is already part of the conversation; show it and go on.
			fmt.Printf("%s %s\n\n", cyan("TAFAHOM:"), reply)
			continue
		}
		fmt.Printf("%s %s\n\n", cyan("TAFAHOM:"), reply)

		if done {
			fmt.Println(green("✓ " + dialogue.CompletionNotice))
			fmt.Println(gray("Tapez /generate pour créer votre profil TAFAHOM."))
			fmt.Println()
		}
	}
}

// handleCommand executes a slash command. It reports whether the loop
// should stop.
func handleCommand(ctx context.Context, portal *dialogue.Portal, files *filestore.Store, input string) (bool, error) {
	fields := strings.Fields(input)
	switch fields[0] {
	case "/exit", "/quit", "/q":
		fmt.Println(gray("Au revoir."))
		return true, nil

	case "/status":
		asked, total := portal.QuestionsAsked()
		fmt.Printf("Session:   %s\nPhase:     %s\nQuestions: %d/%d\n\n",
			portal.ID(), portal.Phase(), asked, total)
		return false, nil

	case "/transcript":
		transcript, err := files.Read(portal.ID())
		if err != nil {
			return false, err
		}
		fmt.Println(gray(transcript))
		return false, nil

	case "/reset":
		if err := portal.Reset(); err != nil {
			return false, err
		}
		fmt.Println(green("Nouvelle session: " + portal.ID()))
		greeting, err := portal.Start()
		if err != nil {
			return false, err
		}
		fmt.Printf("%s %s\n\n", cyan("TAFAHOM:"), greeting)
		return false, nil

	case "/generate":
		return false, generateAndExport(ctx, portal)

	case "/export":
		format := profile.FormatJSON
		if len(fields) > 1 {
			format = fields[1]
		}
		return false, exportProfile(portal, format)

	default:
		return false, fmt.Errorf("commande inconnue %s", fields[0])
	}
}

func generateAndExport(ctx context.Context, portal *dialogue.Portal) error {
	if !portal.Ended() {
		asked, total := portal.QuestionsAsked()
		return fmt.Errorf("l'entretien n'est pas terminé (%d/%d questions)", asked, total)
	}

	fmt.Println(gray("Génération de votre profil symbolique en cours..."))
	doc, err := portal.GenerateProfile(ctx)
	if err != nil {
		if errors.Is(err, dialogue.ErrProfileGenerated) {
			return errors.New("le profil est déjà généré; utilisez /export")
		}
		return fmt.Errorf("impossible de générer le profil: %w", err)
	}

	printProfile(doc)

	selector := promptui.Select{
		Label: "Format d'exportation",
		Items: profile.ExportFormats,
	}
	_, format, err := selector.Run()
	if err != nil {
		// Selection aborted; the profile file is already on disk.
		return nil
	}
	return exportProfile(portal, format)
}

func printProfile(doc *profile.Document) {
	fmt.Println()
	fmt.Println(bold("Votre profil TAFAHOM"))
	fmt.Printf("%s %s\n\n", bold("Score IAS:"), green(fmt.Sprintf("%d/100", doc.Profile.IASScore)))
	for _, criterion := range doc.Profile.Criteria {
		fmt.Printf("  %-40s %s\n", criterion.Name, scoreColor(criterion.Score)(fmt.Sprintf("%2d/10", criterion.Score)))
		fmt.Printf("  %s\n", gray(criterion.Comment))
	}
	fmt.Printf("\n%s\n%s\n\n", bold("Synthèse:"), doc.Profile.Summary)
}

func scoreColor(score int) func(a ...interface{}) string {
	switch {
	case score >= 7:
		return green
	case score >= 4:
		return yellow
	default:
		return red
	}
}

func exportProfile(portal *dialogue.Portal, format string) error {
	out, err := portal.Export(format)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("tafahom_profil_%s.%s", portal.ID(), format)
	if err := os.WriteFile(name, []byte(out), 0644); err != nil {
		return fmt.Errorf("écriture de %s: %w", name, err)
	}
	fmt.Println(green("Profil exporté vers " + name))
	return nil
}
