package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"tafahom/internal/config"
	"tafahom/internal/llm"
	"tafahom/internal/profile"
	"tafahom/internal/prompts"
	"tafahom/internal/review"
	"tafahom/internal/store"
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
		Use:   "tafahom-agent [profile-id]",
		Short: "Agent TAFAHOM: évaluation financière d'un profil artiste",
		Long: fmt.Sprintf(`%s

Charge un profil généré par le portail, contextualise les dix questions
d'évaluation, recueille vos analyses notées, puis produit une évaluation
financière et un profil enrichi.

%s
  tafahom-agent                    # choisir un profil dans la liste
  tafahom-agent 20250612143000     # évaluer un profil précis
  tafahom-agent list               # identifiants disponibles`,
			bold("TAFAHOM - Agent Financier"),
			bold("EXEMPLES:")),
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runAgent,
	}

	rootCmd.PersistentFlags().StringP("model", "m", "", "Model identifier (default from config)")
	rootCmd.PersistentFlags().String("base-url", "", "Completion API base URL")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory holding the profile files")

	rootCmd.AddCommand(newListCommand())
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

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lister les profils disponibles",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Listing is a pure filesystem operation, no API key needed.
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if v, _ := cmd.Flags().GetString("data-dir"); v != "" {
				cfg.DataDir = v
			}
			ids, err := filestore.New(cfg.DataDir).List()
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Println(yellow("Aucun profil disponible. Complétez d'abord un entretien sur le portail."))
				return nil
			}
			for _, id := range ids {
				fmt.Println(id)
			}
			return nil
		},
	}
}

func runAgent(cmd *cobra.Command, args []string) error {
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
	reviewer := review.NewReviewer(client, loader, files)

	fmt.Println(bold("TAFAHOM - Agent Financier"))
	fmt.Println()

	id, err := pickProfile(reviewer, args)
	if err != nil {
		return err
	}

	doc, err := reviewer.LoadProfile(id)
	if err != nil {
		var notFound *store.NotFoundError
		if errors.As(err, &notFound) && len(notFound.Available) > 0 {
			fmt.Println(red("Profil introuvable. Identifiants disponibles:"))
			for _, available := range notFound.Available {
				fmt.Println("  " + available)
			}
			return errors.New("profil introuvable")
		}
		return err
	}

	printProfile(id, doc)

	confirm := promptui.Prompt{
		Label:     "Commencer l'évaluation financière",
		IsConfirm: true,
	}
	if _, err := confirm.Run(); err != nil {
		fmt.Println(gray("Évaluation annulée."))
		return nil
	}

	ctx := context.Background()
	fmt.Println(gray("Préparation des questions contextualisées..."))
	questions, err := reviewer.BeginQuestions(ctx)
	if err != nil {
		return err
	}

	if err := collectResponses(reviewer, questions); err != nil {
		return err
	}
	if err := reviewer.Submit(); err != nil {
		return err
	}

	fmt.Println(gray("Génération de l'évaluation financière..."))
	evaluation, err := reviewer.Evaluate(ctx)
	if err != nil {
		return fmt.Errorf("impossible de générer l'évaluation: %w", err)
	}
	printEvaluation(evaluation)

	if pairs, err := reviewer.Comparison(); err == nil {
		printComparison(pairs)
	}

	enrich := promptui.Prompt{
		Label:     "Générer un profil artiste enrichi",
		IsConfirm: true,
	}
	if _, err := enrich.Run(); err != nil {
		return nil
	}

	fmt.Println(gray("Génération du profil enrichi..."))
	enriched, err := reviewer.Enrich(ctx)
	if err != nil {
		return fmt.Errorf("impossible de générer le profil enrichi: %w", err)
	}
	printEnriched(enriched)
	fmt.Println(green(fmt.Sprintf("Profil enrichi sauvegardé (tafahom_profil_enrichi_%s.json)", id)))
	return nil
}

func pickProfile(reviewer *review.Reviewer, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	ids, err := reviewer.ListProfiles()
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", errors.New("aucun profil disponible; complétez d'abord un entretien sur le portail")
	}

	selector := promptui.Select{
		Label: "Profil à évaluer",
		Items: ids,
	}
	_, id, err := selector.Run()
	return id, err
}

func collectResponses(reviewer *review.Reviewer, questions []review.ContextualQuestion) error {
	fmt.Println()
	fmt.Println("Veuillez répondre aux questions suivantes pour évaluer la recevabilité du projet.")
	fmt.Println()

	for i, question := range questions {
		fmt.Printf("%s %s\n", bold(fmt.Sprintf("%d.", i+1)), bold(question.Criterion))
		fmt.Println(cyan(question.Context))
		fmt.Printf("%s %s\n", bold("Question:"), question.Question)

		analysis := promptui.Prompt{
			Label: "Votre analyse",
			Validate: func(input string) error {
				if strings.TrimSpace(input) == "" {
					return errors.New("veuillez saisir une analyse")
				}
				return nil
			},
		}
		text, err := analysis.Run()
		if err != nil {
			return err
		}

		scorePrompt := promptui.Prompt{
			Label: fmt.Sprintf("Note pour %s (0-10)", question.Criterion),
			Validate: func(input string) error {
				score, err := strconv.Atoi(strings.TrimSpace(input))
				if err != nil || score < 0 || score > 10 {
					return errors.New("la note doit être un entier entre 0 et 10")
				}
				return nil
			},
		}
		raw, err := scorePrompt.Run()
		if err != nil {
			return err
		}
		score, _ := strconv.Atoi(strings.TrimSpace(raw))

		if err := reviewer.SetResponse(i, review.Response{Text: text, Score: score}); err != nil {
			return err
		}
		fmt.Println()
	}
	return nil
}

func printProfile(id string, doc *profile.Document) {
	fmt.Printf("%s %s\n", bold("Profil:"), id)
	fmt.Printf("%s %s\n\n", bold("Score IAS du porteur:"), green(fmt.Sprintf("%d/100", doc.Profile.IASScore)))
	fmt.Println(bold("Évaluation du porteur par TAFAHOM-Portail"))
	for _, criterion := range doc.Profile.Criteria {
		fmt.Printf("  %-40s %s\n", criterion.Name, scoreColor(criterion.Score)(fmt.Sprintf("%2d/10", criterion.Score)))
		fmt.Printf("  %s\n", gray(criterion.Comment))
	}
	fmt.Printf("\n%s\n%s\n\n", bold("Synthèse du profil artiste:"), doc.Profile.Summary)
}

func printEvaluation(doc *profile.EvaluationDocument) {
	evaluation := doc.Evaluation
	fmt.Println()
	fmt.Println(bold("Évaluation Financière - Synthèse"))
	fmt.Printf("%s %s\n", bold("Score de recevabilité:"), green(fmt.Sprintf("%d/100", evaluation.GlobalScore)))
	fmt.Printf("%s %s\n\n", bold("Décision:"), decisionColor(evaluation.Decision)(evaluation.Decision))
	for _, criterion := range evaluation.Criteria {
		fmt.Printf("  %-40s %s\n", criterion.Name, scoreColor(criterion.Score)(fmt.Sprintf("%2d/10", criterion.Score)))
		fmt.Printf("  %s\n", gray(criterion.Comment))
	}
	if len(evaluation.Recommendations) > 0 {
		fmt.Printf("\n%s\n", bold("Recommandations:"))
		for _, recommendation := range evaluation.Recommendations {
			fmt.Println("  - " + recommendation)
		}
	}
	fmt.Printf("\n%s\n%s\n", bold("Synthèse:"), evaluation.Summary)
}

func printComparison(pairs []review.ScorePair) {
	fmt.Println()
	fmt.Println(bold("Comparaison IAS vs Recevabilité Financière"))
	for _, pair := range pairs {
		fmt.Printf("  %-40s IAS %s  Financier %s\n", pair.Criterion,
			scoreColor(pair.Symbolic)(fmt.Sprintf("%2d", pair.Symbolic)),
			scoreColor(pair.Financial)(fmt.Sprintf("%2d", pair.Financial)))
	}
}

func printEnriched(doc *profile.EnrichedDocument) {
	enriched := doc.Profile
	fmt.Println()
	fmt.Println(bold("Profil Artiste Enrichi"))
	fmt.Printf("  IAS %d/100   Financier %d/100   Combiné %s\n\n",
		enriched.IASScore, enriched.FinancialScore, green(fmt.Sprintf("%d/100", enriched.CombinedScore)))
	for _, criterion := range enriched.Criteria {
		fmt.Printf("  %-40s %s\n", criterion.Name, scoreColor(criterion.Score)(fmt.Sprintf("%2d/10", criterion.Score)))
		fmt.Printf("  %s\n", gray(criterion.Comment))
		if criterion.FinancialPerspective != "" {
			fmt.Printf("  %s\n", cyan(criterion.FinancialPerspective))
		}
	}
	if len(enriched.ImprovementAreas) > 0 {
		fmt.Printf("\n%s\n", bold("Axes d'amélioration:"))
		for _, area := range enriched.ImprovementAreas {
			fmt.Println("  - " + area)
		}
	}
	fmt.Printf("\n%s\n%s\n", bold("Synthèse du profil enrichi:"), enriched.Summary)
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

func decisionColor(decision string) func(a ...interface{}) string {
	switch decision {
	case profile.DecisionAccept:
		return green
	case profile.DecisionConditional:
		return yellow
	default:
		return red
	}
}
