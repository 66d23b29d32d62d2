package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/misterclayt0n/mesocoach/internal/cache"
	"github.com/misterclayt0n/mesocoach/internal/engine"
	"github.com/misterclayt0n/mesocoach/internal/models"
	"github.com/misterclayt0n/mesocoach/internal/selection"
	"github.com/misterclayt0n/mesocoach/internal/storage"
	"github.com/misterclayt0n/mesocoach/internal/utils"
)

var (
	genIntent    string
	genBodyParts []string
	genFormat    string
	genTemplate  bool
	genForce     bool
	genDryRun    bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate today's session for an intent (push, pull, legs, upper, lower, full_body, body_part)",
	RunE: func(cmd *cobra.Command, args []string) error {
		switch genFormat {
		case "text", "yaml", "json":
		default:
			return fmt.Errorf("unknown format %q (want text, yaml, or json)", genFormat)
		}

		e, err := loadEnv()
		if err != nil {
			return err
		}
		defer e.close()
		user, err := e.userID()
		if err != nil {
			return err
		}
		if !genDryRun && !genForce && utils.PlanStateExists(e.dir) {
			return errors.New("A plan is already pending: complete or cancel it first (or pass --force)")
		}

		settings, err := engine.SettingsFromConfig(e.cfg)
		if err != nil {
			return fmt.Errorf("invalid [engine] config: %w", err)
		}
		pool, err := cache.NewPoolCache(e.cfg.Cache.Size, time.Duration(e.cfg.Cache.TTLSeconds)*time.Second)
		if err != nil {
			return err
		}

		req := engine.Request{
			UserID:          user,
			Intent:          models.SessionIntent(strings.ToLower(genIntent)),
			TemplateContext: genTemplate,
			Now:             clock(),
		}
		for _, bp := range genBodyParts {
			req.BodyParts = append(req.BodyParts, models.Muscle(strings.ToLower(bp)))
		}

		res, err := engine.New(e.st, pool, settings, e.log).Generate(cmd.Context(), req)
		switch {
		case errors.Is(err, engine.ErrMissingContext):
			return fmt.Errorf("%w (run `mesocoach init <profile.toml>` first)", err)
		case errors.Is(err, selection.ErrNoCompatibleExercises):
			return fmt.Errorf("%w (import a library with `mesocoach import-library`)", err)
		case err != nil:
			return err
		}

		if !genDryRun {
			if err := utils.SavePlanState(e.dir, models.NewPlanState(res.Plan)); err != nil {
				return fmt.Errorf("Failed to save plan state: %w", err)
			}
			if err := e.st.SaveDecisionLogs(cmd.Context(), res.Plan.ID, storage.DecisionsFor(res)...); err != nil {
				return fmt.Errorf("Failed to save decision logs: %w", err)
			}
		}

		switch genFormat {
		case "yaml":
			enc := yaml.NewEncoder(os.Stdout)
			enc.SetIndent(2)
			defer enc.Close()
			return enc.Encode(res)
		case "json":
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		}

		printResult(res)
		if !genDryRun {
			fmt.Println(faint("Log sets with `mesocoach log-set`, then run `mesocoach complete`."))
		}
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVarP(&genIntent, "intent", "i", "", "Session intent")
	generateCmd.Flags().StringSliceVarP(&genBodyParts, "body-part", "b", nil, "Muscles to target (with --intent body_part)")
	generateCmd.Flags().StringVarP(&genFormat, "format", "f", "text", "Output format: text, yaml, or json")
	generateCmd.Flags().BoolVar(&genTemplate, "template", false, "Template context: allow more exercises per session")
	generateCmd.Flags().BoolVar(&genForce, "force", false, "Replace a pending plan")
	generateCmd.Flags().BoolVar(&genDryRun, "dry-run", false, "Print the plan without saving it")
	generateCmd.MarkFlagRequired("intent")
	rootCmd.AddCommand(generateCmd)
}
