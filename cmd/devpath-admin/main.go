package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/devpath-io/devpath-service/internal/config"
	"github.com/devpath-io/devpath-service/internal/models"
	"github.com/devpath-io/devpath-service/internal/repositories"
	"github.com/devpath-io/devpath-service/internal/repositories/casdoor"
	"github.com/devpath-io/devpath-service/internal/repositories/postgres"
	"github.com/devpath-io/devpath-service/internal/services"
	"github.com/devpath-io/devpath-service/internal/validator"
	"github.com/devpath-io/devpath-service/pkg"
)

// adminContext holds the shared dependencies built once per invocation.
type adminContext struct {
	repo     repositories.Repository
	services services.ServiceManager
	logger   *slog.Logger
}

func main() {
	var ctx adminContext

	rootCmd := &cobra.Command{
		Use:           "devpath-admin",
		Short:         "Operational tooling for the devpath service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.init()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.shutdown()
		},
	}

	rootCmd.AddCommand(
		newUploadAssessmentsCmd(&ctx),
		newPurgeUsersCmd(&ctx),
		newPurgeAttemptsCmd(&ctx),
		newDeleteAssessmentsCmd(&ctx),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (a *adminContext) init() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}

	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB: db,
		CasdoorConfig: casdoor.CasdoorConfig{
			Endpoint:         cfg.Casdoor.Endpoint,
			ClientID:         cfg.Casdoor.ClientID,
			ClientSecret:     cfg.Casdoor.ClientSecret,
			Certificate:      cfg.Casdoor.Cert,
			OrganizationName: cfg.Casdoor.Organization,
			ApplicationName:  cfg.Casdoor.Application,
		},
	})
	if err := repoManager.Initialize(); err != nil {
		return fmt.Errorf("initialize repositories: %w", err)
	}
	a.repo = repoManager.GetRepository()

	sm := services.NewDefaultServiceManager(services.Dependencies{
		DB:        db,
		Repo:      a.repo,
		Logger:    a.logger,
		Validator: validator.New(),
	})
	if err := sm.Initialize(context.Background()); err != nil {
		return fmt.Errorf("initialize services: %w", err)
	}
	a.services = sm

	return nil
}

func (a *adminContext) shutdown() error {
	if a.services != nil {
		return a.services.Shutdown(context.Background())
	}
	return nil
}

// newUploadAssessmentsCmd imports assessment catalog documents from JSON
// files. A directory argument imports every .json file in it.
func newUploadAssessmentsCmd(a *adminContext) *cobra.Command {
	var overwrite, validateOnly bool

	cmd := &cobra.Command{
		Use:   "upload-assessments <file-or-dir>...",
		Short: "Import assessment catalog documents from JSON files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := collectJSONFiles(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no .json files found")
			}

			req := &models.ImportAssessmentsRequest{
				Overwrite:    overwrite,
				ValidateOnly: validateOnly,
			}

			for _, path := range paths {
				f, err := os.Open(path)
				if err != nil {
					return fmt.Errorf("open %s: %w", path, err)
				}

				result, err := a.services.ImportExport().ImportAssessments(cmd.Context(), f, req, "admin-cli")
				f.Close()
				if err != nil {
					return fmt.Errorf("import %s: %w", path, err)
				}

				fmt.Printf("%s: imported=%d updated=%d skipped=%d\n", path, result.Imported, result.Updated, result.Skipped)
				for _, ve := range result.Errors {
					fmt.Printf("  %s %s: %s\n", ve.Slug, ve.Field, ve.Message)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "replace existing assessments with the same base slug")
	cmd.Flags().BoolVar(&validateOnly, "validate-only", false, "validate the documents without writing anything")
	return cmd
}

// newPurgeUsersCmd removes profile rows matching a predicate, currently
// only the incomplete-profile one (no course or no year level). Incomplete
// attempts of a purged user are removed in the same transaction.
func newPurgeUsersCmd(a *adminContext) *cobra.Command {
	var incomplete, dryRun bool

	cmd := &cobra.Command{
		Use:   "purge-users",
		Short: "Delete user profiles matching a predicate",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !incomplete {
				return fmt.Errorf("--incomplete is required, no other predicate is supported")
			}

			ctx := cmd.Context()
			var purged []string

			err := a.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
				ids, err := txRepo.Profile().ListIDs(ctx, nil)
				if err != nil {
					return err
				}

				for _, id := range ids {
					profile, err := txRepo.Profile().GetByID(ctx, nil, id)
					if err != nil {
						return fmt.Errorf("load profile %s: %w", id, err)
					}
					if profile.Course != "" && profile.YearLevel != 0 {
						continue
					}

					purged = append(purged, id)
					if dryRun {
						continue
					}

					if _, err := txRepo.Result().DeleteIncompleteByStudent(ctx, nil, id); err != nil {
						return fmt.Errorf("delete attempts for %s: %w", id, err)
					}
					if err := txRepo.Profile().Delete(ctx, nil, id); err != nil {
						return fmt.Errorf("delete profile %s: %w", id, err)
					}
				}
				return nil
			})
			if err != nil {
				return err
			}

			verb := "deleted"
			if dryRun {
				verb = "would delete"
			}
			fmt.Printf("%s %d incomplete profiles\n", verb, len(purged))
			for _, id := range purged {
				fmt.Println(" ", id)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&incomplete, "incomplete", false, "purge profiles without a course or year level")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "list matching profiles without deleting them")
	return cmd
}

// newPurgeAttemptsCmd removes stale in-progress and abandoned attempts.
func newPurgeAttemptsCmd(a *adminContext) *cobra.Command {
	var studentID string
	var allStudents bool

	cmd := &cobra.Command{
		Use:   "purge-attempts",
		Short: "Delete incomplete attempts for a student or the whole cohort",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (studentID == "") == (!allStudents) {
				return fmt.Errorf("exactly one of --student or --all is required")
			}

			ctx := cmd.Context()
			var total int64

			err := a.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
				ids := []string{studentID}
				if allStudents {
					var err error
					ids, err = txRepo.Profile().ListIDs(ctx, nil)
					if err != nil {
						return err
					}
				}

				for _, id := range ids {
					n, err := txRepo.Result().DeleteIncompleteByStudent(ctx, nil, id)
					if err != nil {
						return fmt.Errorf("purge attempts for %s: %w", id, err)
					}
					total += n
				}
				return nil
			})
			if err != nil {
				return err
			}

			fmt.Printf("deleted %d incomplete attempts\n", total)
			return nil
		},
	}

	cmd.Flags().StringVar(&studentID, "student", "", "purge attempts for a single student id")
	cmd.Flags().BoolVar(&allStudents, "all", false, "purge incomplete attempts for every known student")
	return cmd
}

// newDeleteAssessmentsCmd removes assessments and their recorded results
// by slug. Unlike the API delete, this also removes completed results, so
// it is guarded behind an explicit --force flag.
func newDeleteAssessmentsCmd(a *adminContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete-assessments <slug>...",
		Short: "Delete assessments and all of their results by slug",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				return fmt.Errorf("refusing to delete recorded results without --force")
			}

			ctx := cmd.Context()
			for _, slug := range args {
				err := a.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
					assessment, err := txRepo.Assessment().GetBySlug(ctx, nil, slug)
					if err != nil {
						return fmt.Errorf("lookup %s: %w", slug, err)
					}

					results, err := txRepo.Result().DeleteByAssessmentSlug(ctx, nil, slug)
					if err != nil {
						return fmt.Errorf("delete results for %s: %w", slug, err)
					}

					if err := txRepo.Question().DeleteByAssessment(ctx, nil, assessment.ID); err != nil {
						return fmt.Errorf("delete questions for %s: %w", slug, err)
					}
					if err := txRepo.Assessment().Delete(ctx, nil, assessment.ID); err != nil {
						return fmt.Errorf("delete assessment %s: %w", slug, err)
					}

					fmt.Printf("%s: deleted assessment and %d results\n", slug, results)
					return nil
				})
				if err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "confirm deletion of recorded results")
	return cmd
}

func collectJSONFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}

		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}

		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			paths = append(paths, filepath.Join(arg, entry.Name()))
		}
	}
	return paths, nil
}
