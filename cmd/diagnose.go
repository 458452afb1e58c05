// File: cmd/diagnose.go
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/observability"
)

type diagnoseOutput struct {
	File        string               `json:"file"`
	Language    string               `json:"language"`
	Checks      []string             `json:"checks"`
	Diagnostics []schemas.Diagnostic `json:"diagnostics"`
	Count       int                  `json:"count"`
}

func newDiagnoseCmd() *cobra.Command {
	var (
		file     string
		language string
		checks   []string
	)

	diagnoseCmd := &cobra.Command{
		Use:         "diagnose",
		Short:       "Run static checks over a source file and print the findings as JSON",
		Args:        cobra.NoArgs,
		Annotations: stdoutData,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}

			code, err := readSource(file, cmd.InOrStdin())
			if err != nil {
				return err
			}
			lang, err := resolveLanguage(language, file)
			if err != nil {
				return err
			}
			if len(checks) == 0 {
				checks = cfg.Diagnostics().DefaultChecks
			}

			engine := newDiagnosticEngine(cfg, observability.GetLogger())
			diags := engine.Analyze(code, lang, checks)
			if diags == nil {
				diags = []schemas.Diagnostic{}
			}
			return writeJSON(cmd.OutOrStdout(), diagnoseOutput{
				File:        file,
				Language:    lang,
				Checks:      checks,
				Diagnostics: diags,
				Count:       len(diags),
			})
		},
	}

	diagnoseCmd.Flags().StringVarP(&file, "file", "f", "", "source file to check, or - for stdin")
	diagnoseCmd.Flags().StringVarP(&language, "language", "l", "", "source language (default: inferred from the file extension)")
	diagnoseCmd.Flags().StringSliceVar(&checks, "checks", nil, "checks to run: syntax, semantic, style, security, performance, all")
	_ = diagnoseCmd.MarkFlagRequired("file")
	return diagnoseCmd
}

// resolveLanguage prefers the explicit flag and falls back to the extension.
func resolveLanguage(flag, path string) (string, error) {
	if flag != "" {
		return schemas.NormalizeLanguage(flag), nil
	}
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", fmt.Errorf("--language is required when it cannot be inferred from the file name")
	}
	return schemas.NormalizeLanguage(ext), nil
}
