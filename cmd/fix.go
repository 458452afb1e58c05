// File: cmd/fix.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/remedy/api/schemas"
	"github.com/xkilldash9x/remedy/internal/classifier"
	"github.com/xkilldash9x/remedy/internal/observability"
)

// requestFlags are shared by fix and classify.
type requestFlags struct {
	errorMessage string
	file         string
	language     string
	stackFile    string
	line         int
	context      string
	testCases    []string
}

func (f *requestFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.errorMessage, "error", "e", "", "error message to fix")
	cmd.Flags().StringVarP(&f.file, "file", "f", "", "source file that produced the error, or - for stdin")
	cmd.Flags().StringVarP(&f.language, "language", "l", "", "source language (default: inferred from the file extension)")
	cmd.Flags().StringVar(&f.stackFile, "stack-file", "", "file holding the stack trace")
	cmd.Flags().IntVar(&f.line, "line", 0, "1-based line the error points at")
	cmd.Flags().StringVar(&f.context, "context", "", "free-form context for the model")
	cmd.Flags().StringSliceVar(&f.testCases, "test", nil, "test case the fix must satisfy (repeatable)")
	_ = cmd.MarkFlagRequired("error")
}

func (f *requestFlags) request(cmd *cobra.Command) (schemas.ErrorFixRequest, error) {
	req := schemas.ErrorFixRequest{
		ErrorMessage: f.errorMessage,
		FilePath:     f.file,
		LineNumber:   f.line,
		Context:      f.context,
		TestCases:    f.testCases,
	}
	if f.file != "" {
		code, err := readSource(f.file, cmd.InOrStdin())
		if err != nil {
			return req, err
		}
		req.Code = code
	}
	lang, err := resolveLanguage(f.language, f.file)
	if err != nil {
		return req, err
	}
	req.Language = lang
	if f.stackFile != "" {
		trace, err := readSource(f.stackFile, cmd.InOrStdin())
		if err != nil {
			return req, err
		}
		req.StackTrace = trace
	}
	return req, nil
}

func newFixCmd() *cobra.Command {
	var (
		flags requestFlags
		quick bool
	)

	fixCmd := &cobra.Command{
		Use:         "fix",
		Short:       "Generate, validate and rank fixes for an error and print the result as JSON",
		Args:        cobra.NoArgs,
		Annotations: stdoutData,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			cfg, err := configFrom(cmd)
			if err != nil {
				return err
			}
			req, err := flags.request(cmd)
			if err != nil {
				return err
			}

			c, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer c.Shutdown()

			var result *schemas.RankedFixResult
			if quick {
				result, err = c.Fixer.QuickFix(ctx, req)
			} else {
				result, err = c.Fixer.Fix(ctx, req)
			}
			if err != nil {
				return fmt.Errorf("fix failed: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), result)
		},
	}

	flags.register(fixCmd)
	fixCmd.Flags().BoolVar(&quick, "quick", false, "return a single unvalidated suggestion")
	return fixCmd
}

func newClassifyCmd() *cobra.Command {
	var flags requestFlags

	classifyCmd := &cobra.Command{
		Use:         "classify",
		Short:       "Classify an error without generating fixes and print the analysis as JSON",
		Args:        cobra.NoArgs,
		Annotations: stdoutData,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := configFrom(cmd); err != nil {
				return err
			}
			req, err := flags.request(cmd)
			if err != nil {
				return err
			}
			analysis := classifier.New(observability.GetLogger(), nil).Classify(cmd.Context(), req)
			return writeJSON(cmd.OutOrStdout(), analysis)
		},
	}

	flags.register(classifyCmd)
	return classifyCmd
}
