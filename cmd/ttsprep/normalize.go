package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/example/go-ttsprep/internal/text"
)

func newNormalizeCmd() *cobra.Command {
	var file string
	var lines bool
	var workers int

	cmd := &cobra.Command{
		Use:   "normalize [text...]",
		Short: "Normalize text for the speech model's vocabulary",
		Long: "Normalize text given as arguments, read from --file, or piped on stdin.\n" +
			"Unsupported characters are listed and the command exits non-zero.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := requireConfig(); err != nil {
				return err
			}

			input, err := readNormalizeInput(args, file, cmd.InOrStdin())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if !lines {
				normalized, err := text.Normalize(input)
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, normalized)
				return err
			}

			results, err := text.NormalizeAll(cmd.Context(), splitLines(input), workers)
			if err != nil {
				var batchErr *text.BatchError
				if errors.As(err, &batchErr) {
					return fmt.Errorf("line %d: %w", batchErr.Index+1, batchErr.Err)
				}
				return err
			}
			for _, r := range results {
				if _, err := fmt.Fprintln(out, r); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read text from file ('-' for stdin)")
	cmd.Flags().BoolVar(&lines, "lines", false, "Normalize each input line independently")
	cmd.Flags().IntVar(&workers, "workers", runtime.GOMAXPROCS(0), "Concurrent workers for --lines")

	return cmd
}

func readNormalizeInput(args []string, file string, stdin io.Reader) (string, error) {
	if len(args) > 0 && file != "" {
		return "", errors.New("give text arguments or --file, not both")
	}

	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	var (
		b   []byte
		err error
	)
	switch file {
	case "", "-":
		b, err = io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
	default:
		b, err = os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", file, err)
		}
	}

	if len(b) == 0 {
		return "", errors.New("either provide text arguments, --file, or pipe text on stdin")
	}
	return string(b), nil
}

// splitLines drops the final line terminator so a trailing newline does not
// yield an extra empty result.
func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
