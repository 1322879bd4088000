package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"keypad-calculator/internal/config"
	"keypad-calculator/internal/keypad"
)

func newRootCmd(in io.Reader, out, errOut io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "keypad",
		Short:         "Pocket calculator driven by key tokens",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.LoadDotEnv()
		},
	}
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	root.AddCommand(newEvalCmd(), newReplCmd())
	return root
}

func newCalculator(notices io.Writer) (*keypad.Calculator, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	opts := append(cfg.KeypadOptions(), keypad.WithNotifier(func(limit int) {
		fmt.Fprintf(notices, "maximum of %d digits reached\n", limit)
	}))
	return keypad.New(opts...), nil
}

func newEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "eval KEY...",
		Short: "Press the keys on a fresh calculator and print the display",
		Example: `  keypad eval 8 + 2 =
  keypad eval 5 ÷ 0 =`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := newCalculator(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			if _, err := calc.PressAll(args); err != nil {
				// the notifier has already reported the digit limit
				if !errors.Is(err, keypad.ErrDigitLimitExceeded) {
					fmt.Fprintln(cmd.ErrOrStderr(), err)
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), calc.Display().Text)
			return nil
		},
	}
}

func newReplCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Read whitespace separated keys from stdin, printing the display after each line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			calc, err := newCalculator(cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			return repl(calc, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
}

// repl keeps going after rejected keys; the digit-limit notice has already
// been written by the calculator's notifier.
func repl(calc *keypad.Calculator, in io.Reader, out, errOut io.Writer) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		keys := keypad.SplitKeys(scanner.Text())
		if len(keys) == 0 {
			continue
		}

		if _, err := calc.PressAll(keys); err != nil && !errors.Is(err, keypad.ErrDigitLimitExceeded) {
			fmt.Fprintln(errOut, err)
		}

		display := calc.Display()
		if display.Compact {
			fmt.Fprintf(out, "%s (compact)\n", display.Text)
		} else {
			fmt.Fprintln(out, display.Text)
		}
	}
	return scanner.Err()
}
