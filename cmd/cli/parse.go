package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse <message>",
	Short: "Dispatch one message and print its outcome.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(c *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		out := s.run(c.Context(), c.OutOrStdout(), strings.Join(args, " "))
		fmt.Fprintf(c.OutOrStdout(), "outcome: %s\n", out)
		return nil
	},
}
