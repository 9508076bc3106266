package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Read messages from stdin, one per line.",
	RunE: func(c *cobra.Command, args []string) error {
		s, err := openSession()
		if err != nil {
			return err
		}
		defer s.close()

		out := c.OutOrStdout()
		fmt.Fprintf(out, "Prefix is %q. Ctrl+D to quit.\n", s.app.Settings.ResolvePrefix(who.guild))

		scanner := bufio.NewScanner(c.InOrStdin())
		for scanner.Scan() {
			s.run(c.Context(), out, scanner.Text())
		}
		return scanner.Err()
	},
}
