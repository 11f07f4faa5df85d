/*
Copyright © 2025 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/
package cmd

import (
	"context"
	"os"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"inkwell.dev/typeset/lsp"
)

// lspCmd runs the watched compile actor with an LSP front end feeding it
// editor-originated shadow edits over stdio.
var lspCmd = &cobra.Command{
	Use:   "lsp",
	Short: "Launch an LSP server feeding editor edits into the compile actor",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Redirect all pterm output to stderr immediately to prevent LSP
		// stdout contamination.
		pterm.SetDefaultOutput(os.Stderr)

		projectDir := viper.GetString("projectDir")
		a, client := newActor(projectDir, true)

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		actorDone := make(chan error, 1)
		go func() {
			_, err := a.Run(ctx)
			actorDone <- err
		}()

		server := lsp.NewServer(client)
		err := server.Run()
		cancel()
		<-actorDone
		return err
	},
}

func init() {
	rootCmd.AddCommand(lspCmd)
}
