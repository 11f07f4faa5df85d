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
	"bytes"
	"context"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"inkwell.dev/typeset/accessmodel"
	"inkwell.dev/typeset/accessmodel/cached"
	"inkwell.dev/typeset/accessmodel/trace"
	"inkwell.dev/typeset/actor"
	"inkwell.dev/typeset/cmd/config"
	"inkwell.dev/typeset/compiler/stub"
	"inkwell.dev/typeset/internal/platform"
)

var compileCmd = &cobra.Command{
	Use:   "compile",
	Short: "Run the compile actor once (one-shot, enable_watch=false)",
	RunE: func(cmd *cobra.Command, args []string) error {
		projectDir := viper.GetString("projectDir")
		a, _ := newActor(projectDir, false)
		produced, err := a.Run(context.Background())
		if err != nil {
			return err
		}
		if produced {
			pterm.Success.Println("compiled a document")
		} else {
			pterm.Warning.Println("no document produced")
		}
		return nil
	},
}

// rawContentHook memoises on byte equality and stores file content as-is.
// A real typesetting compiler would compute a parsed form here.
type rawContentHook struct{}

func (rawContentHook) Diff(path string, oldContent, newContent []byte) bool {
	return !bytes.Equal(oldContent, newContent)
}

func (rawContentHook) Compute(path string, content []byte) []byte { return content }

func newActor(projectDir string, enableWatch bool) (*actor.Actor, *actor.Client) {
	cfg := config.Default()
	if err := viper.Unmarshal(cfg); err != nil {
		pterm.Warning.Printf("Invalid configuration, using defaults: %v\n", err)
		cfg = config.Default()
	}
	cfg.EnableWatch = enableWatch
	if cfg.WorkspaceRoot == "" {
		cfg.WorkspaceRoot = projectDir
	}
	if cfg.CacheEvictionThreshold <= 0 {
		cfg.CacheEvictionThreshold = config.DefaultCacheEvictionThreshold
	}

	fs := platform.NewOSFileSystem()
	local := accessmodel.NewLocalAccessModel(fs)
	traced := trace.Wrap(local)
	memo := cached.Wrap(traced, rawContentHook{}, filepath.Join(projectDir, ".typeset-cache"))
	glob := filepath.Join(cfg.WorkspaceRoot, "**", "*.typ")
	compiler := stub.New(memo, cfg.WorkspaceRoot, glob)

	a := actor.New(compiler, actor.Config{
		EnableWatch:            cfg.EnableWatch,
		WorkspaceRoot:          cfg.WorkspaceRoot,
		CacheEvictionThreshold: cfg.CacheEvictionThreshold,
	})
	a.SetEvictor(memo)
	return a, a.NewClient()
}

func init() {
	rootCmd.AddCommand(compileCmd)
}
