package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"ukcpup/internal/airac"
	"ukcpup/internal/errors"
	"ukcpup/internal/gitrepo"
	"ukcpup/internal/sector"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose updater issues",
	Long: `Check the environment the updater depends on: the git installation, the pack
checkout, the sector file set and the local state directory. Problems are
reported with suggested fixes; nothing is changed.`,
	Run: runDoctor,
}

func init() {
	rootCmd.AddCommand(doctorCmd)
}

func runDoctor(cmd *cobra.Command, args []string) {
	cfg := mustLoadConfig()
	failed := 0
	check := func(name string, err error) {
		if err == nil {
			fmt.Printf("ok\t%s\n", name)
			return
		}
		failed++
		fmt.Printf("FAIL\t%s: %v\n", name, err)
		if uerr, ok := err.(*errors.UpdaterError); ok {
			for _, fix := range uerr.SuggestedFixes {
				if fix.Command != "" {
					fmt.Printf("\tfix: %s\n", fix.Command)
				} else if fix.Description != "" {
					fmt.Printf("\tfix: %s\n", fix.Description)
				}
			}
		}
	}

	gitVersion, gitErr := gitrepo.Version()
	check("git installed", gitErr)
	if gitErr == nil {
		fmt.Printf("\t%s\n", gitVersion)
	}

	check("configuration valid", cfg.Validate())

	workingDir := filepath.Join(cfg.Repo.CloneDir, cfg.Repo.PackDir)
	_, dirErr := os.Stat(workingDir)
	check("controller pack present", dirErr)

	if dirErr == nil {
		sectorPath, sectorErr := sector.Resolve(workingDir)
		check("exactly one sector file", sectorErr)
		if sectorErr == nil {
			if tag, err := airac.NewCalculator().CurrentTag(""); err == nil {
				if sector.IsCurrent(sectorPath, tag) {
					fmt.Printf("ok\tsector file matches release %s\n", tag)
				} else {
					fmt.Printf("warn\tsector file %s does not match release %s\n",
						filepath.Base(sectorPath), tag)
				}
			}
		}
	}

	if failed > 0 {
		fmt.Printf("\n%d check(s) failed\n", failed)
		os.Exit(1)
	}
	fmt.Println("\nAll checks passed")
}
