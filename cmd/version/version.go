// Package versioncmder
package versioncmder

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/ledgerview/pkg/utils"
)

type VersionCommander struct {
	json bool
}

// VersionInfo is the --json form of the version output.
type VersionInfo struct {
	Version   string `json:"version"`
	Sha       string `json:"sha"`
	Buildtime string `json:"buildtime"`
}

func NewVersionCmd() *cobra.Command {
	cmder := &VersionCommander{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "displays version",
		Long:  "displays the version of this CLI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.json, _ = cmd.Flags().GetBool("json")
			return cmder.run(cmd)
		},
	}

	return cmd
}

func (c *VersionCommander) run(cmd *cobra.Command) error {
	if c.json {
		return json.NewEncoder(cmd.OutOrStdout()).Encode(VersionInfo{
			Version:   utils.Version,
			Sha:       utils.Sha,
			Buildtime: utils.Buildtime,
		})
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\nSha: %s\nBuilt at: %s\n", utils.Version, utils.Sha, utils.Buildtime)
	return nil
}
