package cmd

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/sponsornet/settlement-engine/common/errs"
	"github.com/sponsornet/settlement-engine/modules/settlement"
)

var versions = map[string]string{
	"":           settlement.Version,
	"settlement": settlement.Version,
}

type versionCmdOptions struct {
	Module string
}

func NewVersionCommand() *cobra.Command {
	opts := &versionCmdOptions{}

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show sponsord version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return versionHandler(opts, cmd, args)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Module, "module", "", `Show version of a specific module. E.g. "settlement"`)

	return cmd
}

func versionHandler(opts *versionCmdOptions, _ *cobra.Command, _ []string) error {
	version, ok := versions[opts.Module]
	if !ok {
		return errors.Wrap(errs.Unsupported, "Invalid module name")
	}
	fmt.Println(version)
	return nil
}
