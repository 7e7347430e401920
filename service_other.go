//go:build !windows

package main

import (
	"errors"

	"github.com/spf13/cobra"
)

var errServiceUnsupported = errors.New("service management is only supported on Windows; use systemd or launchd to run serve")

// RunAsService always reports false outside Windows.
func RunAsService() (bool, error) {
	return false, nil
}

func newServiceCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "service",
		Short: "Manage the Windows service (Windows only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errServiceUnsupported
		},
	}
}
