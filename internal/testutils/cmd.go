package testutils

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
)

// FlagTestCase describes a cobra flag expected on a command.
type FlagTestCase struct {
	Name           string
	Short          string
	Default        string
	PersistentFlag bool
	Filename       bool
}

// AssertFlag checks that cmd carries the flag described by tc.
func AssertFlag(t *testing.T, cmd *cobra.Command, tc FlagTestCase) {
	t.Helper()

	var flag *pflag.Flag
	if tc.PersistentFlag {
		flag = cmd.PersistentFlags().Lookup(tc.Name)
	} else {
		flag = cmd.Flags().Lookup(tc.Name)
	}
	if !assert.NotNil(t, flag, "flag %q should exist", tc.Name) {
		return
	}

	assert.Equal(t, tc.Short, flag.Shorthand, "unexpected shorthand for flag %q", tc.Name)
	assert.Equal(t, tc.Default, flag.DefValue, "unexpected default for flag %q", tc.Name)

	if tc.Filename {
		assert.NotNil(t, flag.Annotations[cobra.BashCompFilenameExt], "flag %q should complete file names", tc.Name)
	} else {
		assert.Nil(t, flag.Annotations[cobra.BashCompFilenameExt], "flag %q should not complete file names", tc.Name)
	}
}
