package testutils

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
)

var (
	goCoverDir     string
	goCoverDirOnce sync.Once
)

// AppendCovEnv returns env with the variable enabling coverage of a go binary, if coverage is enabled.
func AppendCovEnv(env []string) []string {
	if CoverDirForTests() == "" {
		return env
	}
	return append(env, fmt.Sprintf("GOCOVERDIR=%s", CoverDirForTests()))
}

// CoverDirForTests parses the test arguments and return the cover profile directory,
// if coverage is enabled.
func CoverDirForTests() string {
	goCoverDirOnce.Do(func() {
		if testing.CoverMode() == "" {
			return
		}

		for _, arg := range os.Args {
			if !strings.HasPrefix(arg, "-test.gocoverdir=") {
				continue
			}
			goCoverDir = strings.TrimPrefix(arg, "-test.gocoverdir=")
		}
	})

	return goCoverDir
}
