package main

import (
	"os"

	"github.com/yasube/yasube/cmd/yasube/cmd"
	"github.com/yasube/yasube/internal/common/logging"
	"github.com/yasube/yasube/internal/common/yasubeerrors"
)

func main() {
	err := cmd.RootCmd().Execute()
	if err != nil {
		logging.WithStacktrace(err).Error("yasube failed")
	}
	_ = logging.StdLogger().Sync()
	os.Exit(yasubeerrors.ExitCode(err))
}
