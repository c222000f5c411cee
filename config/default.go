package config

import (
	"os"
	"path"
	"time"

	"github.com/ohsu-comp-bio/fabuq/logger"
)

// DefaultConfig returns configuration with simple defaults.
func DefaultConfig() Config {
	cwd, _ := os.Getwd()
	workDir := path.Join(cwd, "fabuq-work-dir")

	return Config{
		Tool:            "fabsim",
		Machine:         "localhost",
		VerifyMachine:   "localhost",
		ResubmitCommand: "uq_ensemble",
		FlagFile:        "check.dat",
		Poll: Poll{
			Interval:    Duration(time.Minute),
			HeaderLines: 2,
		},
		Retry: Retry{
			MaxPollRetries:   10,
			MaxResubmissions: 2,
			MaxFetchRetries:  10,
			FetchInterval:    Duration(time.Second * 5),
			FetchMaxInterval: Duration(time.Minute * 2),
		},
		Journal: Journal{
			Path: path.Join(workDir, "fabuq.db"),
		},
		Logger: logger.DefaultConfig(),
	}
}
