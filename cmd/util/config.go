package util

import (
	"path/filepath"
	"strings"

	"github.com/imdario/mergo"
	"github.com/ohsu-comp-bio/fabuq/config"
	"github.com/spf13/pflag"
)

var separators = strings.NewReplacer("-", ".", "_", ".")

// NormalizeFlags makes flag names case and separator insensitive, so
// "--retry-maxresubmissions", "--RETRY_MAXRESUBMISSIONS" and
// "--Retry.MaxResubmissions" are the same flag.
// Use it by passing it to cobra.Command.SetGlobalNormalizationFunc
func NormalizeFlags(f *pflag.FlagSet, name string) pflag.NormalizedName {
	key := strings.ToLower(separators.Replace(name))
	if key == "help" {
		return "help"
	}

	match := name
	f.VisitAll(func(fl *pflag.Flag) {
		if strings.ToLower(separators.Replace(fl.Name)) == key {
			match = fl.Name
		}
	})
	return pflag.NormalizedName(match)
}

// MergeConfigFileWithFlags loads the config file (if any) over the
// defaults, then overrides it with the values set through flags, and
// validates the result.
func MergeConfigFileWithFlags(file string, flagConf config.Config) (config.Config, error) {
	conf := config.DefaultConfig()
	err := config.ParseFile(file, &conf)
	if err != nil {
		return conf, err
	}

	// file vals <- cli val
	err = mergo.MergeWithOverwrite(&conf, flagConf)
	if err != nil {
		return conf, err
	}

	return conf, conf.Validate()
}

// WriteConfigFile writes c as "fabuq.yaml" into dir and returns its path.
func WriteConfigFile(c config.Config, dir string) (string, error) {
	p := filepath.Join(dir, "fabuq.yaml")
	return p, config.ToYamlFile(c, p)
}
