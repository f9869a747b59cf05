package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding configuration
// keys, e.g. MWDOCKER_BASE_PORT.
const EnvPrefix = "MWDOCKER"

// Load reads the cluster configuration.
//
// Values are taken from, in increasing priority: built-in defaults, the
// optional config file (e.g. "mwcluster.yaml"), MWDOCKER_* environment
// variables and flags that were set on the command line.
func Load(filename string, flags *pflag.FlagSet) (*ClusterConfig, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if filename != "" {
		v.SetConfigFile(filename)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) {
				return nil, fmt.Errorf("config file %s not found", filename)
			}
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("failed to bind flags: %w", err)
		}
	}

	cfg := DefaultClusterConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	// a designated database container is always an external one
	if cfg.DBContainerName != "" {
		cfg.ExternalDB = true
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultClusterConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("versions", d.Versions)
	v.SetDefault("extensions", d.ExtensionNames)
	v.SetDefault("user", d.User)
	v.SetDefault("prefix", d.Prefix)
	v.SetDefault("logo", d.Logo)
	v.SetDefault("prot", d.Prot)
	v.SetDefault("host", d.Host)
	v.SetDefault("mariadb_version", d.MariaDBVersion)
	v.SetDefault("base_port", d.BasePort)
	v.SetDefault("sql_port", d.BaseSQLPort)
	v.SetDefault("network_name", d.NetworkName)
	v.SetDefault("docker_path", DefaultDockerPath())
	v.SetDefault("uid", d.UID)
	v.SetDefault("gid", d.GID)
	v.SetDefault("verbose", d.Verbose)
	v.SetDefault("lenient", d.Lenient)
	v.SetDefault("password_length", d.PasswordLength)
	v.SetDefault("password", d.Password)
}
