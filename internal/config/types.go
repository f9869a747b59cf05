package config

import "github.com/sarth-shah20/mwdocker/internal/extension"

// Config is the configuration of a single wiki instance: one MediaWiki
// container plus its database container.
type Config struct {
	Version           string   `mapstructure:"version" json:"version"`
	SMWVersion        string   `mapstructure:"smw_version" json:"smw_version,omitempty"`
	ExtensionNames    []string `mapstructure:"extensions" json:"extensionNameList"`
	ExtensionFile     string   `mapstructure:"extension_file" json:"extensionJsonFile,omitempty"`
	User              string   `mapstructure:"user" json:"user"`
	Prefix            string   `mapstructure:"prefix" json:"prefix"`
	Logo              string   `mapstructure:"logo" json:"logo"`
	URL               string   `mapstructure:"url" json:"url,omitempty"`
	Prot              string   `mapstructure:"prot" json:"prot"`
	Host              string   `mapstructure:"host" json:"host"`
	ArticlePath       string   `mapstructure:"article_path" json:"article_path"`
	ScriptPath        string   `mapstructure:"script_path" json:"script_path"`
	WikiIDOverride    string   `mapstructure:"wiki_id" json:"wikiId,omitempty"`
	MySQLRootPassword string   `mapstructure:"mysql_root_password" json:"mySQLRootPassword,omitempty"`
	MySQLPassword     string   `mapstructure:"mysql_password" json:"mySQLPassword,omitempty"`
	MariaDBVersion    string   `mapstructure:"mariadb_version" json:"mariaDBVersion"`

	// docker settings
	BindMount         bool   `mapstructure:"bind_mount" json:"bind_mount"`
	Port              int    `mapstructure:"-" json:"port"`
	BasePort          int    `mapstructure:"-" json:"base_port"`
	SQLPort           int    `mapstructure:"-" json:"sql_port"`
	ContainerBaseName string `mapstructure:"container_name" json:"container_base_name"`
	DBContainerName   string `mapstructure:"db_container_name" json:"db_container_name"`
	ExternalDB        bool   `mapstructure:"external_db" json:"external_db"`
	NetworkName       string `mapstructure:"network_name" json:"networkName"`
	DockerPath        string `mapstructure:"docker_path" json:"docker_path"`
	UID               int    `mapstructure:"uid" json:"uid"`
	GID               int    `mapstructure:"gid" json:"gid"`

	// build control
	Verbose        bool   `mapstructure:"verbose" json:"verbose"`
	RandomPassword bool   `mapstructure:"random_password" json:"random_password"`
	ForceUser      bool   `mapstructure:"force_user" json:"force_user"`
	Lenient        bool   `mapstructure:"lenient" json:"lenient"`
	PasswordLength int    `mapstructure:"password_length" json:"password_length"`
	ForceRebuild   bool   `mapstructure:"force_rebuild" json:"forceRebuild"`
	Debug          bool   `mapstructure:"debug" json:"debug"`
	Password       string `mapstructure:"password" json:"password"`

	// Extensions is resolved from ExtensionNames and never persisted.
	Extensions extension.Map `mapstructure:"-" json:"-"`

	baseURL string
	fullURL string
}

// ClusterConfig holds the cluster-wide settings from which one Config per
// MediaWiki version is derived.
type ClusterConfig struct {
	Config `mapstructure:",squash"`

	Versions    []string `mapstructure:"versions"`
	BasePort    int      `mapstructure:"base_port"`
	BaseSQLPort int      `mapstructure:"sql_port"`
}
