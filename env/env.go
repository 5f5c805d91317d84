package env

import (
	"bytes"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	Prefix      = "FRAMES"
	DefaultPath = "config.yaml"
)

type Environment struct {
	Config *viper.Viper
	Args   []string

	Env  []string
	path string
}

// New reads the optional YAML config file named by FRAMES_CONFIG (config.yaml
// by default) and overlays FRAMES_* environment variables on it.
func New() (env *Environment, err error) {
	vip := viper.New()
	vip.SetDefault("backend", "auto")
	vip.SetDefault("serve.addr", ":8080")
	vip.SetDefault("log.debug", false)
	vip.SetEnvPrefix(Prefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vip.AutomaticEnv()

	path := os.Getenv(Prefix + "_CONFIG")
	if path == "" {
		path = DefaultPath
	}

	config, err := os.ReadFile(path)
	switch {
	case err == nil:
		vip.SetConfigType("yaml")
		if err = vip.ReadConfig(bytes.NewReader(config)); err != nil {
			return
		}
	case os.IsNotExist(err):
		err = nil
		path = ""
	default:
		return
	}

	env = &Environment{
		path:   path,
		Env:    os.Environ(),
		Args:   os.Args[1:],
		Config: vip,
	}
	return
}

// Path is the config file that was read, empty when none existed.
func (e *Environment) Path() string { return e.path }

// Backend is the configured frame acquisition mode name.
func (e *Environment) Backend() string {
	return strings.ToLower(strings.TrimSpace(e.Config.GetString("backend")))
}

func (e *Environment) Addr() string { return e.Config.GetString("serve.addr") }

func (e *Environment) Debug() bool { return e.Config.GetBool("log.debug") }
