// Package config holds default constants, the runtime Config struct, and
// the .securelex configuration file loader.
//
// Configuration flows from three sources, in increasing priority:
// built-in defaults, the .securelex YAML file, and CLI flags. Provider
// credentials additionally fall back to environment variables so that
// deployments can keep secrets out of files entirely.
package config
