package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the configuration file searched for in
// the current directory and the user's home directory.
const ConfigFileName = ".securelex"

// Credentials holds resolved provider credentials. A provider whose
// credential is empty is treated as unconfigured and reported
// diagnostically rather than called.
type Credentials struct {
	// GigaChatKey is the base64 authorization key exchanged for a
	// short-lived access token.
	GigaChatKey string

	// OpenAIKey is the API key sent as a bearer token.
	OpenAIKey string

	// YandexIAMToken is the IAM token sent as a bearer token.
	YandexIAMToken string

	// YandexEndpoint overrides the YandexGPT completion endpoint.
	// Empty means the public Foundation Models endpoint.
	YandexEndpoint string

	// YandexModelURI is the model URI passed to YandexGPT, e.g.
	// gpt://<folder-id>/yandexgpt-lite.
	YandexModelURI string
}

// File is the on-disk shape of the .securelex configuration file.
type File struct {
	// Targets are default URLs to audit when none are given on the
	// command line.
	Targets []string `yaml:"targets"`

	// AIMode is the default provider orchestration policy.
	AIMode string `yaml:"ai_mode"`

	// Level2 enables or disables AI escalation. Pointer so the file
	// can distinguish "unset" from "false".
	Level2 *bool `yaml:"level2"`

	// BatchSize is the default concurrency for URL lists.
	BatchSize int `yaml:"batch_size"`

	// Credentials holds per-provider secrets.
	Credentials FileCredentials `yaml:"credentials"`
}

// FileCredentials is the credentials section of the configuration file.
type FileCredentials struct {
	GigaChatKey    string `yaml:"gigachat_key"`
	OpenAIKey      string `yaml:"openai_key"`
	YandexIAMToken string `yaml:"yandex_iam_token"`
	YandexEndpoint string `yaml:"yandex_endpoint"`
	YandexModelURI string `yaml:"yandex_model_uri"`
}

// LoadConfigFile reads and parses the configuration file at path.
// It returns ErrConfigNotFound when the file does not exist.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &f, nil
}

// FindConfigFile searches for the configuration file in the current
// directory, then in the user's home directory. It returns the path of
// the first file found, or ErrConfigNotFound when neither exists.
func FindConfigFile() (string, error) {
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName, nil
	}

	home, err := os.UserHomeDir()
	if err == nil {
		path := filepath.Join(home, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", ErrConfigNotFound
}

// ApplyFile merges file values into the configuration. File values fill
// gaps only; anything already set (by a CLI flag) wins.
func (c *Config) ApplyFile(f *File) {
	if f == nil {
		return
	}
	if len(c.Targets) == 0 {
		c.Targets = f.Targets
	}
	if f.AIMode != "" {
		c.AIMode = f.AIMode
	}
	if f.Level2 != nil {
		c.Level2 = *f.Level2
	}
	if f.BatchSize > 0 {
		c.BatchSize = f.BatchSize
	}
	c.Credentials = Credentials{
		GigaChatKey:    f.Credentials.GigaChatKey,
		OpenAIKey:      f.Credentials.OpenAIKey,
		YandexIAMToken: f.Credentials.YandexIAMToken,
		YandexEndpoint: f.Credentials.YandexEndpoint,
		YandexModelURI: f.Credentials.YandexModelURI,
	}
}

// ResolveCredentials fills empty credential fields from environment
// variables. File values take precedence so that an explicit
// configuration is never silently overridden by the environment.
func (c *Config) ResolveCredentials() {
	if c.Credentials.GigaChatKey == "" {
		c.Credentials.GigaChatKey = os.Getenv("GIGACHAT_API_KEY")
	}
	if c.Credentials.OpenAIKey == "" {
		c.Credentials.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Credentials.YandexIAMToken == "" {
		c.Credentials.YandexIAMToken = os.Getenv("YANDEX_IAM_TOKEN")
	}
	if c.Credentials.YandexEndpoint == "" {
		c.Credentials.YandexEndpoint = os.Getenv("YANDEX_GPT_ENDPOINT")
	}
	if c.Credentials.YandexModelURI == "" {
		c.Credentials.YandexModelURI = os.Getenv("YANDEX_GPT_MODEL_URI")
	}
}
