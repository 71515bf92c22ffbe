package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads environment variables from the project's .aidev/.env
// and the global ~/.aidev/.env, in that order. godotenv.Load never
// overrides variables already set, so the effective priority is system
// environment, then project file, then global file.
// Missing files are skipped silently; an error means a file exists but
// cannot be parsed.
func LoadDotEnv(projectDir string) error {
	paths := []string{
		filepath.Join(projectDir, AidevDirName, EnvFileName),
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, AidevDirName, EnvFileName))
	}

	for _, path := range paths {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return err
		}
	}
	return nil
}

// LoadDotEnvFromCwd loads .env files relative to the current working
// directory.
func LoadDotEnvFromCwd() error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	return LoadDotEnv(cwd)
}
