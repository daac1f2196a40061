package config

import "os"

// ResolveEnvPath resolves the dotenv file's location in priority order:
// the --env flag, then DIST_ENV_PATH, then <cwd>/.env.
func ResolveEnvPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv("DIST_ENV_PATH"); v != "" {
		return v, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return cwd + string(os.PathSeparator) + ".env", nil
}
