package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// EnvHome overrides the default home directory.
const EnvHome = "JET_HOME"

type homeKey struct{}

func WithHome(ctx context.Context, home string) context.Context {
	return context.WithValue(ctx, homeKey{}, home)
}

func HomeFrom(ctx context.Context) (string, bool) {
	home, ok := ctx.Value(homeKey{}).(string)
	return home, ok && home != ""
}

// MustHomeFrom is for commands that run after the root command resolved home.
func MustHomeFrom(ctx context.Context) string {
	home, ok := HomeFrom(ctx)
	if !ok {
		panic("config: jet home not set on context")
	}
	return home
}

// ResolveHome picks the home directory: an explicit override wins, then
// $JET_HOME, then ~/.jet.
func ResolveHome(override string) (string, error) {
	for _, candidate := range []string{override, os.Getenv(EnvHome)} {
		if candidate != "" {
			return filepath.Clean(candidate), nil
		}
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return "", errors.New("config: cannot determine user home directory; set " + EnvHome)
	}
	return filepath.Join(userHome, ".jet"), nil
}

// ProtectedDir holds the database, daemon run files and logs.
func ProtectedDir(home string) string { return filepath.Join(home, "protected") }

// WorkspaceDir is the default source for document imports.
func WorkspaceDir(home string) string { return filepath.Join(home, "workspace") }
