package testutil

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/onsi/gomega/gexec"
)

// DefaultTimeout bounds a single CLI invocation.
const DefaultTimeout = 30 * time.Second

// TestCLI wraps a compiled hmkconf binary for testing
type TestCLI struct {
	Binary string
	Home   string
	env    []string
}

// TestCLIOption configures TestCLI
type TestCLIOption func(*testCLIConfig)

type testCLIConfig struct {
	envFile string
}

// WithEnvFile sets the .env file to load
func WithEnvFile(path string) TestCLIOption {
	return func(c *testCLIConfig) {
		c.envFile = path
	}
}

// BuildCLI compiles the hmkconf binary. Call CleanupBuilds when done.
func BuildCLI(opts ...TestCLIOption) (*TestCLI, error) {
	cfg := &testCLIConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	// Load environment variables
	if cfg.envFile != "" {
		_ = godotenv.Load(cfg.envFile)
	} else {
		_ = godotenv.Load("../../.env")
	}

	binary, err := gexec.Build("github.com/vermilion00/libhmk/cmd/hmkconf")
	if err != nil {
		return nil, fmt.Errorf("failed to build hmkconf: %w", err)
	}

	// Isolated home so no user config leaks into the run
	home, err := os.MkdirTemp("", "hmkconf-home-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp home: %w", err)
	}

	env := []string{
		"HOME=" + home,
		"XDG_CONFIG_HOME=" + filepath.Join(home, ".config"),
		"NO_COLOR=1",
	}
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		switch {
		case name == "HOME", name == "XDG_CONFIG_HOME", strings.HasPrefix(name, "HMKCONF_"):
			continue
		}
		env = append(env, kv)
	}

	return &TestCLI{Binary: binary, Home: home, env: env}, nil
}

// Start runs hmkconf in dir with args and returns the running session.
func (c *TestCLI) Start(dir string, args ...string) (*gexec.Session, error) {
	cmd := exec.Command(c.Binary, args...)
	cmd.Dir = dir
	cmd.Env = c.env
	return gexec.Start(cmd, nil, nil)
}

// Run runs hmkconf in dir and waits for it to exit.
func (c *TestCLI) Run(dir string, args ...string) (*gexec.Session, error) {
	s, err := c.Start(dir, args...)
	if err != nil {
		return nil, err
	}
	s.Wait(DefaultTimeout)
	return s, nil
}

// Cleanup removes the temp home and the compiled binary
func (c *TestCLI) Cleanup() {
	os.RemoveAll(c.Home)
	gexec.CleanupBuildArtifacts()
}
