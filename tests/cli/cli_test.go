// SPDX-License-Identifier: MPL-2.0

// Package cli contains CLI integration tests using testscript.
//
// The test binary doubles as flatpak-bundler and as fake flatpak and flatpak-builder
// executables, so the scripts exercise real process spawning without a flatpak
// installation.
package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	cmd "flatpak-bundler/cmd/flatpak-bundler"

	"github.com/rogpeppe/go-internal/testscript"
)

const (
	// envLog is the file every fake toolchain invocation is appended to.
	envLog = "FAKE_TOOLCHAIN_LOG"
	// envInstalled lists "scope:ref" pairs reported as installed by flatpak info.
	envInstalled = "FAKE_FLATPAK_INSTALLED"
	// envFail names a subcommand that exits 1.
	envFail = "FAKE_TOOLCHAIN_FAIL"
)

func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"flatpak-bundler": cmd.Execute,
		"flatpak":         fakeFlatpak,
		"flatpak-builder": fakeFlatpakBuilder,
	})
}

// TestCLI runs all testscript tests in the testdata directory.
func TestCLI(t *testing.T) {
	t.Parallel()

	testscript.Run(t, testscript.Params{
		Dir: "testdata",
		Setup: func(env *testscript.Env) error {
			env.Setenv(envLog, filepath.Join(env.WorkDir, "toolchain.log"))
			env.Setenv("XDG_CONFIG_HOME", filepath.Join(env.WorkDir, ".config"))
			return nil
		},
		ContinueOnError: true,
	})
}

// fakeFlatpak answers like a flatpak installation that has only the refs listed in
// FAKE_FLATPAK_INSTALLED. build-bundle writes a small file at the bundle path.
func fakeFlatpak() {
	args := os.Args[1:]
	logInvocation("flatpak", args)
	if len(args) == 0 {
		os.Exit(2)
	}
	failIfRequested(args[0])

	switch args[0] {
	case "info":
		// info --<scope> [--arch=A] <ref>
		scope := strings.TrimPrefix(args[1], "--")
		key := scope + ":" + args[len(args)-1]
		if !slices.Contains(strings.Fields(os.Getenv(envInstalled)), key) {
			fmt.Fprintf(os.Stderr, "error: %s not installed\n", args[len(args)-1])
			os.Exit(1)
		}
		fmt.Println("Ref: app/" + args[len(args)-1])
	case "build-bundle":
		// build-bundle [options] <repo> <file> <id> <branch>
		if err := os.WriteFile(args[len(args)-3], []byte("fake flatpak bundle\n"), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}

func fakeFlatpakBuilder() {
	args := os.Args[1:]
	logInvocation("flatpak-builder", args)
	for _, arg := range args {
		if arg == "--build-only" || arg == "--finish-only" {
			failIfRequested(strings.TrimPrefix(arg, "--"))
		}
	}
}

func logInvocation(binary string, args []string) {
	path := os.Getenv(envLog)
	if path == "" {
		return
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()
	fmt.Fprintln(f, binary+" "+strings.Join(args, " "))
}

func failIfRequested(sub string) {
	if os.Getenv(envFail) == sub {
		fmt.Fprintf(os.Stderr, "error: %s failed\n", sub)
		os.Exit(1)
	}
}
