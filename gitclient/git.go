// Package gitclient is a narrow git invocation collaborator: checkout
// a reference into a directory and report the commit it landed on.
// Nothing else about git is exposed to the resolution core. Commands
// run with a sanitized environment (hook-time GIT_DIR/GIT_INDEX_FILE
// leakage is the concrete bug that guards against) and failures wrap
// exec.ExitError with captured stderr.
package gitclient

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/awvwgk/fortran-package-manager/depgraph"
)

// GitError wraps a failed git invocation with its arguments and stderr.
type GitError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *GitError) Error() string {
	return fmt.Sprintf("git %s: %v: %s", strings.Join(e.Args, " "), e.Err, strings.TrimSpace(e.Stderr))
}

func (e *GitError) Unwrap() error { return e.Err }

// Client runs git commands against a working directory.
type Client struct {
	Verbose bool
}

// New returns a Client.
func New() *Client { return &Client{} }

func (c *Client) run(ctx context.Context, dir string, args ...string) (string, error) {
	if c.Verbose {
		fmt.Fprintf(os.Stderr, "[DEBUG] git %s (in %s)\n", strings.Join(args, " "), dir)
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = sanitizedEnv()
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return "", &GitError{Args: args, Stderr: string(exitErr.Stderr), Err: err}
		}
		return "", err
	}
	return strings.TrimRight(string(out), " \t\r\n"), nil
}

// Checkout satisfies depgraph's GitClient interface: clone-or-update
// dir to url at reference. A fresh directory is cloned directly at
// the reference where possible; an existing directory is fetched and
// reset.
func (c *Client) Checkout(ctx context.Context, dir, url string, ref depgraph.GitReference) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		args := []string{"clone", "--quiet", url, dir}
		if ref.Kind == depgraph.GitReferenceBranch || ref.Kind == depgraph.GitReferenceTag {
			args = []string{"clone", "--quiet", "--branch", ref.Value, url, dir}
		}
		if _, err := c.run(ctx, "", args...); err != nil {
			return fmt.Errorf("git clone %s: %w", url, err)
		}
		if ref.Kind == depgraph.GitReferenceRevision {
			if _, err := c.run(ctx, dir, "checkout", "--quiet", ref.Value); err != nil {
				return fmt.Errorf("git checkout %s: %w", ref.Value, err)
			}
		}
		return nil
	}

	if _, err := c.run(ctx, dir, "fetch", "--quiet", "origin"); err != nil {
		return fmt.Errorf("git fetch: %w", err)
	}

	target := "origin/HEAD"
	switch ref.Kind {
	case depgraph.GitReferenceBranch:
		target = "origin/" + ref.Value
	case depgraph.GitReferenceTag, depgraph.GitReferenceRevision:
		target = ref.Value
	}
	if _, err := c.run(ctx, dir, "reset", "--hard", "--quiet", target); err != nil {
		return fmt.Errorf("git reset %s: %w", target, err)
	}
	return nil
}

// CurrentRevision returns the commit the working tree is at.
func (c *Client) CurrentRevision(ctx context.Context, dir string) (string, error) {
	return c.run(ctx, dir, "rev-parse", "HEAD")
}

// sanitizedEnv strips git hook environment variables that would
// otherwise override cmd.Dir and point commands at the wrong
// repository (e.g. when fpm itself runs from inside a git hook).
func sanitizedEnv() []string {
	var env []string
	for _, e := range os.Environ() {
		key := strings.SplitN(e, "=", 2)[0]
		switch strings.ToUpper(key) {
		case "GIT_DIR", "GIT_INDEX_FILE", "GIT_WORK_TREE",
			"GIT_OBJECT_DIRECTORY", "GIT_ALTERNATE_OBJECT_DIRECTORIES":
			continue
		}
		env = append(env, e)
	}
	return env
}
