// Package gitrepo is the narrow version-control surface the updater depends
// on. It shells out to the git binary; nothing here knows about cycles,
// settings, or the controller pack layout.
package gitrepo

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"ukcpup/internal/errors"
)

// CloneResult reports whether a clone was needed.
type CloneResult int

const (
	// AlreadyExists means the destination was already a checkout
	AlreadyExists CloneResult = iota
	// Cloned means a fresh clone was performed
	Cloned
)

// Repo wraps git operations on one local checkout.
type Repo struct {
	Dir    string
	Logger *slog.Logger
}

// IsInstalled checks whether the git binary is on PATH.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// Version returns the installed git version string, or an error wrapping
// MissingCollaboratorTool when git is absent.
func Version() (string, error) {
	out, err := exec.Command("git", "--version").Output()
	if err != nil {
		return "", errors.New(errors.MissingCollaboratorTool, "git is not installed", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// CloneIfAbsent clones url into dest on the given branch unless dest already
// exists, in which case the existing checkout is reused.
func CloneIfAbsent(url, dest, branch string, logger *slog.Logger) (*Repo, CloneResult, error) {
	repo := &Repo{Dir: dest, Logger: logger}

	if _, err := os.Stat(dest); err == nil {
		logger.Info("Repository already cloned", "dir", dest)
		return repo, AlreadyExists, nil
	}

	logger.Info("Cloning repository", "url", url, "dir", dest, "branch", branch)
	cmd := exec.Command("git", "clone", "--branch", branch, url, dest)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, AlreadyExists, fmt.Errorf("failed to clone %s: %s: %w", url, strings.TrimSpace(string(out)), err)
	}

	return repo, Cloned, nil
}

// run executes a git command in the repo directory and returns stdout.
func (r *Repo) run(args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = r.Dir

	out, err := cmd.Output()
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok && len(ee.Stderr) > 0 {
			return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(ee.Stderr)), err)
		}
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}

	return string(out), nil
}

// Checkout switches the working tree to the given ref (branch or tag).
func (r *Repo) Checkout(ref string) error {
	_, err := r.run("checkout", ref)
	return err
}

// Pull fetches and integrates changes from the remote.
func (r *Repo) Pull() error {
	_, err := r.run("pull")
	return err
}

// ListTags returns all tags in creation order; the last entry is the latest.
func (r *Repo) ListTags() ([]string, error) {
	out, err := r.run("tag", "--sort=creatordate")
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			tags = append(tags, line)
		}
	}
	return tags, nil
}

// LatestTag returns the most recently created tag.
func (r *Repo) LatestTag() (string, error) {
	tags, err := r.ListTags()
	if err != nil {
		return "", err
	}
	if len(tags) == 0 {
		return "", fmt.Errorf("repository has no tags")
	}
	return tags[len(tags)-1], nil
}

// Diff returns the unified diff of path between ref and the working tree.
func (r *Repo) Diff(ref, path string) (string, error) {
	return r.run("diff", ref, "--", path)
}

// ChangedFiles returns the paths of files modified in the working tree.
func (r *Repo) ChangedFiles() ([]string, error) {
	out, err := r.run("diff", "--name-only")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			files = append(files, line)
		}
	}
	return files, nil
}

// Stash saves local modifications with the given message.
func (r *Repo) Stash(message string) error {
	_, err := r.run("stash", "push", "-m", message)
	return err
}

// DropAllStashes removes every stash entry, working through the list in
// reverse because git renumbers remaining entries after each drop.
func (r *Repo) DropAllStashes() error {
	out, err := r.run("stash", "list")
	if err != nil {
		return err
	}

	var ids []string
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		} else {
			ids = append(ids, strings.SplitN(line, ":", 2)[0])
		}
	}

	if len(ids) == 0 {
		r.Logger.Info("No stash to delete")
		return nil
	}

	for i := len(ids) - 1; i >= 0; i-- {
		if _, err := r.run("stash", "drop", ids[i]); err != nil {
			r.Logger.Error("Failed to drop stash", "stash", ids[i], "error", err)
			continue
		}
		r.Logger.Debug("Stash dropped", "stash", ids[i])
	}
	return nil
}

// IsDetachedHead reports whether HEAD points at a commit rather than a branch.
func (r *Repo) IsDetachedHead() bool {
	cmd := exec.Command("git", "symbolic-ref", "-q", "HEAD")
	cmd.Dir = r.Dir
	return cmd.Run() != nil
}

// ActiveBranch returns the current branch name, or an error when detached.
func (r *Repo) ActiveBranch() (string, error) {
	out, err := r.run("symbolic-ref", "--short", "-q", "HEAD")
	if err != nil {
		return "", fmt.Errorf("cannot determine active branch: %w", err)
	}
	return strings.TrimSpace(out), nil
}

// TagForHead returns the tag pointing at the current HEAD commit, if any.
// A detached HEAD with no tag is informational, not an error.
func (r *Repo) TagForHead() (string, bool) {
	out, err := r.run("tag", "--points-at", "HEAD")
	if err != nil {
		return "", false
	}
	for _, line := range strings.Split(out, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line, true
		}
	}
	return "", false
}
