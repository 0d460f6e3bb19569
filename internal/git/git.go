// Package git reads repository state through the git CLI so the user's
// own configuration applies.
package git

import (
	"bytes"
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// Commander runs external commands. Tests substitute a fake.
type Commander interface {
	RunInDir(dir, name string, args ...string) (string, error)
}

// ShellCommander executes real commands.
type ShellCommander struct{}

// RunInDir runs name in dir and returns trimmed stdout. Stderr is folded
// into the error.
func (ShellCommander) RunInDir(dir, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%w: %s", err, msg)
		}
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Client queries one working directory.
type Client struct {
	commander Commander
	workDir   string
}

func NewClient(workDir string) *Client {
	return NewClientWithCommander(workDir, ShellCommander{})
}

func NewClientWithCommander(workDir string, commander Commander) *Client {
	return &Client{commander: commander, workDir: workDir}
}

// IsRepository reports whether workDir is inside a work tree.
func (c *Client) IsRepository() bool {
	_, err := c.commander.RunInDir(c.workDir, "git", "rev-parse", "--is-inside-work-tree")
	return err == nil
}

// CurrentBranch returns the checked-out branch, "HEAD" when detached.
func (c *Client) CurrentBranch() (string, error) {
	out, err := c.commander.RunInDir(c.workDir, "git", "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", fmt.Errorf("get current branch: %w", err)
	}
	return out, nil
}

// trunkBranches never become a PRD's working branch.
var trunkBranches = map[string]bool{"main": true, "master": true, "HEAD": true, "": true}

// PRDBranch picks the branch a PRD's stories are implemented on: the
// current feature branch when there is one, otherwise ralph/<slug>.
func (c *Client) PRDBranch(prdName string) string {
	if c.IsRepository() {
		if b, err := c.CurrentBranch(); err == nil && !trunkBranches[b] {
			return b
		}
	}
	return BranchName(prdName)
}

const maxSlugLen = 50

// BranchName is the conventional Ralph branch for a PRD name.
func BranchName(prdName string) string {
	slug := Slugify(prdName)
	if len(slug) > maxSlugLen {
		slug = strings.TrimSuffix(slug[:maxSlugLen], "-")
	}
	if slug == "" {
		slug = "prd"
	}
	return "ralph/" + slug
}

var (
	nonSlug = regexp.MustCompile(`[^a-z0-9-]`)
	dashes  = regexp.MustCompile(`-+`)
)

// Slugify lowercases s and reduces it to [a-z0-9-].
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.NewReplacer(" ", "-", "_", "-", "/", "-").Replace(s)
	s = nonSlug.ReplaceAllString(s, "")
	s = dashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
