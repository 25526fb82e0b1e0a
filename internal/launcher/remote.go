package launcher

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
)

// sshRemotePattern matches git@host:owner/repo.git SSH URLs.
var sshRemotePattern = regexp.MustCompile(`^git@[^:]+:([^/]+)/([^/]+?)(?:\.git)?$`)

// FromGitRemote extracts the owner and repo name from the origin remote of
// the repository at repoPath. It supports both HTTPS and SSH remote URLs
// and backs the analyze --from-git convenience flag.
func FromGitRemote(repoPath string) (owner, repo string, err error) {
	gitRepo, err := git.PlainOpen(repoPath)
	if err != nil {
		return "", "", fmt.Errorf("opening repo: %w", err)
	}

	remotes, err := gitRepo.Remotes()
	if err != nil {
		return "", "", fmt.Errorf("listing remotes: %w", err)
	}

	var originURLs []string
	for _, r := range remotes {
		if r.Config().Name == "origin" {
			originURLs = r.Config().URLs
			break
		}
	}
	if len(originURLs) == 0 {
		return "", "", fmt.Errorf("no origin remote found")
	}

	return parseRemoteURL(originURLs[0])
}

// parseRemoteURL parses a forge remote URL (HTTPS or SSH) into owner and repo.
func parseRemoteURL(rawURL string) (owner, repo string, err error) {
	if m := sshRemotePattern.FindStringSubmatch(rawURL); m != nil {
		return m[1], m[2], nil
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", "", fmt.Errorf("parsing URL %q: %w", rawURL, err)
	}

	parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("cannot parse owner/repo from %q", rawURL)
	}

	owner = parts[0]
	repo = strings.TrimSuffix(parts[1], ".git")
	return owner, repo, nil
}
