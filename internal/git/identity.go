package git

import (
	"context"
	"io"

	"github.com/go-git/go-git/v5/config"
)

// Fallback identity used when git has no user configured
const (
	FallbackUserName  = "patchrebase"
	FallbackUserEmail = "patchrebase@localhost.local"
)

// Identity is the author stamped on emitted patches
type Identity struct {
	Name  string
	Email string
	// Fallback is true when one of the fields came from the fallback identity
	Fallback bool
}

func (i Identity) String() string {
	return i.Name + " <" + i.Email + ">"
}

// Streams are the terminal streams handed to interactive git commands
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// Identity reads user.name and user.email from the repository config
// merged with the global config, falling back to a fixed identity
func (r *Repository) Identity(_ context.Context) Identity {
	id := Identity{Name: FallbackUserName, Email: FallbackUserEmail, Fallback: true}

	repo, err := r.open()
	if err != nil {
		return id
	}
	cfg, err := repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return id
	}

	fallback := false
	if cfg.User.Name != "" {
		id.Name = cfg.User.Name
	} else {
		fallback = true
	}
	if cfg.User.Email != "" {
		id.Email = cfg.User.Email
	} else {
		fallback = true
	}
	id.Fallback = fallback
	return id
}

// committerEnv makes commits succeed on machines without a configured git user
func (r *Repository) committerEnv(ctx context.Context) []string {
	id := r.Identity(ctx)
	if !id.Fallback {
		return nil
	}
	return []string{
		"GIT_COMMITTER_NAME=" + id.Name,
		"GIT_COMMITTER_EMAIL=" + id.Email,
	}
}

// authorEnv is committerEnv plus the author fields, for brand new commits
func (r *Repository) authorEnv(ctx context.Context) []string {
	id := r.Identity(ctx)
	if !id.Fallback {
		return nil
	}
	return []string{
		"GIT_AUTHOR_NAME=" + id.Name,
		"GIT_AUTHOR_EMAIL=" + id.Email,
		"GIT_COMMITTER_NAME=" + id.Name,
		"GIT_COMMITTER_EMAIL=" + id.Email,
	}
}
