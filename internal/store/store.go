package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"catalog-admin/internal/util"

	"github.com/google/go-github/v66/github"
)

// Store errors. Callers match with errors.Is.
var (
	// ErrNotFound means the document does not exist at the given path.
	ErrNotFound = errors.New("document not found")
	// ErrConflict means the supplied version token no longer matches
	// the stored document. The caller should re-read and retry.
	ErrConflict = errors.New("version token conflict")
)

// DocStore is the path-addressed document store. Every read returns an
// opaque version token; every write of an existing document must
// supply the token it read, or fail closed.
type DocStore interface {
	Get(ctx context.Context, path string) (content []byte, token string, err error)
	Put(ctx context.Context, path string, content []byte, token, message string) error
	Delete(ctx context.Context, path, token, message string) error
	List(ctx context.Context, folder string) ([]string, error)
}

// GitHubStore persists documents as files in a GitHub repository,
// using blob SHAs as version tokens.
type GitHubStore struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

// NewGitHubStore creates a store against the given data repository.
func NewGitHubStore(token, owner, repo, branch string) *GitHubStore {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return &GitHubStore{
		client: client,
		owner:  owner,
		repo:   repo,
		branch: branch,
	}
}

// Get reads a file and its blob SHA.
func (s *GitHubStore) Get(ctx context.Context, path string) ([]byte, string, error) {
	file, _, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, path,
		&github.RepositoryContentGetOptions{Ref: s.branch})
	if err != nil {
		util.StoreOpsTotal.WithLabelValues("get", "error").Inc()
		return nil, "", s.mapError(path, err)
	}
	if file == nil {
		util.StoreOpsTotal.WithLabelValues("get", "error").Inc()
		return nil, "", fmt.Errorf("path is a directory: %s", path)
	}

	content, err := file.GetContent()
	if err != nil {
		util.StoreOpsTotal.WithLabelValues("get", "error").Inc()
		return nil, "", fmt.Errorf("failed to decode %s: %w", path, err)
	}

	util.StoreOpsTotal.WithLabelValues("get", "ok").Inc()
	return []byte(content), file.GetSHA(), nil
}

// Put creates the file when token is empty, otherwise updates the
// blob the token was read from.
func (s *GitHubStore) Put(ctx context.Context, path string, content []byte, token, message string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		Content: content,
		Branch:  github.String(s.branch),
	}

	var err error
	if token == "" {
		_, _, err = s.client.Repositories.CreateFile(ctx, s.owner, s.repo, path, opts)
	} else {
		opts.SHA = github.String(token)
		_, _, err = s.client.Repositories.UpdateFile(ctx, s.owner, s.repo, path, opts)
	}
	if err != nil {
		util.StoreOpsTotal.WithLabelValues("put", "error").Inc()
		return s.mapError(path, err)
	}

	util.StoreOpsTotal.WithLabelValues("put", "ok").Inc()
	return nil
}

// Delete removes the file the token was read from.
func (s *GitHubStore) Delete(ctx context.Context, path, token, message string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.String(message),
		SHA:     github.String(token),
		Branch:  github.String(s.branch),
	}

	if _, _, err := s.client.Repositories.DeleteFile(ctx, s.owner, s.repo, path, opts); err != nil {
		util.StoreOpsTotal.WithLabelValues("delete", "error").Inc()
		return s.mapError(path, err)
	}

	util.StoreOpsTotal.WithLabelValues("delete", "ok").Inc()
	return nil
}

// List returns the paths of the files directly under folder. A missing
// folder lists as empty, matching the Git API contract.
func (s *GitHubStore) List(ctx context.Context, folder string) ([]string, error) {
	_, dir, _, err := s.client.Repositories.GetContents(ctx, s.owner, s.repo, folder,
		&github.RepositoryContentGetOptions{Ref: s.branch})
	if err != nil {
		if errors.Is(s.mapError(folder, err), ErrNotFound) {
			util.StoreOpsTotal.WithLabelValues("list", "ok").Inc()
			return nil, nil
		}
		util.StoreOpsTotal.WithLabelValues("list", "error").Inc()
		return nil, s.mapError(folder, err)
	}

	paths := make([]string, 0, len(dir))
	for _, entry := range dir {
		if entry.GetType() == "file" {
			paths = append(paths, entry.GetPath())
		}
	}

	util.StoreOpsTotal.WithLabelValues("list", "ok").Inc()
	return paths, nil
}

// mapError translates GitHub API failures into store errors.
func (s *GitHubStore) mapError(path string, err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound:
			return fmt.Errorf("%s: %w", path, ErrNotFound)
		case http.StatusConflict, http.StatusUnprocessableEntity:
			return fmt.Errorf("%s: %w", path, ErrConflict)
		}
	}
	return fmt.Errorf("store error on %s: %w", path, err)
}
