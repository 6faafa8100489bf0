package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/johnassefatheeth/pm-f-d/internal/model"
)

type projectsEnvelope struct {
	Data struct {
		Projects []model.Project `json:"projects"`
	} `json:"data"`
}

type projectEnvelope struct {
	Data *struct {
		Project *model.Project `json:"project"`
	} `json:"data"`
}

// ListProjects fetches every project visible to the caller.
func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	raw, err := c.do(ctx, http.MethodGet, "/projects", "/projects", nil)
	if err != nil {
		return nil, err
	}
	var env projectsEnvelope
	if err := decode(raw, &env); err != nil {
		return nil, err
	}
	if env.Data.Projects == nil {
		return []model.Project{}, nil
	}
	return env.Data.Projects, nil
}

// CreateProject accepts either the {data:{project}} envelope or a bare
// project body.
func (c *Client) CreateProject(ctx context.Context, in model.ProjectInput) (model.Project, error) {
	raw, err := c.do(ctx, http.MethodPost, "/projects", "/projects", in)
	if err != nil {
		return model.Project{}, err
	}
	var env projectEnvelope
	if err := decode(raw, &env); err != nil {
		return model.Project{}, err
	}
	if env.Data != nil && env.Data.Project != nil {
		return *env.Data.Project, nil
	}
	var bare model.Project
	if err := decode(raw, &bare); err != nil {
		return model.Project{}, err
	}
	return bare, nil
}

// GetProject fetches one project with its embedded milestones. Like
// CreateProject it accepts the envelope or a bare project body.
func (c *Client) GetProject(ctx context.Context, projectID string) (model.Project, error) {
	raw, err := c.do(ctx, http.MethodGet, "/projects/{projectId}", "/projects/"+url.PathEscape(projectID), nil)
	if err != nil {
		return model.Project{}, err
	}
	var env projectEnvelope
	if err := decode(raw, &env); err != nil {
		return model.Project{}, err
	}
	if env.Data != nil && env.Data.Project != nil {
		return *env.Data.Project, nil
	}
	var bare model.Project
	if err := decode(raw, &bare); err != nil {
		return model.Project{}, err
	}
	if bare.ID == "" {
		return model.Project{}, &Error{Err: errMissingField("data.project")}
	}
	return bare, nil
}
