package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/johnassefatheeth/pm-f-d/internal/model"
)

type milestoneEnvelope struct {
	Data *struct {
		Milestone *model.Milestone `json:"milestone"`
	} `json:"data"`
}

type reorderRequest struct {
	Milestones []model.OrderEntry `json:"milestones"`
}

func errMissingField(name string) error {
	return fmt.Errorf("response has no %s", name)
}

func milestonesPath(projectID string) string {
	return "/" + url.PathEscape(projectID) + "/milestones"
}

func decodeMilestone(raw []byte) (model.Milestone, error) {
	var env milestoneEnvelope
	if err := decode(raw, &env); err != nil {
		return model.Milestone{}, err
	}
	if env.Data == nil || env.Data.Milestone == nil {
		return model.Milestone{}, &Error{Err: errMissingField("data.milestone")}
	}
	return *env.Data.Milestone, nil
}

func (c *Client) CreateMilestone(ctx context.Context, projectID string, in model.MilestoneInput) (model.Milestone, error) {
	raw, err := c.do(ctx, http.MethodPost, "/{projectId}/milestones", milestonesPath(projectID), in)
	if err != nil {
		return model.Milestone{}, err
	}
	return decodeMilestone(raw)
}

// UpdateMilestone sends only the fields set on patch.
func (c *Client) UpdateMilestone(ctx context.Context, projectID, milestoneID string, patch model.MilestonePatch) (model.Milestone, error) {
	path := milestonesPath(projectID) + "/" + url.PathEscape(milestoneID)
	raw, err := c.do(ctx, http.MethodPatch, "/{projectId}/milestones/{milestoneId}", path, patch)
	if err != nil {
		return model.Milestone{}, err
	}
	return decodeMilestone(raw)
}

// ReorderMilestones submits new orders. The response body is ignored.
func (c *Client) ReorderMilestones(ctx context.Context, projectID string, entries []model.OrderEntry) error {
	if entries == nil {
		entries = []model.OrderEntry{}
	}
	_, err := c.do(ctx, http.MethodPatch, "/{projectId}/milestones", milestonesPath(projectID), reorderRequest{Milestones: entries})
	return err
}
