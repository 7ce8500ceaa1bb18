package form

import (
	"context"

	"github.com/replicatedhq/kots-sub006/internal/appconfig"
	"github.com/replicatedhq/kots-sub006/internal/consoleclient"
)

// ClientValidator adapts a console API client to the Validator interface for
// one (app slug, sequence) pair.
type ClientValidator struct {
	Client   *consoleclient.Client
	AppSlug  string
	Sequence int64
}

// Validate implements Validator via the liveconfig endpoint.
func (v *ClientValidator) Validate(ctx context.Context, groups []appconfig.ConfigGroup) (*LiveResult, error) {
	resp, err := v.Client.LiveConfig(ctx, v.AppSlug, v.Sequence, groups)
	if err != nil {
		return nil, err
	}
	return &LiveResult{
		ConfigGroups:     resp.ConfigGroups,
		ValidationErrors: resp.ValidationErrors,
	}, nil
}

// ClientSaver adapts a console API client to the Saver interface for one
// (app slug, sequence) pair.
type ClientSaver struct {
	Client           *consoleclient.Client
	AppSlug          string
	Sequence         int64
	CreateNewVersion bool
}

// Save implements Saver via the values endpoint.
func (s *ClientSaver) Save(ctx context.Context, groups []appconfig.ConfigGroup) (*SaveResult, error) {
	resp, err := s.Client.SaveConfig(ctx, s.AppSlug, s.Sequence, groups, s.CreateNewVersion)
	if err != nil {
		return nil, err
	}
	return &SaveResult{
		Success:          resp.Success,
		RequiredItems:    resp.RequiredItems,
		Error:            resp.Error,
		ValidationErrors: resp.ValidationErrors,
	}, nil
}
