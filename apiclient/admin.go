// apiclient/admin.go
package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tvmsuite/console/httpclient"
	"github.com/tvmsuite/console/model"
)

// AdminClient wraps the /admin resource group: dashboard, enforcer
// management, settings and repeat-offender analytics.
type AdminClient struct {
	client *httpclient.Client
}

func NewAdminClient(client *httpclient.Client) *AdminClient {
	return &AdminClient{client: client}
}

func (a *AdminClient) Dashboard(ctx context.Context) (*model.DashboardStats, error) {
	raw, err := a.client.JSON(ctx, http.MethodGet, "/admin/dashboard", nil, nil)
	if err != nil {
		return nil, err
	}
	var stats model.DashboardStats
	if err := decode("dashboard", raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (a *AdminClient) ListEnforcers(ctx context.Context) ([]model.Enforcer, error) {
	raw, err := a.client.JSON(ctx, http.MethodGet, "/admin/enforcers", nil, nil)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Enforcers []model.Enforcer `json:"enforcers"`
	}
	if err := decode("enforcers", raw, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Enforcers, nil
}

func (a *AdminClient) CreateEnforcer(ctx context.Context, input model.EnforcerInput) (*model.Enforcer, error) {
	raw, err := a.client.JSON(ctx, http.MethodPost, "/admin/enforcers", nil, input)
	if err != nil {
		return nil, err
	}
	var enforcer model.Enforcer
	if err := decode("enforcers", raw, &enforcer); err != nil {
		return nil, err
	}
	return &enforcer, nil
}

func (a *AdminClient) UpdateEnforcer(ctx context.Context, id string, input model.EnforcerInput) (*model.Enforcer, error) {
	raw, err := a.client.JSON(ctx, http.MethodPut, "/admin/enforcers/"+url.PathEscape(id), nil, input)
	if err != nil {
		return nil, err
	}
	var enforcer model.Enforcer
	if err := decode("enforcers", raw, &enforcer); err != nil {
		return nil, err
	}
	return &enforcer, nil
}

func (a *AdminClient) DeleteEnforcer(ctx context.Context, id string) error {
	raw, err := a.client.JSON(ctx, http.MethodDelete, "/admin/enforcers/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	return decode("enforcers", raw, nil)
}

// NextBadgeNumber prefills the badge field when creating an enforcer.
func (a *AdminClient) NextBadgeNumber(ctx context.Context) (string, error) {
	raw, err := a.client.JSON(ctx, http.MethodGet, "/admin/next-badge-number", nil, nil)
	if err != nil {
		return "", err
	}
	var wrapper struct {
		BadgeNumber string `json:"badge_number"`
	}
	if err := decode("enforcers", raw, &wrapper); err != nil {
		return "", err
	}
	return wrapper.BadgeNumber, nil
}

func (a *AdminClient) GetSettings(ctx context.Context) (*model.Settings, error) {
	raw, err := a.client.JSON(ctx, http.MethodGet, "/admin/settings", nil, nil)
	if err != nil {
		return nil, err
	}
	var settings model.Settings
	if err := decode("settings", raw, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

func (a *AdminClient) UpdateSettings(ctx context.Context, settings model.Settings) (*model.Settings, error) {
	raw, err := a.client.JSON(ctx, http.MethodPut, "/admin/settings", nil, settings)
	if err != nil {
		return nil, err
	}
	var updated model.Settings
	if err := decode("settings", raw, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (a *AdminClient) RepeatOffenders(ctx context.Context, minViolations, limit int) ([]model.RepeatOffender, error) {
	query := url.Values{}
	if minViolations > 0 {
		query.Set("min_violations", strconv.Itoa(minViolations))
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	raw, err := a.client.JSON(ctx, http.MethodGet, "/admin/repeat-offenders", query, nil)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Offenders []model.RepeatOffender `json:"offenders"`
	}
	if err := decode("repeat-offenders", raw, &wrapper); err != nil {
		return nil, err
	}
	return wrapper.Offenders, nil
}
