// apiclient/violations.go
package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tvmsuite/console/httpclient"
	"github.com/tvmsuite/console/model"
)

// ViolationsClient wraps the /violations resource group.
type ViolationsClient struct {
	client *httpclient.Client
}

func NewViolationsClient(client *httpclient.Client) *ViolationsClient {
	return &ViolationsClient{client: client}
}

func (v *ViolationsClient) List(ctx context.Context, filter model.ViolationFilter) (*model.ViolationPage, error) {
	raw, err := v.client.JSON(ctx, http.MethodGet, "/violations", filter.Values(), nil)
	if err != nil {
		return nil, err
	}
	var page model.ViolationPage
	if err := decode("violations", raw, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (v *ViolationsClient) Get(ctx context.Context, id string) (*model.Violation, error) {
	raw, err := v.client.JSON(ctx, http.MethodGet, "/violations/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}
	var violation model.Violation
	if err := decode("violations", raw, &violation); err != nil {
		return nil, err
	}
	return &violation, nil
}

func (v *ViolationsClient) Create(ctx context.Context, input model.ViolationInput) (*model.Violation, error) {
	raw, err := v.client.JSON(ctx, http.MethodPost, "/violations", nil, input)
	if err != nil {
		return nil, err
	}
	var violation model.Violation
	if err := decode("violations", raw, &violation); err != nil {
		return nil, err
	}
	return &violation, nil
}

func (v *ViolationsClient) Update(ctx context.Context, id string, input model.ViolationInput) (*model.Violation, error) {
	raw, err := v.client.JSON(ctx, http.MethodPut, "/violations/"+url.PathEscape(id), nil, input)
	if err != nil {
		return nil, err
	}
	var violation model.Violation
	if err := decode("violations", raw, &violation); err != nil {
		return nil, err
	}
	return &violation, nil
}

func (v *ViolationsClient) Delete(ctx context.Context, id string) error {
	raw, err := v.client.JSON(ctx, http.MethodDelete, "/violations/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return err
	}
	return decode("violations", raw, nil)
}

func (v *ViolationsClient) Stats(ctx context.Context) (*model.ViolationStats, error) {
	raw, err := v.client.JSON(ctx, http.MethodGet, "/violations/stats/overview", nil, nil)
	if err != nil {
		return nil, err
	}
	var stats model.ViolationStats
	if err := decode("violation-stats", raw, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// Export streams the raw export file for the given filter. Unlike the
// other operations it returns the payload as-is: the caller turns it
// into a local file artifact. The second return is the
// server-suggested filename, which may be empty.
func (v *ViolationsClient) Export(ctx context.Context, filter model.ViolationFilter) ([]byte, string, error) {
	return v.client.Stream(ctx, "/violations/export", filter.Values())
}
