// Package storage is the Storage domain facade.
package storage

import (
	"context"
	"strings"

	"github.com/grantcarthew/cdpctl/internal/cdp"
)

// Domain exposes Storage commands over one connection.
type Domain struct {
	c *cdp.Client
}

// New returns the Storage facade for c.
func New(c *cdp.Client) *Domain {
	return &Domain{c: c}
}

// ClearDataForOrigin clears storage of the given types for origin. With no types,
// "all" is sent.
func (d *Domain) ClearDataForOrigin(ctx context.Context, origin string, storageTypes ...string) error {
	types := "all"
	if len(storageTypes) > 0 {
		types = strings.Join(storageTypes, ",")
	}
	_, err := cdp.Call[struct{}](ctx, d.c, "Storage.clearDataForOrigin", struct {
		Origin       string `json:"origin"`
		StorageTypes string `json:"storageTypes"`
	}{origin, types})
	return err
}
