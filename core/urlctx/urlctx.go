// Package urlctx extracts the optional company/site tenant prefix from a
// request path.
package urlctx

import (
	"context"
	"strings"
)

const (
	companyPrefix = "company-"
	sitePrefix    = "site-"
)

type Context struct {
	CompanyID     string
	HasCompany    bool
	SiteID        string
	HasSite       bool
	RemainingPath string
}

// Extract never fails: a path without a recognized prefix comes back with
// RemainingPath set to the path itself.
func Extract(path string) Context {
	trimmed := strings.TrimPrefix(path, "/")
	segments := strings.Split(trimmed, "/")
	var c Context
	consumed := 0
	switch {
	case strings.HasPrefix(segments[0], companyPrefix):
		c.CompanyID = strings.TrimPrefix(segments[0], companyPrefix)
		c.HasCompany = true
		consumed = 1
		if len(segments) > 1 && strings.HasPrefix(segments[1], sitePrefix) {
			c.SiteID = strings.TrimPrefix(segments[1], sitePrefix)
			c.HasSite = true
			consumed = 2
		}
	case strings.HasPrefix(segments[0], sitePrefix):
		c.SiteID = strings.TrimPrefix(segments[0], sitePrefix)
		c.HasSite = true
		consumed = 1
	}
	if consumed == 0 {
		c.RemainingPath = path
		return c
	}
	c.RemainingPath = strings.Join(segments[consumed:], "/")
	return c
}

func (c Context) Empty() bool {
	return !c.HasCompany && !c.HasSite
}

// Prefix renders the tenant prefix back into path form, e.g. "/company-7/site-3".
func (c Context) Prefix() string {
	var b strings.Builder
	if c.HasCompany {
		b.WriteString("/" + companyPrefix + c.CompanyID)
	}
	if c.HasSite {
		b.WriteString("/" + sitePrefix + c.SiteID)
	}
	return b.String()
}

type ctxKey struct{}

func WithContext(ctx context.Context, c Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, c)
}

func FromContext(ctx context.Context) Context {
	c, _ := ctx.Value(ctxKey{}).(Context)
	return c
}
