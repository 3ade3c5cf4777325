// Copyright (c) 2026 Labrador Team
// Labrador - multi-backend data store browser
// This source code is licensed under the MIT license found in the LICENSE file.

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/toeirei/labrador/internal/adapter"
	"github.com/toeirei/labrador/internal/app"
	"github.com/toeirei/labrador/internal/i18n"
)

type appView struct {
	Name    string         `json:"name"`
	Adapter adapter.Kind   `json:"adapter"`
	Family  adapter.Family `json:"family"`
	Source  app.Source     `json:"source"`
	Path    string         `json:"path,omitempty"`
}

// discover runs a fresh discovery for this request. The "path" query
// parameter names an application directory; its parent is scanned.
func (s *Server) discover(c *gin.Context) ([]*app.Application, bool) {
	hint := app.ScanPathFromAppPath(c.Query("path"))
	apps, err := s.opts.Registry.Discover(c.Request.Context(), hint)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":      err.Error(),
			"request_id": c.GetString("request_id"),
		})
		return nil, false
	}
	return apps, true
}

func (s *Server) listApps(c *gin.Context) {
	apps, ok := s.discover(c)
	if !ok {
		return
	}
	out := make([]appView, 0, len(apps))
	for _, a := range apps {
		out = append(out, appView{
			Name:    a.Name(),
			Adapter: a.Config().Kind,
			Family:  adapter.FamilyOf(a.Config().Kind),
			Source:  a.Source(),
			Path:    a.Path(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"apps": out})
}

func (s *Server) collectionsByName(c *gin.Context) {
	s.collections(c, c.Param("app"))
}

func (s *Server) browseByName(c *gin.Context) {
	s.browse(c, c.Param("app"))
}

func (s *Server) collectionsByHost(c *gin.Context) {
	s.collections(c, s.hostHint(c))
}

func (s *Server) browseByHost(c *gin.Context) {
	s.browse(c, s.hostHint(c))
}

// hostHint is the subdomain of the request, or the last segment of the
// "path" parameter when there is none.
func (s *Server) hostHint(c *gin.Context) string {
	if sub := app.HintFromHost(c.Request.Host, s.opts.BaseDomain); sub != "" {
		return sub
	}
	return app.HintFromPath(c.Query("path"))
}

func (s *Server) collections(c *gin.Context, hint string) {
	apps, ok := s.discover(c)
	if !ok {
		return
	}
	a := app.Resolve(apps, hint)
	names, err := s.opts.Manager.Collections(c.Request.Context(), a)
	if err != nil {
		renderError(c, a, hint, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"app": a.Name(), "adapter": a.Config().Kind, "collections": names})
}

func (s *Server) browse(c *gin.Context, hint string) {
	b, err := parseBrowse(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      i18n.T("error.bad_request", map[string]any{"Reason": err.Error()}),
			"request_id": c.GetString("request_id"),
		})
		return
	}
	apps, ok := s.discover(c)
	if !ok {
		return
	}
	a := app.Resolve(apps, hint)
	rs, err := s.opts.Manager.Browse(c.Request.Context(), a, b)
	if err != nil {
		renderError(c, a, hint, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"app": a.Name(), "adapter": a.Config().Kind, "result": rs})
}

// parseBrowse reads limit, offset, sort (comma separated) and filter (a JSON
// object) from the query string.
func parseBrowse(c *gin.Context) (adapter.Browse, error) {
	b := adapter.Browse{Collection: c.Param("collection")}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return b, fmt.Errorf("limit must be a non-negative integer")
		}
		b.Limit = n
	}
	if v := c.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return b, fmt.Errorf("offset must be a non-negative integer")
		}
		b.Offset = n
	}
	if v := c.Query("sort"); v != "" {
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				b.Sort = append(b.Sort, f)
			}
		}
	}
	if v := c.Query("filter"); v != "" {
		filter, err := parseFilter(v)
		if err != nil {
			return b, err
		}
		b.Filter = filter
	}
	return b, nil
}

func parseFilter(raw string) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, fmt.Errorf("filter must be a JSON object: %w", err)
	}
	for k, v := range m {
		switch t := v.(type) {
		case json.Number:
			if i, err := t.Int64(); err == nil {
				m[k] = i
			} else if f, err := t.Float64(); err == nil {
				m[k] = f
			}
		case map[string]any, []any:
			return nil, fmt.Errorf("filter value for %q must be a scalar", k)
		}
	}
	return m, nil
}

func statusFor(kind adapter.ErrorKind) int {
	switch kind {
	case adapter.Unconfigured:
		return http.StatusNotFound
	case adapter.ConnectionFailure:
		return http.StatusBadGateway
	case adapter.Timeout:
		return http.StatusGatewayTimeout
	case adapter.IntrospectionFailure, adapter.QueryFailure:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// renderError writes the four display fields of an adapter error plus the
// localized notice.
func renderError(c *gin.Context, a *app.Application, hint string, err error) {
	ae, ok := adapter.AsError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "request_id": c.GetString("request_id")})
		return
	}
	notice := i18n.Notice(ae.Adapter(), a.Name())
	if a.IsNull() {
		notice = i18n.T("notice.no_application", map[string]any{"App": hint})
	}
	c.JSON(statusFor(ae.Kind()), gin.H{
		"error":      ae.Message(),
		"kind":       ae.Kind(),
		"adapter":    ae.Adapter(),
		"app":        ae.App(),
		"dump":       ae.Dump(),
		"notice":     notice,
		"request_id": c.GetString("request_id"),
	})
}
