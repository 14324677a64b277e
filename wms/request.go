package wms

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/OpticalFlyer/basemaps/proj"
)

// GetMapRequest holds the parsed parameters of a GetMap request
type GetMapRequest struct {
	Version string
	Layer   string
	Styles  string
	Format  string
	CRS     string
	BBox    proj.Extent
	Width   int
	Height  int

	// NoCache skips cache lookups, for debugging.
	NoCache bool
	// DebugHeaders adds timing and cache headers to the response.
	DebugHeaders bool
}

// params gives case-insensitive access to query parameters
type params map[string]string

func newParams(q url.Values) params {
	p := make(params, len(q))
	for k, vs := range q {
		if len(vs) > 0 {
			p[strings.ToLower(k)] = vs[0]
		}
	}
	return p
}

func (p params) mandatory(name string) (string, error) {
	v := p[name]
	if v == "" {
		return "", exceptionf(CodeMissingParameter, "Must provide a value for parameter %s", strings.ToUpper(name))
	}
	return v, nil
}

func (p params) positiveInt(name string) (int, error) {
	s, err := p.mandatory(name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, exceptionf(CodeInvalidParameter, "Parameter %s must be a positive integer", strings.ToUpper(name))
	}
	return n, nil
}

func (p params) flag(name string) bool {
	return strings.EqualFold(p[name], "true")
}

// ParseGetMap parses and validates the parameters of a GetMap request.
// Images larger than maxSize pixels on either side are rejected.
func ParseGetMap(q url.Values, maxSize int) (*GetMapRequest, error) {
	p := newParams(q)

	op, err := p.mandatory("request")
	if err != nil {
		return nil, err
	}
	if op != "GetMap" {
		return nil, exceptionf(CodeOperationNotSupported, "Operation %s is not supported", op)
	}

	req := &GetMapRequest{
		Version:      p["version"],
		Styles:       p["styles"],
		NoCache:      p.flag("no_cache"),
		DebugHeaders: p.flag("debug_headers"),
	}
	if req.Version == "" {
		req.Version = "1.3.0"
	}

	layers, err := p.mandatory("layers")
	if err != nil {
		return nil, err
	}
	if strings.Contains(layers, ",") {
		return nil, exceptionf(CodeInvalidParameter, "You may only request a maximum of 1 layer simultaneously from this server")
	}
	req.Layer = layers

	if req.Format, err = p.mandatory("format"); err != nil {
		return nil, err
	}

	// WMS 1.3.0 calls it CRS, earlier versions SRS
	req.CRS = p["crs"]
	if req.CRS == "" {
		req.CRS = p["srs"]
	}
	if req.CRS == "" {
		return nil, exceptionf(CodeMissingParameter, "Must provide a value for parameter CRS or SRS")
	}

	bbox, err := p.mandatory("bbox")
	if err != nil {
		return nil, err
	}
	if req.BBox, err = proj.ParseExtent(bbox); err != nil {
		return nil, exceptionf(CodeInvalidParameter, "Invalid bounding box: %v", err)
	}

	if req.Width, err = p.positiveInt("width"); err != nil {
		return nil, err
	}
	if req.Height, err = p.positiveInt("height"); err != nil {
		return nil, err
	}
	if req.Width > maxSize || req.Height > maxSize {
		return nil, exceptionf(CodeInvalidParameter, "Requested image is too large (exceeds %dx%d)", maxSize, maxSize)
	}

	return req, nil
}
