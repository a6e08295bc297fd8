package docs

import (
	"strings"

	"github.com/kbukum/wirekit/binding"
	"github.com/kbukum/wirekit/registry"
)

// Parameter groups as shown in documentation.
const (
	GroupPath   = "Path Parameter"
	GroupQuery  = "Query Parameter"
	GroupBody   = "Request Body"
	GroupCustom = "Custom"
)

// EndpointDoc describes one mounted endpoint.
type EndpointDoc struct {
	DisplayName string         `json:"displayName"`
	HTTPMethod  string         `json:"httpMethod"`
	FullPath    string         `json:"fullPath"`
	Description string         `json:"description,omitempty"`
	Parameters  []ParameterDoc `json:"parameters"`
}

// ParameterDoc describes one explicitly bound parameter.
type ParameterDoc struct {
	Group       string `json:"group"`
	Name        string `json:"name,omitempty"`
	ValueType   string `json:"valueType"`
	Description string `json:"description,omitempty"`
}

// Describe builds the documentation record of ep mounted under ctl. Injected
// request and response positions are not parameters and are left out.
func Describe(ctl *registry.ControllerDescriptor, ep *registry.EndpointDescriptor, comment MethodComment) EndpointDoc {
	doc := EndpointDoc{
		DisplayName: ep.Name,
		HTTPMethod:  string(ep.Method),
		FullPath:    "/" + ep.FullPath(ctl.BasePath),
		Description: comment.Text,
		Parameters:  make([]ParameterDoc, 0, len(ep.Bindings)),
	}
	for _, b := range ep.Bindings {
		group, ok := groupOf(b.Source)
		if !ok {
			continue
		}
		p := ParameterDoc{Group: group, Name: b.Key, ValueType: binding.Other.String()}
		if b.Position < len(ep.Types) {
			p.ValueType = ep.Types[b.Position].String()
		}
		if b.Key != "" {
			p.Description = comment.Params[b.Key]
		}
		doc.Parameters = append(doc.Parameters, p)
	}
	return doc
}

func groupOf(s binding.Source) (string, bool) {
	switch s {
	case binding.PathParam:
		return GroupPath, true
	case binding.QueryParam:
		return GroupQuery, true
	case binding.BodyParam:
		return GroupBody, true
	case binding.Custom:
		return GroupCustom, true
	default:
		return "", false
	}
}

// MatchesPrefix reports whether fullPath lies under prefix, comparing whole
// segments. A ":param" segment on either side matches any segment; leading
// and trailing slashes are ignored and an empty prefix matches everything.
func MatchesPrefix(fullPath, prefix string) bool {
	want := segments(prefix)
	have := segments(fullPath)
	if len(want) > len(have) {
		return false
	}
	for i, w := range want {
		h := have[i]
		if w == h || strings.HasPrefix(w, ":") || strings.HasPrefix(h, ":") {
			continue
		}
		return false
	}
	return true
}

func segments(path string) []string {
	joined := registry.JoinPath(path, "")
	if joined == "" {
		return nil
	}
	return strings.Split(joined, "/")
}
